package main

import (
	"encoding/json"
	"os"

	"github.com/dooshek/textgrab/internal/present"
	"github.com/dooshek/textgrab/internal/types"
	"github.com/dooshek/textgrab/internal/windowdetect"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List capturable windows with their processes",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("json", false, "Print windows as JSON")
	listCmd.Flags().BoolP("processes", "p", false, "Show executable, memory and CPU of each window's process")
}

type listedWindow struct {
	Window  types.WindowHandle        `json:"window"`
	Process *windowdetect.ProcessInfo `json:"process,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	processes, _ := cmd.Flags().GetBool("processes")

	locator, err := windowdetect.New()
	if err != nil {
		return err
	}
	windows, err := locator.List()
	if err != nil {
		return err
	}

	if jsonOutput {
		out := make([]listedWindow, len(windows))
		for i := range windows {
			out[i].Window = windows[i]
			if info, err := locator.ProcessInfo(windows[i].PID); err == nil {
				out[i].Process = info
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	present.Windows(os.Stdout, windows)
	if !processes {
		return nil
	}

	faint := color.New(color.Faint)
	seen := make(map[int]bool)
	color.New(color.Bold).Println("\nProcesses")
	for _, w := range windows {
		if w.PID <= 0 || seen[w.PID] {
			continue
		}
		seen[w.PID] = true
		info, err := locator.ProcessInfo(w.PID)
		if err != nil {
			faint.Printf("  %-7d %v\n", w.PID, err)
			continue
		}
		faint.Printf("  %-7d %-20s %-8s %6.1f MiB %5.1f%%  %s\n",
			info.PID, info.Name, info.Status, float64(info.MemoryRSS)/(1<<20), info.CPUPercent, info.Exe)
	}
	return nil
}
