package main

import (
	"fmt"
	"os"

	"github.com/dooshek/textgrab/internal/fileops"
	"github.com/dooshek/textgrab/internal/present"
	"github.com/dooshek/textgrab/internal/timing"
	"github.com/spf13/cobra"
)

var timingsCmd = &cobra.Command{
	Use:   "timings",
	Short: "Show average duration per pipeline stage",
	Args:  cobra.NoArgs,
	RunE:  runTimings,
}

func init() {
	rootCmd.AddCommand(timingsCmd)

	timingsCmd.Flags().Bool("json", false, "Print the summary as JSON")
	timingsCmd.Flags().Bool("reset", false, "Clear all recorded timings")
}

func runTimings(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	reset, _ := cmd.Flags().GetBool("reset")

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return err
	}
	recorder := timing.NewPersistentRecorder(fileOps.GetTimingsPath())

	if reset {
		if err := recorder.Reset(); err != nil {
			return fmt.Errorf("failed to reset timings: %w", err)
		}
		fmt.Println("Timings cleared.")
		return nil
	}

	if jsonOutput {
		out, err := recorder.SummaryJSON()
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	present.Timings(os.Stdout, recorder.Summary())
	return nil
}
