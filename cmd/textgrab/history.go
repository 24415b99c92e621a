package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dooshek/textgrab/internal/history"
	"github.com/dooshek/textgrab/internal/present"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent capture runs",
	Long: `Show runs recorded while history.enabled is set, newest first. Use
--target to filter by target and --prune to delete old runs.`,
	Example: `  textgrab history --limit 5
  textgrab history --target firefox --since 24h
  textgrab history --prune 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	historyCmd.Flags().String("target", "", "Only show runs for this target")
	historyCmd.Flags().Duration("since", 7*24*time.Hour, "With --target, how far back to look")
	historyCmd.Flags().Duration("prune", 0, "Delete runs older than this and exit")
	historyCmd.Flags().Bool("json", false, "Print runs as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	target, _ := cmd.Flags().GetString("target")
	since, _ := cmd.Flags().GetDuration("since")
	prune, _ := cmd.Flags().GetDuration("prune")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, fileOps, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.History.Path
	if path == "" {
		path = fileOps.GetHistoryDBPath()
	}

	db, err := openHistory(path)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := history.NewRepository(db)

	if prune > 0 {
		n, err := repo.Prune(time.Now().Add(-prune))
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d runs.\n", n)
		return nil
	}

	var runs []*history.Run
	if target != "" {
		runs, err = repo.ByTarget(target, time.Now().Add(-since))
		slices.Reverse(runs)
	} else {
		runs, err = repo.Recent(limit)
	}
	if err != nil {
		return err
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if !cfg.History.Enabled {
		color.New(color.FgYellow).Fprintln(os.Stderr, "history.enabled is off; new runs are not being recorded")
	}
	present.History(os.Stdout, runs)
	return nil
}
