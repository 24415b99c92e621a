package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/dooshek/textgrab/internal/present"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture [target]",
	Short: "Capture a window once and print its text",
	Long: `Capture a window once, run OCR on it and print the regions whose
confidence reaches the threshold, in reading order.

A target is a process name, a title substring, a window handle (0x1a00007
or #27262983), pid:<n>, region:x,y,w,h or center:WxH. Without a target the
configured default_target is used.`,
	Example: `  # Capture the newest Firefox window
  textgrab capture firefox

  # Lower the confidence threshold and print JSON
  textgrab capture "Visual Studio Code" --threshold 0.5 --json

  # Capture a fixed screen region and keep the annotated frame
  textgrab capture region:0,0,800,600 --save`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().Float64("threshold", -1, "Minimum confidence in [0,1] (default: ocr.threshold from config)")
	captureCmd.Flags().Bool("json", false, "Print regions as JSON")
	captureCmd.Flags().Bool("save", false, "Save the annotated frame to the screenshots directory")
	captureCmd.Flags().Duration("timeout", 0, "Bound for the whole run (default: timeouts.run from config)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	save, _ := cmd.Flags().GetBool("save")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %v", threshold)
	}

	// stdout carries the results
	if logFilename == "" {
		logger.SetOutput(os.Stderr)
	}

	cfg, fileOps, err := loadConfig()
	if err != nil {
		return err
	}

	target := cfg.DefaultTarget
	if len(args) == 1 {
		target = args[0]
	}
	if target == "" {
		return fmt.Errorf("no target given and no default_target configured")
	}

	if save {
		cfg.Screenshots.Enabled = true
	}
	if timeout > 0 {
		cfg.Timeouts.Run = timeout
	}

	a, err := newApp(cfg, fileOps, appOptions{clipboard: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	regions, err := a.pipeline.Run(ctx, target, threshold)
	if err != nil {
		present.Error(os.Stderr, err)
		return errReported
	}

	if jsonOutput {
		return present.RegionsJSON(os.Stdout, regions)
	}
	present.Regions(os.Stdout, regions)
	fmt.Fprintf(os.Stderr, "%s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
