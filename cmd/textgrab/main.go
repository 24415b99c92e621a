package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dooshek/textgrab/internal/logger"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// errReported marks a failure that was already printed to the user
var errReported = errors.New("reported")

var (
	logLevel    string
	logFilename string
)

var rootCmd = &cobra.Command{
	Use:   "textgrab",
	Short: "Read the text in any window on your screen",
	Long: `textgrab locates a window by name, title, handle or pid, captures it
(falling back to a screen region when the window cannot be read directly)
and runs OCR on the frame. Results are printed, copied or announced over
D-Bus depending on how the capture was triggered.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetLevel(logLevel)
		if logFilename != "" {
			if err := logger.SetOutputFile(logFilename); err != nil {
				return fmt.Errorf("error setting log file: %w", err)
			}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.CloseLogFile()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Set log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFilename, "log-filename", "", "Log to file instead of stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			log := logger.WithComponent("cmd")
			log.Error().Err(err).Msg("Command execution failed")
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.CloseLogFile()
		os.Exit(1)
	}
}
