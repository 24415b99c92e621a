package main

import (
	"github.com/dooshek/textgrab/internal/config"
	"github.com/spf13/cobra"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Set up shortcuts, the default window and the confidence threshold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.RunWizard()
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}
