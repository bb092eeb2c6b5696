package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/five82/lectern/internal/app"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive interface",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := app.New(ctx, app.Options{ConfigPath: cfgFile, Verbose: verbose})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()
	return a.Run(ctx)
}
