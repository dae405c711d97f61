package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/pillbox/pkg/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Show terminal UI",
	Long: `Display an interactive terminal UI with today's schedule, the calendar and the
history. Press 'n' to add a medicine, space to mark it taken, 'q' to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			return tui.ShowTUI(a.session)
		})
	},
}
