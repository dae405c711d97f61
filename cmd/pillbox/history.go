package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/pillbox/pkg/views"
)

var (
	filterFlag string
	searchFlag string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List taken, missed or upcoming medicines",
	Long: `List medicines matching a filter, newest start date first.

Filters:
  taken     marked as taken, starting today or earlier
  missed    not taken, started before today
  upcoming  starting after today`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := views.ParseFilter(filterFlag)
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			a.session.SetFilter(f)
			a.session.SetSearchTerm(searchFlag)
			records := a.session.History()

			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintf(out, "No %s medicines found.\n", f)
				return nil
			}
			for _, r := range records {
				printRecord(out, r)
			}
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every taken or missed medicine",
	Long:  `Delete every medicine matching --filter. Only taken and missed can be cleared.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := views.ParseFilter(filterFlag)
		if err != nil {
			return err
		}
		if !f.Clearable() {
			return fmt.Errorf("%w: %s", views.ErrClearNotOffered, f)
		}
		if !yesFlag {
			return errors.New("refusing to clear history without --yes")
		}
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			n, err := a.session.ClearFiltered(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s medicine(s).\n", n, f)
			return nil
		})
	},
}

func initHistoryCmd() {
	historyCmd.PersistentFlags().StringVar(&filterFlag, "filter", string(views.FilterTaken), "Filter: taken, missed, upcoming")
	historyCmd.Flags().StringVar(&searchFlag, "search", "", "Only show medicines whose name contains this text")
	historyClearCmd.Flags().BoolVar(&yesFlag, "yes", false, "Confirm clearing")

	historyCmd.AddCommand(historyClearCmd)
}
