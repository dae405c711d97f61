package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/pillbox/pkg/views"
)

var dateFlag string

type calendarOutput struct {
	Days         map[string]views.DaySummary `json:"days"`
	SelectedDate string                      `json:"selectedDate"`
	Medicines    any                         `json:"medicines"`
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show which days have medicines and how many were taken",
	Long: `Print one line per start date with its taken count, then the medicines of the
selected day (--date, default today).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			if dateFlag != "" {
				if err := a.session.SelectDate(dateFlag); err != nil {
					return err
				}
			}
			cal := a.session.Calendar()
			selected := a.session.SelectedDay()

			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, calendarOutput{
					Days:         cal,
					SelectedDate: a.session.SelectedDate(),
					Medicines:    selected,
				})
			}

			for _, day := range views.Days(cal) {
				s := cal[day]
				fmt.Fprintf(out, "%s  %d/%d taken  %s\n", day, s.Taken, s.Total, s.Status)
			}
			fmt.Fprintf(out, "\nMedicines on %s:\n", a.session.SelectedDate())
			if len(selected) == 0 {
				fmt.Fprintln(out, "No medicines on this day.")
				return nil
			}
			for _, r := range selected {
				printRecord(out, r)
			}
			return nil
		})
	},
}

func initCalendarCmd() {
	calendarCmd.Flags().StringVar(&dateFlag, "date", "", "Day to list as YYYY-MM-DD (default: today)")
}
