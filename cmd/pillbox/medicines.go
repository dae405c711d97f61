package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/pillbox/pkg/medicines"
)

var (
	nameFlag      string
	dosageFlag    string
	timeFlag      string
	typeFlag      string
	frequencyFlag string
	startDateFlag string
	yesFlag       bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a medicine and schedule its reminders",
	Long: `Add a medicine record and register its local reminders.

The time accepts 24-hour (14:30) and 12-hour (2:30 PM) forms. The type defaults to
Tablet and the frequency to Once Daily; frequency aliases such as twice-daily or 8h
are accepted. The start date defaults to today.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if timeFlag == "" {
			return errors.New("medicine time is required")
		}
		tod, err := medicines.ParseTimeOfDay(timeFlag)
		if err != nil {
			return err
		}

		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			startDate := startDateFlag
			if startDate == "" {
				startDate = medicines.DayKey(a.session.Now())
			}

			rec, report, err := a.session.Add(ctx, medicines.Draft{
				Name:      nameFlag,
				Dosage:    dosageFlag,
				Type:      medicines.MedicineType(typeFlag),
				TimeOfDay: tod,
				Frequency: medicines.Frequency(frequencyFlag),
				StartDate: startDate,
			})
			if rec.ID == "" {
				return fmt.Errorf("failed to add medicine: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, rec)
			}
			fmt.Fprintln(out, "Added:")
			printRecord(out, rec)
			printReport(out, report, err)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every medicine record",
	Long:  `List every medicine record in the order it was added.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			records := a.store.Records()
			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No medicines added yet.")
				return nil
			}
			for _, r := range records {
				printRecord(out, r)
			}
			return nil
		})
	},
}

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's schedule and progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			schedule := a.session.Today()
			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, schedule)
			}
			fmt.Fprintf(out, "Today's Schedule (%s): %d of %d taken, %d%%\n",
				schedule.Date, schedule.Taken, schedule.Total, schedule.Percent)
			if schedule.Total == 0 {
				fmt.Fprintln(out, "No medicines scheduled for today.")
				return nil
			}
			for _, r := range schedule.Records {
				printRecord(out, r)
			}
			return nil
		})
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle [medicine-id]",
	Short: "Flip the taken flag of a medicine",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			if !a.session.Toggle(args[0]) {
				return fmt.Errorf("medicine not found: %s", args[0])
			}
			rec, _ := a.store.Get(args[0])
			if jsonFlag {
				return printJSON(cmd.OutOrStdout(), rec)
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [medicine-id]",
	Short: "Delete a medicine",
	Long: `Delete a medicine record. Reminders that were already registered for it stay
queued; run 'pillbox reminders resync' to rebuild them from the remaining records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			if !a.session.Delete(args[0]) {
				return fmt.Errorf("medicine not found: %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Medicine %s deleted successfully.\n", args[0])
			return nil
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every medicine and cancel all pending reminders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !yesFlag {
			return errors.New("refusing to delete every medicine without --yes")
		}
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			n := a.store.Len()
			a.session.ClearAll()
			if err := a.scheduler.CancelAll(ctx); err != nil {
				return fmt.Errorf("medicines cleared, but reminders could not be cancelled: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d medicine(s).\n", n)
			return nil
		})
	},
}

func initMedicinesCmd() {
	addCmd.Flags().StringVar(&nameFlag, "name", "", "Medicine name (required)")
	addCmd.Flags().StringVar(&dosageFlag, "dosage", "", "Dosage amount; the configured unit is appended (required)")
	addCmd.Flags().StringVar(&timeFlag, "time", "", "Time of day, e.g. 08:00 or 8:00 PM (required)")
	addCmd.Flags().StringVar(&typeFlag, "type", string(medicines.TypeTablet), "Medicine type: Tablet, Syrup, Injection, Capsule")
	addCmd.Flags().StringVar(&frequencyFlag, "frequency", string(medicines.FrequencyOnceDaily), "How often: once-daily, twice-daily, 6h, 8h")
	addCmd.Flags().StringVar(&startDateFlag, "start-date", "", "Start date as YYYY-MM-DD (default: today)")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("dosage")
	addCmd.MarkFlagRequired("time")

	clearCmd.Flags().BoolVar(&yesFlag, "yes", false, "Confirm deleting every medicine")
}
