package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/pillbox/pkg/reminders"
)

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Manage the local reminder queue",
	Long: `Inspect and maintain the reminders queued for delivery by 'pillbox daemon', and
set whether pillbox is allowed to schedule notifications at all.`,
}

var remindersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending reminders, soonest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			pending, err := a.notifier.Pending(ctx)
			if err != nil {
				return fmt.Errorf("failed to list reminders: %w", err)
			}
			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, pending)
			}
			if len(pending) == 0 {
				fmt.Fprintln(out, "No pending reminders.")
				return nil
			}
			for _, r := range pending {
				fmt.Fprintf(out, "%s  %s  %s (%s)\n", r.FireAt.Format("2006-01-02 15:04"), r.Title, r.Body, r.ID)
			}
			return nil
		})
	},
}

var remindersCancelAllCmd = &cobra.Command{
	Use:   "cancel-all",
	Short: "Cancel every pending reminder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.scheduler.CancelAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All pending reminders cancelled.")
			return nil
		})
	},
}

var remindersResyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rebuild the reminder queue from the current medicines",
	Long: `Cancel every pending reminder and schedule the next firing times of every
medicine again, counted from now. Use it after deleting medicines or when the
queued reminders have all been delivered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			reports, err := a.scheduler.Resync(ctx, a.store.Records())
			out := cmd.OutOrStdout()
			for _, report := range reports {
				fmt.Fprintf(out, "%s:\n", report.Medicine)
				printReport(out, report, nil)
			}
			if err != nil {
				return fmt.Errorf("resync stopped: %w", err)
			}
			return nil
		})
	},
}

func permissionCmd(use, short string, perm reminders.Permission) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.notifier.SetPermission(ctx, perm); err != nil {
					return fmt.Errorf("failed to update notification permission: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Notification permission: %s\n", perm)
				return nil
			})
		},
	}
}

func initRemindersCmd() {
	remindersCmd.AddCommand(
		remindersListCmd,
		remindersCancelAllCmd,
		remindersResyncCmd,
		permissionCmd("allow", "Allow pillbox to schedule notifications", reminders.PermissionGranted),
		permissionCmd("deny", "Stop pillbox from scheduling notifications", reminders.PermissionDenied),
	)
}
