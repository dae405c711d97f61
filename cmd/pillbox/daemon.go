package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unowned-ai/pillbox/pkg/reminders"
)

var (
	intervalFlag    time.Duration
	metricsAddrFlag string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Deliver queued reminders when they fall due",
	Long: `Poll the reminder queue and deliver every reminder whose firing time has passed,
printing it to stdout with a terminal bell. Runs until interrupted.

With --metrics-addr the scheduler and delivery counters are served in the
Prometheus text format at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		return runWithApp(cmd, func(ctx context.Context, a *app) error {
			interval := a.cfg.Notifications.DispatchInterval
			if cmd.Flags().Changed("interval") {
				interval = intervalFlag
			}

			out := cmd.OutOrStdout()
			deliver := func(ctx context.Context, r reminders.Reminder) error {
				_, err := fmt.Fprintf(out, "\a%s %s: %s\n", r.FireAt.Format("15:04"), r.Title, r.Body)
				return err
			}
			dispatcher := reminders.NewDispatcher(a.notifier, deliver, interval, nil, a.logger.Named("dispatcher"))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return dispatcher.Run(ctx)
			})

			if metricsAddrFlag != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				srv := &http.Server{Addr: metricsAddrFlag, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

				g.Go(func() error {
					a.logger.Infow("serving metrics", "addr", metricsAddrFlag)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}

			a.logger.Infow("reminder daemon started", "interval", interval)
			err := g.Wait()
			a.logger.Infow("reminder daemon stopped")
			return err
		})
	},
}

func initDaemonCmd() {
	daemonCmd.Flags().DurationVar(&intervalFlag, "interval", 0, "How often to check for due reminders (default: notifications.dispatch_interval)")
	daemonCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}
