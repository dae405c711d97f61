package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unowned-ai/pillbox/pkg/config"
	pkgdb "github.com/unowned-ai/pillbox/pkg/db"
	"github.com/unowned-ai/pillbox/pkg/logging"
	"github.com/unowned-ai/pillbox/pkg/medicines"
	"github.com/unowned-ai/pillbox/pkg/reminders"
	"github.com/unowned-ai/pillbox/pkg/session"
	"github.com/unowned-ai/pillbox/pkg/storage"
)

// loadConfig resolves the configuration and applies the persistent flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = dbPath
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("file") {
		cfg.FilePath = filePath
	}
	if flags.Changed("wal") {
		cfg.WAL = walMode
	}
	if flags.Changed("sync") {
		cfg.SyncMode = syncMode
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// app bundles everything a command needs. The database is always opened:
// even with the file backend it holds the reminder queue.
type app struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	db        *sql.DB
	store     *medicines.Store
	notifier  *reminders.SQLiteNotifier
	scheduler *reminders.Scheduler
	session   *session.Session
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dbConn, err := openDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	be, err := storage.NewBackend(cfg, dbConn)
	if err != nil {
		dbConn.Close()
		return nil, err
	}

	store := medicines.Open(cmd.Context(), be, medicines.Options{
		Logger:    logger.Named("store"),
		SaveDelay: cfg.SaveDelay,
		Format:    medicines.Format{DosageUnit: cfg.DosageUnit, TimeLayout: cfg.TimeLayout},
	})

	notifier := reminders.NewSQLiteNotifier(dbConn, cfg.Notifications.GrantByDefault, logger.Named("notifier"))
	scheduler := reminders.NewScheduler(notifier, reminders.Options{
		Logger:      logger.Named("scheduler"),
		Title:       cfg.Notifications.Title,
		Concurrency: cfg.Notifications.Concurrency,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		db:        dbConn,
		store:     store,
		notifier:  notifier,
		scheduler: scheduler,
		session:   session.New(store, scheduler, nil, logger.Named("session")),
	}, nil
}

// Close flushes the store and closes the database.
func (a *app) Close() error {
	storeErr := a.store.Close()
	dbErr := a.db.Close()
	_ = a.logger.Sync()
	if storeErr != nil {
		return storeErr
	}
	return dbErr
}

func openDB(cfg *config.Config, logger *zap.SugaredLogger) (*sql.DB, error) {
	path, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, err
	}
	dbConn, err := pkgdb.Open(path, cfg.WAL, cfg.SyncMode, logger.Named("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return dbConn, nil
}

// runWithApp opens the app, runs fn and always closes the app.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(cmd.Context(), a)
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func printRecord(w io.Writer, r medicines.MedicineRecord) {
	mark := "[ ]"
	if r.Taken {
		mark = "[x]"
	}
	fmt.Fprintf(w, "%s %s %s %s • %s • %s %s • %s (%s)\n",
		mark, r.Type.Icon(), r.Name, r.Dosage, r.Time, r.Frequency.Icon(), r.Frequency, r.StartDate, r.ID)
}

func printReport(w io.Writer, report reminders.Report, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(w, "Reminders could not be scheduled: %v\n", err)
	case report.PermissionDenied:
		fmt.Fprintln(w, "Notifications are not allowed, so no reminders were scheduled. Run 'pillbox reminders allow' to enable them.")
	default:
		for _, reg := range report.Registrations {
			if reg.Err != nil {
				fmt.Fprintf(w, "  reminder at %s failed: %v\n", reg.FireAt.Format("2006-01-02 15:04"), reg.Err)
				continue
			}
			fmt.Fprintf(w, "  reminder at %s\n", reg.FireAt.Format("2006-01-02 15:04"))
		}
	}
}
