package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	pillbox "github.com/unowned-ai/pillbox/pkg"
	pkgdb "github.com/unowned-ai/pillbox/pkg/db"
)

var (
	configPath string
	dbPath     string
	backend    string
	filePath   string
	walMode    bool
	syncMode   string
	logLevel   string
	jsonFlag   bool
)

var rootCmd = &cobra.Command{
	Use:           "pillbox",
	Short:         "Keep track of your medicines and get reminded to take them.",
	Long:          ``,
	Version:       fmt.Sprintf("v%s", pillbox.Version),
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for pillbox.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(pillbox completion bash)

  Zsh:
    $ pillbox completion zsh > "${fpath[1]}/_pillbox"

  Fish:
    $ pillbox completion fish > ~/.config/fish/completions/pillbox.fish

  PowerShell:
    PS> pillbox completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pillbox",
	Long:  `All software has versions. This is pillbox's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), pillbox.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the pillbox database",
	Long:  `Provides commands for managing the pillbox SQLite database, including schema upgrades.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the pillbox database schema to the latest version for the pillboxdb component",
	Long: `Connects to the SQLite database (--db, $PILLBOX_DB or the per-user default) and applies any
necessary schema migrations to bring the pillboxdb component up to the current application
schema version. If the database does not exist or is uninitialized, it is created and
initialized with the latest schema.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		path, err := cfg.ResolveDBPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Upgrading pillboxdb component in database at: %s (WAL: %t, Sync: %s)\n", path, cfg.WAL, cfg.SyncMode)

		dbConn, err := pkgdb.OpenDBConnection(path, cfg.WAL, cfg.SyncMode)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return pkgdb.UpgradeDB(dbConn, path, pkgdb.TargetSchemaVersion, logger)
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: $PILLBOX_CONFIG or the per-user config directory)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (uses a system-specific default if not provided)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Where medicines are stored: sqlite or file (default: sqlite)")
	rootCmd.PersistentFlags().StringVar(&filePath, "file", "", "Snapshot path for the file backend")
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", false, "Enable SQLite WAL (Write-Ahead Logging) mode (default: false)")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", "", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA) (default: FULL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: info)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print results as JSON")

	dbCmd.AddCommand(dbUpgradeCmd)

	initMedicinesCmd()
	initCalendarCmd()
	initHistoryCmd()
	initRemindersCmd()
	initDaemonCmd()
	rootCmd.AddCommand(
		completionCmd, versionCmd, dbCmd,
		addCmd, listCmd, todayCmd, toggleCmd, deleteCmd, clearCmd,
		calendarCmd, historyCmd, remindersCmd, daemonCmd, mcpCmd, tuiCmd,
	)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
