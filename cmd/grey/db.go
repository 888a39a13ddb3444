package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thesisgrey/greylit/internal/config"
	"github.com/thesisgrey/greylit/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Greylit database",
		Long:  "Connects to the configured database and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded config for actor %q from %s\n", cfg.Actor, configPath)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	switch cfg.Database.Driver {
	case "sqlite":
		fmt.Fprintf(out, "Opened %s\n", cfg.Database.Path)
	default:
		fmt.Fprintf(out, "Connected to %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "\nGreylit database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete and re-initialize the local database",
		Long: `Deletes the SQLite database file and re-runs migration.

Only supported for the sqlite driver; shared MySQL deployments must be
reset by an administrator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("db reset only supports the sqlite driver (configured: %s)", cfg.Database.Driver)
	}

	if !skipConfirm && !confirmReset(cmd, cfg.Database.Path) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	if err := os.Remove(cfg.Database.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", cfg.Database.Path, err)
	}
	fmt.Fprintf(out, "Removed %s\n", cfg.Database.Path)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	fmt.Fprintln(out, "\nGreylit database reset successfully.")
	return nil
}

func confirmReset(cmd *cobra.Command, path string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: This will permanently delete all data in %q.\n", path)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
