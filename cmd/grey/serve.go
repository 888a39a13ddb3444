package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thesisgrey/greylit/internal/dashboard"
	"github.com/thesisgrey/greylit/internal/db"
	"github.com/thesisgrey/greylit/internal/notify"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server",
		Long:  "Serves the read-only dashboard and runs the scheduled digest and retention jobs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "dashboard port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	log := cliLogger()

	if err := db.AutoMigrate(a.db); err != nil {
		return err
	}

	if port == 0 {
		port = a.cfg.Dashboard.Port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := notify.NewScheduler(notify.SchedulerOpts{
		DB:            a.db,
		Dispatcher:    a.disp,
		Log:           log,
		DigestCron:    a.cfg.Notify.DigestCron,
		RetentionDays: a.cfg.RetentionDays,
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go a.disp.Run(ctx)

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:   a.db,
		Port: port,
		Log:  log,
	})
}
