package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/thesisgrey/greylit/internal/activity"
	"github.com/thesisgrey/greylit/internal/archive"
	"github.com/thesisgrey/greylit/internal/config"
	"github.com/thesisgrey/greylit/internal/db"
	"github.com/thesisgrey/greylit/internal/notify"
	"github.com/thesisgrey/greylit/internal/session"
	"gorm.io/gorm"
)

const defaultConfigPath = "greylit.yaml"

// app bundles the wired collaborators one CLI invocation needs.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *activity.Logger
	store   *session.Store
	archive *archive.Manager
	disp    *notify.Dispatcher
}

// openApp loads config, connects the database, and wires the audit trail
// to the configured notifiers.
func openApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	notifiers, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return nil, err
	}

	alog := activity.NewLogger()
	disp := notify.NewDispatcher(cliLogger(), notifiers...)
	alog.Subscribe(disp.Hook())

	store := session.NewStore(gormDB, alog)
	return &app{
		cfg:     cfg,
		db:      gormDB,
		log:     alog,
		store:   store,
		archive: archive.NewManager(gormDB, store, alog),
		disp:    disp,
	}, nil
}

// actor returns the identity for this invocation: the --actor flag when
// set, the configured default otherwise.
func (a *app) actor(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if a.cfg.Actor == "" {
		return "", fmt.Errorf("no actor: set actor in config or pass --actor")
	}
	return a.cfg.Actor, nil
}

// flush delivers any notifications the command produced before exit.
func (a *app) flush() {
	a.disp.Flush(context.Background())
}

// cliLogger writes structured logs to stderr, keeping stdout for command
// output.
func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
