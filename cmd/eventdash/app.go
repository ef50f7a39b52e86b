package main

import (
	"context"
	"errors"
	"io"
	"sync"

	"eventdash/internal/api"
	"eventdash/internal/config"
	"eventdash/internal/events"
	appLog "eventdash/internal/log"
	"eventdash/internal/session"
	"eventdash/internal/storage"
)

// errNotSignedIn is returned by remote commands run without a session.
var errNotSignedIn = errors.New("você não está logado; use: eventdash login")

// app is the wiring shared by all subcommands.
type app struct {
	cfg     *config.Config
	kv      *storage.BoltStore
	session *session.Manager
	client  *api.Client
	events  *events.Service
	out     io.Writer
	errOut  io.Writer

	reportMu sync.Mutex
}

func newApp(ctx context.Context, g globalFlags, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.local {
		cfg.Mode = config.ModeLocal
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	if g.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Debug("effective config",
		"mode", cfg.Mode,
		"api_base_url", cfg.APIBaseURL,
		"data_dir", cfg.DataDir,
		"timezone", cfg.Timezone,
		"refresh", cfg.RefreshCron,
		"ics_count", len(cfg.ICS),
	)

	kv, err := storage.OpenBolt(cfg.StatePath())
	if err != nil {
		return nil, err
	}

	sess := session.NewManager(kv)
	if err := sess.Load(ctx); err != nil {
		kv.Close()
		return nil, err
	}

	client := api.New(cfg.APIBaseURL, cfg.Timeout(), sess)

	var backend events.Backend
	if cfg.Mode == config.ModeLocal {
		backend = events.NewLocalBackend(kv)
	} else {
		backend = events.NewRemoteBackend(client)
	}

	svc := events.NewService(backend,
		events.WithLocation(cfg.Location()),
		events.WithAdminID(sess.AdminID),
	)

	return &app{
		cfg:     cfg,
		kv:      kv,
		session: sess,
		client:  client,
		events:  svc,
		out:     stdout,
		errOut:  stderr,
	}, nil
}

func (a *app) local() bool {
	return a.cfg.Mode == config.ModeLocal
}

// requireSession guards commands that call the remote API.
func (a *app) requireSession() error {
	if a.local() || a.session.Signed() {
		return nil
	}
	return errNotSignedIn
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		appLog.Error("failed to close state store", err)
	}
	appLog.Sync()
}
