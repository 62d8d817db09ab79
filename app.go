package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jon4hz/announcement_bot/announce"
	"github.com/jon4hz/announcement_bot/db"
)

// app bundles the state shared by every command handler and the scheduler.
type app struct {
	cfg       Config
	log       zerolog.Logger
	gateway   *announce.FileGateway
	store     *announce.Store
	scheduler *announce.Scheduler
	commands  *announce.Commands
	db        *db.Database
}

func newApp(cfg Config, log zerolog.Logger) (*app, error) {
	database := db.New(cfg.Database)
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	gateway := announce.NewFileGateway(cfg.DataDir, log)
	store := announce.NewStore(gateway)
	scheduler := announce.NewScheduler(store, log,
		announce.WithFallback(cfg.Fallback),
		announce.WithRecorder(database),
	)

	return &app{
		cfg:       cfg,
		log:       log,
		gateway:   gateway,
		store:     store,
		scheduler: scheduler,
		commands:  announce.NewCommands(store, scheduler, database, log),
		db:        database,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
