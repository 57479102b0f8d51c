package main

import (
	"fmt"

	"github.com/kalambet/talentflow/internal/client"
	"github.com/kalambet/talentflow/internal/config"
	"github.com/kalambet/talentflow/internal/docstore"
	"github.com/kalambet/talentflow/internal/drafts"
	"github.com/kalambet/talentflow/internal/notes"
	"github.com/kalambet/talentflow/internal/stores"
)

// app is what the client-side commands share: one API client, one store set
// over one mirror, and the device-local area.
type app struct {
	cfg    config.Config
	client *client.Client
	mirror *docstore.Store
	stores *stores.Set
	local  *drafts.Area
	notes  *notes.Book
}

var newApp = func() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return openApp(cfg, client.New(cfg.Client.BaseURL, cfg.Client.Timeout))
}

func openApp(cfg config.Config, c *client.Client) (*app, error) {
	mirror, err := docstore.Open(cfg.CacheDir(), docstore.DefaultSchema)
	if err != nil {
		return nil, fmt.Errorf("opening local mirror: %w", err)
	}
	local := drafts.Open(cfg.LocalDir())
	return &app{
		cfg:    cfg,
		client: c,
		mirror: mirror,
		stores: stores.NewSet(c, mirror),
		local:  local,
		notes:  notes.New(local, cfg.Notes.Author),
	}, nil
}

func (a *app) Close() {
	if err := a.mirror.Close(); err != nil {
		printWarning("closing local mirror: %v", err)
	}
}

// withApp opens the app for the duration of fn.
func withApp(fn func(a *app) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
