package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Didstopia/ruffle-manager/internal/auth"
	"github.com/Didstopia/ruffle-manager/internal/config"
	"github.com/Didstopia/ruffle-manager/internal/github"
	"github.com/Didstopia/ruffle-manager/internal/install"
	"github.com/Didstopia/ruffle-manager/internal/release"
	"github.com/Didstopia/ruffle-manager/internal/state"
	"github.com/Didstopia/ruffle-manager/internal/updater"
)

// app bundles the components a command needs
type app struct {
	cfg      *config.Config
	feed     github.Feed
	store    state.Store
	resolver *release.Resolver
	updater  *updater.Updater
}

// openStore opens and loads the state backend selected by cfg
func openStore(cfg *config.Config) (state.Store, error) {
	path := cfg.StateFile
	if path == "" {
		var err error
		path, err = state.DefaultPath(cfg.StateDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state file: %w", err)
		}
	}

	store, err := state.Open(cfg.StateDriver, path)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load state from %s: %w", path, err)
	}
	return store, nil
}

// newApp wires the feed client, resolver, installer, ledger and updater
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	f, err := github.ParseFeed(cfg.Feed)
	if err != nil {
		return nil, err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	tokenResult, err := auth.GetToken(ctx, cfg.Token, auth.HostnameFromBaseURL(f.BaseURL))
	if err != nil {
		return nil, err
	}
	if tokenResult.Token != "" {
		log.WithField("source", auth.FormatTokenSource(tokenResult.Source)).Debug("Using GitHub token")
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = github.DefaultUserAgent
	}

	client, err := github.NewClient(&github.Options{
		Token:     tokenResult.Token,
		BaseURL:   f.BaseURL,
		UserAgent: ua,
		Timeout:   timeout,
	})
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	lockDir, err := state.DefaultDir()
	if err != nil {
		store.Close()
		return nil, err
	}

	resolver := release.NewResolver(client, f, log)
	installer := install.New(&http.Client{Timeout: timeout}, ua, log)

	return &app{
		cfg:      cfg,
		feed:     f,
		store:    store,
		resolver: resolver,
		updater: updater.New(resolver, installer, store, updater.Options{
			Root:    cfg.InstallRoot,
			LockDir: lockDir,
			Log:     log,
		}),
	}, nil
}

// Close releases the state backend
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.WithError(err).Debug("Failed to close state")
	}
}
