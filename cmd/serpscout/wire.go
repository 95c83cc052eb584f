package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/serpscout/acquisition"
	"github.com/use-agent/serpscout/classifier"
	"github.com/use-agent/serpscout/config"
	"github.com/use-agent/serpscout/debugstore"
	"github.com/use-agent/serpscout/engine"
	"github.com/use-agent/serpscout/metrics"
	"github.com/use-agent/serpscout/models"
	"github.com/use-agent/serpscout/provider/cse"
	"github.com/use-agent/serpscout/provider/serpapi"
	"github.com/use-agent/serpscout/scraper"
	"github.com/use-agent/serpscout/storage"
	"github.com/use-agent/serpscout/storage/jsonfile"
	"github.com/use-agent/serpscout/storage/sqlite"
)

// buildService wires the provider chain, evidence store and record store
// from cfg. The returned store must be closed by the caller.
func buildService(cfg *config.Config) (*acquisition.Service, storage.Backend, error) {
	// ── Block detection ─────────────────────────────────────────────
	rules := classifier.DefaultRules()
	if cfg.Acquisition.RulesFile != "" {
		loaded, err := classifier.LoadRules(cfg.Acquisition.RulesFile)
		if err != nil {
			return nil, nil, err
		}
		rules = loaded
	}
	cls, err := classifier.New(rules)
	if err != nil {
		return nil, nil, err
	}

	// ── Browser identity ────────────────────────────────────────────
	uas, err := scraper.LoadUserAgents(cfg.Browser.UserAgentPoolFile)
	if err != nil {
		return nil, nil, err
	}
	identities := scraper.NewIdentityPool(uas, nil, cfg.Browser.Language)

	// ── Providers ───────────────────────────────────────────────────
	launcher := scraper.NewRodLauncher(cfg.Browser)
	metrics.TrackBrowserSessions(launcher.Active)

	browser := scraper.NewBrowserProvider(
		launcher,
		identities,
		cls,
		debugstore.New(cfg.Debug.Dir),
		engine.RealSleep,
		scraper.Settings{
			Enabled:        cfg.Browser.Enabled,
			Headless:       cfg.Browser.Headless,
			Proxy:          cfg.Browser.DefaultProxy,
			LandingURL:     cfg.Browser.LandingURL,
			SearchURL:      cfg.Browser.SearchURL,
			Language:       cfg.Browser.Language,
			Region:         cfg.Browser.Region,
			ResultTimeout:  cfg.Browser.ResultTimeout,
			AttemptTimeout: cfg.Browser.AttemptTimeout,
		},
	)
	policy := engine.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BackoffBase: cfg.Retry.BackoffBase,
		Jitter:      cfg.Retry.Jitter,
	}

	chain, err := engine.NewChain(
		engine.Retrying(browser, policy, engine.RealSleep),
		serpapi.New(cfg.Providers.SerpAPI, cfg.Browser.Language, cfg.Browser.Region),
		cse.New(cfg.Providers.CSE),
	)
	if errors.Is(err, engine.ErrNoProviders) {
		return nil, nil, models.NewAcquireError(models.ErrCodeNoProviders,
			"enable the browser or configure SERP_API_KEY or GOOGLE_CSE_KEY/GOOGLE_CSE_CX", err)
	}
	if err != nil {
		return nil, nil, err
	}

	// ── Record store ────────────────────────────────────────────────
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, nil, models.NewAcquireError(models.ErrCodeStorage, "failed to open record store", err)
	}

	slog.Info("acquisition pipeline ready",
		"providers", chain.Providers(),
		"storage", cfg.Storage.Backend,
		"userAgents", len(identities.UserAgents()),
		"headless", cfg.Browser.Headless,
		"apiFirst", cfg.Acquisition.APIFirst,
	)

	svc := acquisition.New(chain, store, engine.RealSleep, acquisition.Settings{
		PerKeyword:    cfg.Acquisition.PerKeyword,
		PolitenessMin: cfg.Acquisition.PolitenessMin,
		PolitenessMax: cfg.Acquisition.PolitenessMax,
		APIFirst:      cfg.Acquisition.APIFirst,
	})
	return svc, store, nil
}

func openStorage(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "json", "":
		return jsonfile.New(cfg.Path)
	case "sqlite":
		return sqlite.New(cfg.Path)
	case "none":
		return storage.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
