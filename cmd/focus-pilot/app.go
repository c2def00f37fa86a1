package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/ai"
	"github.com/mklimuk/focus-pilot/pkg/config"
	"github.com/mklimuk/focus-pilot/pkg/db"
	"github.com/mklimuk/focus-pilot/pkg/logging"
	"github.com/mklimuk/focus-pilot/pkg/metrics"
	"github.com/mklimuk/focus-pilot/pkg/remote"
	"github.com/mklimuk/focus-pilot/pkg/state"
	"github.com/mklimuk/focus-pilot/pkg/store"
)

// app holds the components every command shares.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	database *db.DB
	repo     *db.Repository
	store    *store.Store
	remote   *remote.Client
	metrics  *metrics.Metrics
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	database, err := db.NewDB(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := database.InitSchema(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	repo := db.NewRepository(database)
	st := store.New(repo)

	httpClient := &http.Client{Timeout: cfg.Sync.Timeout}
	rem := remote.NewClient(st, remote.WithHTTPClient(httpClient), remote.WithLogger(logger.Named("remote")))

	return &app{
		cfg:      cfg,
		logger:   logger,
		database: database,
		repo:     repo,
		store:    st,
		remote:   rem,
		metrics:  metrics.New(),
	}, nil
}

func (a *app) orchestrator() (*state.Orchestrator, error) {
	return state.New(a.store, a.remote,
		state.WithDebounce(a.cfg.Sync.Debounce),
		state.WithLogger(a.logger.Named("state")),
		state.WithJournal(a.repo),
		state.WithMetrics(a.metrics),
	)
}

// generator builds the configured LLM provider. It returns nil for the
// "none" provider and when no API key is set; advice then falls back to the
// built-in tips.
func (a *app) generator(ctx context.Context) (ai.Generator, func(), error) {
	cfg := a.cfg.AI
	noop := func() {}
	if cfg.Provider == "none" {
		return nil, noop, nil
	}
	if cfg.APIKey == "" {
		a.logger.Warn("no AI api key configured, advice uses fallback tips", zap.String("provider", cfg.Provider))
		return nil, noop, nil
	}

	var opts []ai.HTTPOption
	if cfg.Model != "" {
		opts = append(opts, ai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, ai.WithBaseURL(cfg.BaseURL))
	}

	switch cfg.Provider {
	case "gemini":
		client, err := ai.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, ai.AdviceSchema)
		if err != nil {
			return nil, noop, err
		}
		return client, func() { _ = client.Close() }, nil
	case "openai":
		return ai.NewOpenAIClient(cfg.APIKey, opts...), noop, nil
	case "moonshot":
		return ai.NewMoonshotClient(cfg.APIKey, opts...), noop, nil
	case "anthropic":
		return ai.NewAnthropicClient(cfg.APIKey, opts...), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
}

func (a *app) Close() {
	if err := a.database.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
