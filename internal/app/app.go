package app

import (
	"log/slog"

	"product-mockup-studio/internal/analysis"
	"product-mockup-studio/internal/catalog"
	"product-mockup-studio/internal/config"
	"product-mockup-studio/internal/executor"
	"product-mockup-studio/internal/gemini"
	"product-mockup-studio/internal/httpclient"
	"product-mockup-studio/internal/mockup"
	"product-mockup-studio/internal/overlay"
	"product-mockup-studio/internal/session"
)

// App holds the services shared by the web, bot and CLI front ends.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Catalog  *catalog.Catalog
	Executor *executor.Executor
	Analyzer *analysis.Analyzer
	Mockups  *mockup.Orchestrator
	Overlay  *overlay.Stages
	Sessions *session.Store
}

func New(cfg config.Config, logger *slog.Logger) *App {
	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4:        cfg.PreferIPv4,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.MaxConcurrent,
	})

	gem := gemini.New(gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		APIVersion: cfg.GeminiAPIVersion,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	return Wire(cfg, logger, gem)
}

// Wire builds everything above the model transport; tests pass a stub model.
func Wire(cfg config.Config, logger *slog.Logger, model executor.Model) *App {
	cat := catalog.Default()
	exec := executor.New(executor.Options{
		Model:      model,
		TextModel:  cfg.TextModel,
		ImageModel: cfg.ImageModel,
		Logger:     logger,
	})
	analyzer := analysis.New(analysis.Options{Executor: exec, Logger: logger})
	mockups := mockup.New(mockup.Options{
		Executor: exec,
		Labels:   analyzer,
		Catalog:  cat,
		Logger:   logger,
	})
	stages := overlay.NewStages(overlay.StagesOptions{
		Executor:   exec,
		Compositor: overlay.NewModelCompositor(exec),
		Logger:     logger,
	})

	sessions := session.NewStore(session.StoreOptions{
		Deps: session.Deps{
			Analyzer: analyzer,
			Mockups:  mockups,
			Overlay:  stages,
			Catalog:  cat,
			Logger:   logger,
		},
		TTL:          cfg.SessionTTL,
		HistoryLimit: cfg.HistoryLimit,
		HistoryDir:   cfg.HistoryDir,
		Language:     cfg.OverlayLanguage,
	})

	return &App{
		Config:   cfg,
		Logger:   logger,
		Catalog:  cat,
		Executor: exec,
		Analyzer: analyzer,
		Mockups:  mockups,
		Overlay:  stages,
		Sessions: sessions,
	}
}
