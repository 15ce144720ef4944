package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"contentops/internal/config"
	"contentops/internal/infrastructure/feed"
	"contentops/internal/infrastructure/gas"
	"contentops/internal/infrastructure/scheduler"
	"contentops/internal/infrastructure/scrape"
	"contentops/internal/infrastructure/storage"
	"contentops/internal/infrastructure/vault"
	"contentops/internal/infrastructure/web"
	"contentops/internal/logging"
	"contentops/internal/ports"
	"contentops/internal/source"
	"contentops/internal/usecase"
)

// Application wires configuration to adapters, use cases and lifecycle.
type Application struct {
	cfg       config.Config
	collector *usecase.Collector
	scheduler *usecase.Scheduler
	closeDB   func() error
}

// New builds a runnable application instance. The sqlite store is opened
// here; Close releases it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	feedClient := &http.Client{Timeout: cfg.Collector.FeedTimeout.Std()}
	scrapeClient := &http.Client{Timeout: cfg.Collector.ScrapeTimeout.Std()}
	userAgent := cfg.Collector.UserAgent

	enricher := scrape.NewEnricher(scrapeClient, userAgent, baseLogger.With("component", "enricher"))
	urlAdapter := web.NewURLAdapter(scrapeClient, userAgent, enricher, baseLogger.With("component", "adapter.url"))

	var scriptClient ports.ScriptClient
	var gasAdapter *gas.Adapter
	if cfg.Script.WebAppURL != "" {
		client := gas.NewClient(cfg.Script.WebAppURL, cfg.Script.APIKey, cfg.Script.Timeout.Std(), baseLogger.With("component", "gas.client"))
		scriptClient = client
		gasAdapter = gas.NewAdapter(client, baseLogger.With("component", "adapter.gas"))
	}

	registry := source.NewRegistry()
	registry.Register(feed.NewRSSAdapter(feedClient, userAgent, baseLogger.With("component", "adapter.rss")))
	registry.Register(feed.NewYouTubeAdapter(feedClient, userAgent, baseLogger.With("component", "adapter.youtube")))
	registry.Register(urlAdapter)
	if gasAdapter != nil {
		registry.Register(gasAdapter)
	}

	var vaultWriter ports.VaultWriter
	if cfg.Vault.Enabled && cfg.Vault.Path != "" {
		vaultWriter = vault.NewWriter(cfg.Vault.Path, cfg.Vault.DailyNoteDir, baseLogger.With("component", "vault"))
	}

	collector := usecase.NewCollector(usecase.Deps{
		Articles:     storage.NewArticleRepository(db),
		Sources:      storage.NewSourceRepository(db),
		Registry:     registry,
		Enricher:     enricher,
		URLs:         urlAdapter,
		Script:       scriptClient,
		Vault:        vaultWriter,
		VaultEnabled: cfg.Vault.Enabled,
		BlogFeedURL:  cfg.Feeds.BlogRSS,
		Logger:       baseLogger.With("component", "collector"),
	})

	var sched *usecase.Scheduler
	if cfg.Collector.Interval > 0 {
		driver := scheduler.NewTickerScheduler(cfg.Collector.Interval.Std())
		sched = usecase.NewScheduler(driver, collector)
	}

	return &Application{
		cfg:       cfg,
		collector: collector,
		scheduler: sched,
		closeDB:   db.Close,
	}, nil
}

// Collector exposes the orchestrator for embedding callers.
func (a *Application) Collector() *usecase.Collector {
	return a.collector
}

// Run performs one full collection. When an interval is configured it starts
// the periodic scheduler instead and blocks until the context is done.
func (a *Application) Run(ctx context.Context) error {
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-ctx.Done()
		stopCtx := context.Background()
		_ = a.scheduler.Stop(stopCtx)
		a.collector.WaitBackgroundSync()
		return nil
	}

	if _, err := a.collector.CollectAll(ctx); err != nil {
		return err
	}
	a.collector.WaitBackgroundSync()
	return nil
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.closeDB == nil {
		return nil
	}
	return a.closeDB()
}
