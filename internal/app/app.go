// Package app wires configuration, storage and the pipeline into a runnable
// service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/venuz/ingest/internal/affiliate"
	"github.com/venuz/ingest/internal/analyzer"
	"github.com/venuz/ingest/internal/api"
	"github.com/venuz/ingest/internal/cache"
	"github.com/venuz/ingest/internal/config"
	"github.com/venuz/ingest/internal/connectors"
	"github.com/venuz/ingest/internal/database"
	"github.com/venuz/ingest/internal/dedup"
	"github.com/venuz/ingest/internal/httpx"
	"github.com/venuz/ingest/internal/keywords"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/metrics"
	"github.com/venuz/ingest/internal/orchestrator"
	"github.com/venuz/ingest/internal/ranking"
	"github.com/venuz/ingest/internal/runlock"
)

// Yelp's free tier is much tighter than the other providers.
const yelpRatePerMinute = 20

// App owns every long-lived component of the service.
type App struct {
	Config       *config.Config
	Log          logger.Logger
	Orchestrator *orchestrator.Orchestrator
	Lock         runlock.Lock

	server *http.Server
	cron   *cron.Cron
}

// New builds the full object graph: database (with migrations), repositories,
// connectors, pipeline stages, HTTP server and the optional cron schedule.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	contentRepo := database.NewContentRepository(db)
	affiliateRepo := database.NewAffiliateRepository(db)
	keywordRepo := database.NewKeywordRepository(db)

	lock, err := runlock.New(ctx, cfg.Redis.URL, log)
	if err != nil {
		return nil, fmt.Errorf("setting up run lock: %w", err)
	}

	loader := keywords.NewLoader(keywordRepo, cache.NewTTL[*keywords.Matcher](keywords.CacheTTL), log)

	m := metrics.New(prometheus.DefaultRegisterer)

	orch := orchestrator.New(
		buildConnectors(cfg, loader, log),
		analyzer.New(cfg.Ingest.OpenAIKey, log),
		affiliate.NewTransformer(affiliateRepo, log),
		dedup.NewEngine(contentRepo, cfg.Ingest.DedupWindow, log),
		ranking.New(),
		contentRepo,
		m,
		log,
	)

	a := &App{
		Config:       cfg,
		Log:          log,
		Orchestrator: orch,
		Lock:         lock,
	}

	router := api.SetupRouter(cfg, orch, lock, log)
	a.server = &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	if cfg.Ingest.Schedule != "" {
		a.cron = cron.New()
		if _, err := a.cron.AddFunc(cfg.Ingest.Schedule, a.scheduledRun); err != nil {
			return nil, fmt.Errorf("invalid ingest schedule %q: %w", cfg.Ingest.Schedule, err)
		}
	}

	return a, nil
}

func buildConnectors(cfg *config.Config, loader *keywords.Loader, log logger.Logger) []connectors.Connector {
	params := connectors.SearchParams{
		Latitude:     cfg.Sources.Latitude,
		Longitude:    cfg.Sources.Longitude,
		RadiusMeters: cfg.Sources.RadiusMeters,
		Query:        cfg.Sources.Query,
	}

	client := httpx.New(log,
		httpx.WithTimeout(cfg.Ingest.HTTPTimeout),
		httpx.WithMaxRetries(cfg.Ingest.MaxRetries),
	)
	yelpClient := httpx.New(log,
		httpx.WithTimeout(cfg.Ingest.HTTPTimeout),
		httpx.WithMaxRetries(cfg.Ingest.MaxRetries),
		httpx.WithRatePerMinute(yelpRatePerMinute),
	)

	conns := []connectors.Connector{
		connectors.NewGooglePlaces(cfg.Sources.GooglePlacesKey, params, client, log),
		connectors.NewFoursquare(cfg.Sources.FoursquareKey, params, client, log),
		connectors.NewYelp(cfg.Sources.YelpKey, params, yelpClient, log),
		connectors.NewEventbrite(cfg.Sources.EventbriteToken, params, client, log),
		connectors.NewPredictHQ(cfg.Sources.PredictHQToken, params, client, log),
		connectors.NewBandsintown(cfg.Sources.BandsintownAppID, nil, client, log),
		connectors.NewReddit(cfg.Sources.RedditUserAgent, nil, client, log),
	}
	for _, src := range cfg.Sources.HTML {
		if src.Browser {
			conns = append(conns, connectors.NewBrowserScraper(src, loader, log))
		} else {
			conns = append(conns, connectors.NewHTMLScraper(src, loader, log))
		}
	}
	return conns
}

func (a *App) scheduledRun() {
	ctx := context.Background()
	release, err := a.Lock.Acquire(ctx)
	if err != nil {
		a.Log.Warn("scheduled run skipped", logger.Error(err))
		return
	}
	defer release()

	if _, err := a.Orchestrator.Run(ctx); err != nil {
		a.Log.Error("scheduled ingestion run failed", logger.Error(err))
	}
}

// Serve runs the HTTP server (and scheduler, when configured) until ctx is
// canceled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	if a.cron != nil {
		a.cron.Start()
		defer a.cron.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening", logger.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}

// RunOnce executes a single ingestion run under the run lock, for the CLI
// path.
func (a *App) RunOnce(ctx context.Context) (*orchestrator.RunStats, error) {
	release, err := a.Lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return a.Orchestrator.Run(ctx)
}
