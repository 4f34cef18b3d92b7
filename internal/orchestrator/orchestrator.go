// Package orchestrator sequences one full ingestion run: every connector in
// turn (scraped event sources deduplicated as they land), then enrichment,
// AI analysis, affiliate transformation, ranking and a single bulk upsert.
package orchestrator

import (
	"context"
	"time"

	"github.com/venuz/ingest/internal/affiliate"
	"github.com/venuz/ingest/internal/analyzer"
	"github.com/venuz/ingest/internal/connectors"
	"github.com/venuz/ingest/internal/dedup"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/metrics"
	"github.com/venuz/ingest/internal/models"
	"github.com/venuz/ingest/internal/normalize"
	"github.com/venuz/ingest/internal/ranking"
)

// Store is the persistence surface a run writes through.
type Store interface {
	BulkUpsert(ctx context.Context, items []models.Content) (int, error)
}

// RunStats summarizes one ingestion run per stage.
type RunStats struct {
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
	PerConnector map[string]int `json:"per_connector"`
	Fetched      int            `json:"fetched"`
	Deduplicated int            `json:"deduplicated"`
	Upserted     int            `json:"upserted"`
	Failed       []string       `json:"failed_connectors,omitempty"`
}

// Orchestrator owns the run sequence. Connectors execute sequentially, a
// politeness choice that keeps each provider's rate limit independent of the
// others.
type Orchestrator struct {
	connectors  []connectors.Connector
	analyzer    *analyzer.Analyzer
	transformer *affiliate.Transformer
	dedup       *dedup.Engine
	ranker      *ranking.Engine
	store       Store
	metrics     *metrics.Metrics
	log         logger.Logger
}

func New(
	conns []connectors.Connector,
	an *analyzer.Analyzer,
	transformer *affiliate.Transformer,
	dedupEngine *dedup.Engine,
	ranker *ranking.Engine,
	store Store,
	m *metrics.Metrics,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		connectors:  conns,
		analyzer:    an,
		transformer: transformer,
		dedup:       dedupEngine,
		ranker:      ranker,
		store:       store,
		metrics:     m,
		log:         log,
	}
}

// Run executes one full ingestion pass. A connector failing is logged and
// skipped; only the final upsert can fail the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		StartedAt:    time.Now(),
		PerConnector: make(map[string]int, len(o.connectors)),
	}

	var batch []models.Content
	for _, conn := range o.connectors {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		items, err := conn.Fetch(ctx)
		if err != nil {
			o.log.Error("connector failed, continuing run",
				logger.String("connector", conn.Name()),
				logger.Error(err),
			)
			o.metrics.ConnectorErrors.WithLabelValues(conn.Name()).Inc()
			stats.Failed = append(stats.Failed, conn.Name())
			continue
		}

		stats.PerConnector[conn.Name()] = len(items)
		stats.Fetched += len(items)
		o.metrics.ItemsFetched.WithLabelValues(conn.Name()).Add(float64(len(items)))
		o.log.Info("connector finished",
			logger.String("connector", conn.Name()),
			logger.Int("items", len(items)),
		)

		fetched := make([]models.Content, 0, len(items))
		for _, item := range items {
			fetched = append(fetched, *item)
		}

		// Scraped event listings carry unstable titles, so fuzzy dedup runs
		// per source, before the batches merge. API records keep their stable
		// provider URLs and flow straight through: re-ingesting them must
		// reach the upsert so the existing row is refreshed.
		if src, ok := conn.(connectors.EventSource); ok && src.EventSource() {
			before := len(fetched)
			fetched = dedup.WithinBatch(fetched)
			fetched = o.dedup.AgainstStore(ctx, fetched)
			stats.Deduplicated += before - len(fetched)
		}
		batch = append(batch, fetched...)
	}

	for i := range batch {
		o.enrich(ctx, &batch[i])
	}

	beforeCollapse := len(batch)
	batch = lastWriteWinsBySourceURL(batch)
	stats.Deduplicated += beforeCollapse - len(batch)
	o.metrics.ItemsDeduped.Add(float64(stats.Deduplicated))

	for i := range batch {
		batch[i].RankScore = o.ranker.Score(&batch[i])
	}

	upserted, err := o.store.BulkUpsert(ctx, batch)
	if err != nil {
		o.metrics.RunsTotal.WithLabelValues("error").Inc()
		return stats, err
	}
	stats.Upserted = upserted
	o.metrics.ItemsUpserted.Add(float64(upserted))

	stats.Duration = time.Since(stats.StartedAt)
	o.metrics.RunsTotal.WithLabelValues("ok").Inc()
	o.metrics.RunDuration.Observe(stats.Duration.Seconds())

	o.log.Info("ingestion run complete",
		logger.Int("fetched", stats.Fetched),
		logger.Int("deduplicated", stats.Deduplicated),
		logger.Int("upserted", stats.Upserted),
		logger.Strings("failed_connectors", stats.Failed),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// enrich runs the per-item stages: tag extraction, metadata tags, AI
// analysis and the affiliate link transform.
func (o *Orchestrator) enrich(ctx context.Context, item *models.Content) {
	tags := normalize.ExtractTags(item.Title, item.Description, item.LocationText)
	tags = normalize.AddMetadataTags(append(tags, item.Tags...), normalize.Metadata{
		PriceLevel: item.PriceLevel,
		Rating:     item.Rating,
		IsOpenNow:  item.IsOpenNow,
		Category:   item.Category,
	})
	item.Tags = tags

	analysis := o.analyzer.Analyze(ctx, item.Title, item.Description, item.Category)
	item.Title = analysis.RewrittenTitle
	item.Description = analysis.RewrittenDescription
	if item.QualityScore == 0 {
		item.QualityScore = analysis.QualityScore
	}

	if item.AffiliateURL == "" && item.SourceURL != "" {
		tracked, source := o.transformer.Transform(ctx, item.SourceURL)
		if source != "" {
			item.AffiliateURL = tracked
			item.AffiliateSource = source
		}
	}
}

// lastWriteWinsBySourceURL collapses exact URL collisions inside one batch,
// keeping the later occurrence. Fuzzy matching already happened per event
// source; distinct URLs are distinct rows even when the titles agree.
func lastWriteWinsBySourceURL(items []models.Content) []models.Content {
	lastIdx := make(map[string]int, len(items))
	for i, item := range items {
		lastIdx[item.SourceURL] = i
	}
	out := make([]models.Content, 0, len(lastIdx))
	for i, item := range items {
		if lastIdx[item.SourceURL] == i {
			out = append(out, item)
		}
	}
	return out
}
