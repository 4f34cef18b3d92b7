// Package connectors holds one implementation per external content source.
// Every connector fetches from its provider and normalizes the payload into
// the shared content record; the orchestrator iterates them without knowing
// concrete types.
package connectors

import (
	"context"

	"github.com/venuz/ingest/internal/models"
)

// Connector is the capability the orchestrator iterates over. Fetch returns
// fully normalized records; connectors that cannot run (missing credential)
// return an empty slice and no error.
type Connector interface {
	Name() string
	Fetch(ctx context.Context) ([]*models.Content, error)
}

// EventSource marks connectors whose records are event listings scraped off
// volatile pages. Their output is fuzzy-deduplicated per source before it
// joins the merged batch; API connectors carry stable provider URLs and rely
// on the upsert instead.
type EventSource interface {
	EventSource() bool
}

// SearchParams are the shared geo-search inputs API connectors use.
type SearchParams struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Query        string
}

// truncate shortens s to at most max runes. Cutting on a byte offset could
// split a multi-byte character and produce invalid UTF-8, which Postgres
// rejects for the whole batch insert.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
