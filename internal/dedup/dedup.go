// Package dedup filters near-duplicate content against a rolling window of
// previously ingested records and within a single incoming batch.
package dedup

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

// SimilarityThreshold is the token-overlap ratio above which two same-date
// titles are considered duplicates. The comparison is strictly greater-than:
// exactly 0.85 keeps both items.
const SimilarityThreshold = 0.85

// DefaultWindow is how far back the store is scanned for duplicates.
const DefaultWindow = 30 * 24 * time.Hour

var (
	stripMarks  = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonAlphaNum = regexp.MustCompile(`[^a-z0-9\s]`)
	multiSpace  = regexp.MustCompile(`\s+`)
)

// NormalizeTitle lowercases, strips diacritics and punctuation, and collapses
// whitespace so "Fiésta  VIP!" and "fiesta vip" compare equal.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}
	stripped = nonAlphaNum.ReplaceAllString(stripped, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(stripped, " "))
}

// Key builds the identity key for an item: normalized title plus event date.
// Identical titles on different dates are distinct by design.
func Key(title, date string) string {
	return NormalizeTitle(title) + "|" + date
}

// Similarity computes token-overlap similarity between two titles:
// |intersection| / |larger token set|, on normalized tokens.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0
	}

	setA := tokenSet(na)
	setB := tokenSet(nb)
	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	if larger == 0 {
		return 1.0
	}

	common := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common++
		}
	}
	return float64(common) / float64(larger)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// WithinBatch keeps the first occurrence per key inside one batch.
func WithinBatch(items []models.Content) []models.Content {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.Content, 0, len(items))
	for _, item := range items {
		k := Key(item.Title, item.EventDate)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// WindowStore is the persistence collaborator the engine reads its
// comparison window from.
type WindowStore interface {
	RecentWindow(ctx context.Context, since time.Time) ([]models.StoredEvent, error)
}

// Engine deduplicates incoming items against the content store.
type Engine struct {
	store  WindowStore
	window time.Duration
	log    logger.Logger
}

// NewEngine builds an engine with the given lookback window; zero means
// DefaultWindow.
func NewEngine(store WindowStore, window time.Duration, log logger.Logger) *Engine {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Engine{store: store, window: window, log: log}
}

// AgainstStore filters items that already exist (exact key) or that are too
// similar to a same-date record in the window. Accepted items join the key
// set immediately so later batch entries cannot collide with them.
//
// On a store failure the engine fails open and returns all items: ingestion
// completeness wins over strict dedup under an outage.
func (e *Engine) AgainstStore(ctx context.Context, items []models.Content) []models.Content {
	if len(items) == 0 {
		return items
	}

	existing, err := e.store.RecentWindow(ctx, time.Now().Add(-e.window))
	if err != nil {
		e.log.Warn("dedup window fetch failed, passing batch through",
			logger.Error(err), logger.Int("items", len(items)))
		return items
	}

	keys := make(map[string]struct{}, len(existing))
	byDate := make(map[string][]string)
	for _, ev := range existing {
		keys[Key(ev.Title, ev.EventDate)] = struct{}{}
		byDate[ev.EventDate] = append(byDate[ev.EventDate], ev.Title)
	}

	out := make([]models.Content, 0, len(items))
	for _, item := range items {
		k := Key(item.Title, item.EventDate)
		if _, dup := keys[k]; dup {
			continue
		}

		similar := false
		for _, title := range byDate[item.EventDate] {
			if Similarity(item.Title, title) > SimilarityThreshold {
				similar = true
				break
			}
		}
		if similar {
			continue
		}

		keys[k] = struct{}{}
		byDate[item.EventDate] = append(byDate[item.EventDate], item.Title)
		out = append(out, item)
	}

	if filtered := len(items) - len(out); filtered > 0 {
		e.log.Info("filtered duplicate items",
			logger.Int("filtered", filtered), logger.Int("incoming", len(items)))
	}
	return out
}
