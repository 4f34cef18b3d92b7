package keywords

import (
	"context"
	"time"

	"github.com/venuz/ingest/internal/cache"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

// CacheTTL is how long a loaded vocabulary is reused before the store is
// queried again.
const CacheTTL = time.Hour

const cacheKey = "vocabulary"

// Store is the persistence collaborator the vocabulary is loaded from.
type Store interface {
	All(ctx context.Context) ([]models.Keyword, error)
}

// Loader serves a Matcher from the store with a TTL cache and a static
// fallback vocabulary used when the store is unreachable.
type Loader struct {
	store Store
	cache *cache.TTL[*Matcher]
	log   logger.Logger
}

// NewLoader builds a loader. The cache is injected so tests can control
// expiry.
func NewLoader(store Store, c *cache.TTL[*Matcher], log logger.Logger) *Loader {
	if c == nil {
		c = cache.NewTTL[*Matcher](CacheTTL)
	}
	return &Loader{store: store, cache: c, log: log}
}

// Matcher returns the current vocabulary matcher. Store failures degrade to
// the static fallback table rather than propagating the error.
func (l *Loader) Matcher(ctx context.Context) *Matcher {
	if m, ok := l.cache.Get(cacheKey); ok {
		return m
	}

	vocab, err := l.store.All(ctx)
	if err != nil || len(vocab) == 0 {
		if err != nil {
			l.log.Warn("keyword store unavailable, using fallback vocabulary", logger.Error(err))
		}
		return NewMatcher(FallbackVocabulary())
	}

	m := NewMatcher(vocab)
	l.cache.Set(cacheKey, m)
	return m
}

// Invalidate drops the cached vocabulary so the next call reloads.
func (l *Loader) Invalidate() {
	l.cache.Delete(cacheKey)
}

// FallbackVocabulary is the built-in keyword table used when the store is
// unreachable.
func FallbackVocabulary() []models.Keyword {
	tiers := map[int][]string{
		TierVeryHigh: {
			"feria patronal", "carnaval", "palenque", "charreada",
			"concierto masivo", "jaripeo", "rodeo", "festival música",
		},
		TierHigh: {
			"fiesta pueblo", "vaquería", "morisma", "romería",
			"procesión", "peregrinación", "feria regional", "kermés",
		},
		TierMedium: {
			"concierto", "festival", "evento cultural", "celebración",
			"baile popular", "verbena", "serenata",
		},
		TierLow: {
			"exposición", "conferencia", "taller", "curso",
			"museo", "biblioteca", "lectura", "seminario",
		},
	}

	var vocab []models.Keyword
	for tier := TierVeryHigh; tier <= TierLow; tier++ {
		category := "evento"
		if tier <= TierHigh {
			category = "fiesta"
		}
		for _, term := range tiers[tier] {
			vocab = append(vocab, models.Keyword{Keyword: term, Priority: tier, Category: category})
		}
	}
	return vocab
}
