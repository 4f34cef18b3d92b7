// Package ranking assigns feed scores to ingested content. Fresh items start
// high and decay by the hour, promotional types get fixed boosts, and a small
// random component keeps the feed from going stale.
package ranking

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/venuz/ingest/internal/models"
)

const (
	baseScore        = 100.0
	recencyCeiling   = 500.0
	decayPerHour     = 10.0
	hotTagBoost      = 250.0
	alertBoost       = 300.0
	dealBoost        = 400.0
	premiumClubBoost = 50.0
	explorationSpan  = 50
)

var hotTags = map[string]struct{}{
	"oferta":        {},
	"descuento":     {},
	"real-time":     {},
	"trending":      {},
	"promo":         {},
	"high-priority": {},
	"exclusive":     {},
}

// Engine scores content. Construct with New; the zero value panics.
type Engine struct {
	rng *rand.Rand
	now func() time.Time
}

// New builds an Engine seeded from the clock.
func New() *Engine {
	return &Engine{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// NewSeeded builds a deterministic Engine for tests.
func NewSeeded(seed int64, now func() time.Time) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed)), now: now}
}

// Score computes the rank score for one item. ScrapedAt in the future counts
// as zero hours old.
func (e *Engine) Score(item *models.Content) float64 {
	score := baseScore

	scrapedAt := item.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = e.now()
	}
	hoursOld := e.now().Sub(scrapedAt).Hours()
	if hoursOld < 0 {
		hoursOld = 0
	}
	score += math.Max(0, recencyCeiling-hoursOld*decayPerHour)

	for _, tag := range item.Tags {
		if _, hot := hotTags[strings.ToLower(tag)]; hot {
			score += hotTagBoost
			break
		}
	}

	switch item.Type {
	case models.ItemTypeAlert:
		score += alertBoost
	case models.ItemTypeDeal:
		score += dealBoost
	case models.ItemTypeClub:
		if strings.Contains(item.Description, "$$") {
			score += premiumClubBoost
		}
	}

	score += float64(e.rng.Intn(explorationSpan))
	return math.Floor(score)
}

// ScoreAll stamps rank scores on a batch in place.
func (e *Engine) ScoreAll(items []*models.Content) {
	for _, item := range items {
		item.RankScore = e.Score(item)
	}
}
