// Package affiliate rewrites outbound URLs into commission-tracked links.
// Monetization never blocks delivery: any failure returns the original URL.
package affiliate

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/venuz/ingest/internal/cache"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

// CacheTTL bounds how long a resolved (or missing) rule is reused before the
// store is consulted again.
const CacheTTL = 15 * time.Minute

const affiliateIDPlaceholder = "{aff_id}"

// RuleStore is the persistence surface the transformer needs.
type RuleStore interface {
	ActiveRule(ctx context.Context, domain string) (*models.AffiliateRule, error)
	Activate(ctx context.Context, domain string) (int, error)
}

// cached is the per-domain resolution. A nil rule is a cached negative.
type cached struct {
	rule *models.AffiliateRule
}

// Transformer resolves affiliate rules per domain with an in-memory cache.
type Transformer struct {
	store RuleStore
	cache *cache.TTL[cached]
	log   logger.Logger
}

func NewTransformer(store RuleStore, log logger.Logger) *Transformer {
	return &Transformer{
		store: store,
		cache: cache.NewTTL[cached](CacheTTL),
		log:   log,
	}
}

// Transform rewrites originalURL using the active rule for its domain. When
// no rule exists, the rule is inactive, or anything errors, the original URL
// comes back unchanged.
func (t *Transformer) Transform(ctx context.Context, originalURL string) (tracked string, source string) {
	domain := extractDomain(originalURL)
	if domain == "" {
		return originalURL, ""
	}

	if hit, ok := t.cache.Get(domain); ok {
		return t.apply(hit.rule, originalURL)
	}

	rule, err := t.store.ActiveRule(ctx, domain)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			t.cache.Set(domain, cached{})
			return originalURL, ""
		}
		t.log.Warn("affiliate rule lookup failed",
			logger.String("domain", domain),
			logger.Error(err),
		)
		return originalURL, ""
	}

	t.cache.Set(domain, cached{rule: rule})
	return t.apply(rule, originalURL)
}

func (t *Transformer) apply(rule *models.AffiliateRule, originalURL string) (string, string) {
	if rule == nil || !rule.Active || rule.TemplateURL == "" {
		return originalURL, ""
	}
	tracked := strings.ReplaceAll(rule.TemplateURL, affiliateIDPlaceholder, rule.AffiliateID)
	return tracked, rule.Domain
}

// ActivateAll flips rules active, for every domain when domain is empty, and
// drops the whole cache so the next lookups see fresh state.
func (t *Transformer) ActivateAll(ctx context.Context, domain string) (int, error) {
	n, err := t.store.Activate(ctx, domain)
	if err != nil {
		return 0, err
	}
	t.cache.Clear()
	return n, nil
}

// InvalidateCache drops all cached resolutions.
func (t *Transformer) InvalidateCache() {
	t.cache.Clear()
}

func extractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
