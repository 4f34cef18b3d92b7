// Package keywords scores free text for topical relevance against a
// priority-tiered vocabulary. Tier 1 is the most important, tier 4 content
// is filtered out.
package keywords

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/venuz/ingest/internal/models"
)

// Priority tiers.
const (
	TierVeryHigh = 1
	TierHigh     = 2
	TierMedium   = 3
	TierLow      = 4
)

// DefaultPriority is assigned when no keyword matched.
const DefaultPriority = TierMedium

// Result is the outcome of matching one text.
type Result struct {
	Matched  []string
	Priority int
}

// HasKeywords reports whether anything matched.
func (r Result) HasKeywords() bool {
	return len(r.Matched) > 0
}

// Matcher finds vocabulary keywords in text with a single automaton pass.
type Matcher struct {
	automaton *ahocorasick.Matcher
	keywords  []models.Keyword
}

// NewMatcher builds a matcher over the given vocabulary. Keyword comparison
// is case-insensitive.
func NewMatcher(vocabulary []models.Keyword) *Matcher {
	normalized := make([]models.Keyword, 0, len(vocabulary))
	patterns := make([]string, 0, len(vocabulary))
	for _, kw := range vocabulary {
		term := strings.ToLower(strings.TrimSpace(kw.Keyword))
		if term == "" {
			continue
		}
		kw.Keyword = term
		normalized = append(normalized, kw)
		patterns = append(patterns, term)
	}

	m := &Matcher{keywords: normalized}
	if len(patterns) > 0 {
		m.automaton = ahocorasick.NewStringMatcher(patterns)
	}
	return m
}

// Match returns all keywords found in the text and the lowest (= most
// important) tier among them, defaulting to tier 3 with no matches.
func (m *Matcher) Match(text string) Result {
	res := Result{Priority: DefaultPriority}
	if m.automaton == nil || text == "" {
		return res
	}

	hits := m.automaton.Match([]byte(strings.ToLower(text)))
	if len(hits) == 0 {
		return res
	}

	lowest := TierLow + 1
	for _, idx := range hits {
		if idx < 0 || idx >= len(m.keywords) {
			continue
		}
		kw := m.keywords[idx]
		res.Matched = append(res.Matched, kw.Keyword)
		if kw.Priority < lowest {
			lowest = kw.Priority
		}
	}
	if len(res.Matched) > 0 {
		res.Priority = lowest
	}
	return res
}

// ShouldInclude is the inclusion policy: tiers 1-2 always pass, tier 3 needs
// at least one keyword match, tier 4 and below never pass.
func ShouldInclude(priority int, hasKeywords bool) bool {
	switch {
	case priority <= TierHigh:
		return true
	case priority == TierMedium:
		return hasKeywords
	default:
		return false
	}
}
