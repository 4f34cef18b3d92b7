package keywords

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuz/ingest/internal/cache"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

func testVocabulary() []models.Keyword {
	return []models.Keyword{
		{Keyword: "feria patronal", Priority: TierVeryHigh, Category: "fiesta"},
		{Keyword: "kermés", Priority: TierHigh, Category: "fiesta"},
		{Keyword: "concierto", Priority: TierMedium, Category: "evento"},
		{Keyword: "exposición", Priority: TierLow, Category: "evento"},
	}
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher(testVocabulary())

	t.Run("returns lowest tier among matches", func(t *testing.T) {
		res := m.Match("gran concierto durante la feria patronal del pueblo")
		assert.Equal(t, TierVeryHigh, res.Priority)
		assert.ElementsMatch(t, []string{"feria patronal", "concierto"}, res.Matched)
	})

	t.Run("case insensitive", func(t *testing.T) {
		res := m.Match("KERMÉS en la plaza")
		require.True(t, res.HasKeywords())
		assert.Equal(t, TierHigh, res.Priority)
	})

	t.Run("no match defaults to medium tier", func(t *testing.T) {
		res := m.Match("torneo de ajedrez municipal")
		assert.False(t, res.HasKeywords())
		assert.Equal(t, DefaultPriority, res.Priority)
	})

	t.Run("empty text", func(t *testing.T) {
		res := m.Match("")
		assert.False(t, res.HasKeywords())
		assert.Equal(t, DefaultPriority, res.Priority)
	})
}

func TestMatcher_EmptyVocabulary(t *testing.T) {
	m := NewMatcher(nil)
	res := m.Match("concierto")
	assert.False(t, res.HasKeywords())
	assert.Equal(t, DefaultPriority, res.Priority)
}

func TestShouldInclude(t *testing.T) {
	tests := []struct {
		priority    int
		hasKeywords bool
		want        bool
	}{
		{TierVeryHigh, false, true},
		{TierVeryHigh, true, true},
		{TierHigh, false, true},
		{TierMedium, true, true},
		{TierMedium, false, false},
		{TierLow, true, false},
		{TierLow, false, false},
	}
	for _, tt := range tests {
		got := ShouldInclude(tt.priority, tt.hasKeywords)
		assert.Equal(t, tt.want, got, "priority %d hasKeywords %v", tt.priority, tt.hasKeywords)
	}
}

type stubKeywordStore struct {
	vocab []models.Keyword
	err   error
	calls int
}

func (s *stubKeywordStore) All(context.Context) ([]models.Keyword, error) {
	s.calls++
	return s.vocab, s.err
}

func TestLoader_CachesVocabulary(t *testing.T) {
	store := &stubKeywordStore{vocab: testVocabulary()}
	loader := NewLoader(store, cache.NewTTL[*Matcher](CacheTTL), logger.NewNop())

	first := loader.Matcher(context.Background())
	second := loader.Matcher(context.Background())

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.calls)
}

func TestLoader_InvalidateForcesReload(t *testing.T) {
	store := &stubKeywordStore{vocab: testVocabulary()}
	loader := NewLoader(store, cache.NewTTL[*Matcher](CacheTTL), logger.NewNop())

	loader.Matcher(context.Background())
	loader.Invalidate()
	loader.Matcher(context.Background())

	assert.Equal(t, 2, store.calls)
}

func TestLoader_FallsBackWhenStoreFails(t *testing.T) {
	store := &stubKeywordStore{err: errors.New("connection refused")}
	loader := NewLoader(store, cache.NewTTL[*Matcher](CacheTTL), logger.NewNop())

	m := loader.Matcher(context.Background())

	res := m.Match("carnaval en el malecón")
	require.True(t, res.HasKeywords())
	assert.Equal(t, TierVeryHigh, res.Priority)
}
