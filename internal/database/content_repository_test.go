package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuz/ingest/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestBulkUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch does nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		n, err := repo.BulkUpsert(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("single item insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		mock.ExpectExec(`INSERT INTO content .+ ON CONFLICT \(source_url\) DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.BulkUpsert(ctx, []models.Content{{
			Title:     "Club Mandala Centro",
			Category:  models.CategoryNightlife,
			SourceURL: "https://a.example/1",
			ScrapedAt: time.Now(),
		}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("batch reports affected rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		mock.ExpectExec(`INSERT INTO content`).WillReturnResult(sqlmock.NewResult(0, 3))

		items := []models.Content{
			{Title: "A", SourceURL: "https://a.example/1"},
			{Title: "B", SourceURL: "https://a.example/2"},
			{Title: "C", SourceURL: "https://a.example/3"},
		}
		n, err := repo.BulkUpsert(ctx, items)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("exec failure surfaces", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		mock.ExpectExec(`INSERT INTO content`).WillReturnError(errors.New("deadlock detected"))

		_, err := repo.BulkUpsert(ctx, []models.Content{{SourceURL: "https://a.example/1"}})
		assert.ErrorContains(t, err, "bulk upsert content")
	})
}

func TestRecentWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("returns projection", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		since := time.Now().Add(-48 * time.Hour)
		mock.ExpectQuery(`SELECT title, event_date FROM content WHERE created_at >= \$1 AND event_date <> ''`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"title", "event_date"}).
				AddRow("Festival del Tequila", "2026-03-15").
				AddRow("Noche de Salsa", "2026-03-16"))

		events, err := repo.RecentWindow(ctx, since)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "Festival del Tequila", events[0].Title)
		assert.Equal(t, "2026-03-15", events[0].EventDate)
	})

	t.Run("query failure surfaces", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		mock.ExpectQuery(`SELECT title, event_date`).WillReturnError(errors.New("timeout"))

		_, err := repo.RecentWindow(ctx, time.Now())
		assert.ErrorContains(t, err, "fetch recent window")
	})
}

func TestGetBySourceURL(t *testing.T) {
	ctx := context.Background()

	t.Run("missing row maps to not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewContentRepository(db)

		mock.ExpectQuery(`SELECT .+ FROM content\s+WHERE source_url =`).
			WithArgs("https://a.example/404").
			WillReturnRows(sqlmock.NewRows([]string{"title"}))

		_, err := repo.GetBySourceURL(ctx, "https://a.example/404")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
