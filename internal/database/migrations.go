package database

import (
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_content_table",
		Up: `
			CREATE TABLE IF NOT EXISTS content (
				id UUID PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category TEXT NOT NULL,
				subcategory TEXT NOT NULL DEFAULT '',
				item_type TEXT NOT NULL DEFAULT '',
				location_text TEXT NOT NULL DEFAULT '',
				latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
				longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
				image_url TEXT NOT NULL DEFAULT '',
				images TEXT[] NOT NULL DEFAULT '{}',
				rating DOUBLE PRECISION NOT NULL DEFAULT 0,
				reviews_count INTEGER NOT NULL DEFAULT 0,
				tags TEXT[] NOT NULL DEFAULT '{}',
				source_site TEXT NOT NULL,
				source_url TEXT NOT NULL UNIQUE,
				external_ids JSONB NOT NULL DEFAULT '{}',
				event_date TEXT NOT NULL DEFAULT '',
				event_time TEXT NOT NULL DEFAULT '',
				affiliate_url TEXT NOT NULL DEFAULT '',
				affiliate_source TEXT NOT NULL DEFAULT '',
				is_verified BOOLEAN NOT NULL DEFAULT FALSE,
				is_premium BOOLEAN NOT NULL DEFAULT FALSE,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				quality_score INTEGER NOT NULL DEFAULT 0,
				rank_score DOUBLE PRECISION NOT NULL DEFAULT 0,
				scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_content_created_at ON content(created_at);
			CREATE INDEX IF NOT EXISTS idx_content_category_rank ON content(category, rank_score DESC) WHERE active;
		`,
	},
	{
		Version: 2,
		Name:    "create_affiliate_rules_table",
		Up: `
			CREATE TABLE IF NOT EXISTS affiliate_rules (
				id UUID PRIMARY KEY,
				domain TEXT NOT NULL UNIQUE,
				affiliate_id TEXT NOT NULL DEFAULT '',
				template_url TEXT NOT NULL DEFAULT '',
				is_active BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		Version: 3,
		Name:    "create_keywords_table",
		Up: `
			CREATE TABLE IF NOT EXISTS keywords (
				keyword TEXT PRIMARY KEY,
				priority INTEGER NOT NULL DEFAULT 3,
				category TEXT NOT NULL DEFAULT 'evento'
			);
		`,
	},
}

// Migrate applies pending migrations in version order.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		);
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if m.Version <= current {
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err = tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("run migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err = tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
