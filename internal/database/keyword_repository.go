package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/venuz/ingest/internal/models"
)

// KeywordRepository reads the priority-tiered keyword vocabulary.
type KeywordRepository struct {
	db *sqlx.DB
}

// NewKeywordRepository creates a repository over the given connection.
func NewKeywordRepository(db *sqlx.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

// All returns the full vocabulary.
func (r *KeywordRepository) All(ctx context.Context) ([]models.Keyword, error) {
	keywords := []models.Keyword{}
	query := `SELECT keyword, priority, category FROM keywords`
	if err := r.db.SelectContext(ctx, &keywords, query); err != nil {
		return nil, fmt.Errorf("fetch keywords: %w", err)
	}
	return keywords, nil
}
