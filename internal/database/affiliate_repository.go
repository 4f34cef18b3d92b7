package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/venuz/ingest/internal/models"
)

// AffiliateRepository stores per-domain affiliate rules.
type AffiliateRepository struct {
	db *sqlx.DB
}

// NewAffiliateRepository creates a repository over the given connection.
func NewAffiliateRepository(db *sqlx.DB) *AffiliateRepository {
	return &AffiliateRepository{db: db}
}

// ActiveRule returns the active rule for a domain, or models.ErrNotFound.
func (r *AffiliateRepository) ActiveRule(ctx context.Context, domain string) (*models.AffiliateRule, error) {
	rule := &models.AffiliateRule{}
	query := `
		SELECT id, domain, affiliate_id, template_url, is_active, created_at
		FROM affiliate_rules
		WHERE domain = $1 AND is_active = TRUE
	`
	if err := r.db.GetContext(ctx, rule, query, domain); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get affiliate rule: %w", err)
	}
	return rule, nil
}

// Activate flips rules active. With an empty domain every rule is activated.
func (r *AffiliateRepository) Activate(ctx context.Context, domain string) (int, error) {
	var res sql.Result
	var err error
	if domain != "" {
		res, err = r.db.ExecContext(ctx, `UPDATE affiliate_rules SET is_active = TRUE WHERE domain = $1`, domain)
	} else {
		res, err = r.db.ExecContext(ctx, `UPDATE affiliate_rules SET is_active = TRUE`)
	}
	if err != nil {
		return 0, fmt.Errorf("activate affiliate rules: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
