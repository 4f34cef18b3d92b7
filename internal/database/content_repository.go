package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/venuz/ingest/internal/models"
)

// ContentRepository persists canonical content records. The pipeline's only
// write path is an upsert keyed on the source_url unique constraint.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a repository over the given connection.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

const contentColumns = `id, title, description, category, subcategory, item_type,
	location_text, latitude, longitude, image_url, images, rating, reviews_count,
	tags, source_site, source_url, external_ids, event_date, event_time,
	affiliate_url, affiliate_source, is_verified, is_premium, active,
	quality_score, rank_score, scraped_at, created_at`

const contentFieldCount = 28

// BulkUpsert inserts all items in one statement; rows whose source_url
// already exists are updated in place. Returns the number of rows written.
func (r *ContentRepository) BulkUpsert(ctx context.Context, items []models.Content) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*contentFieldCount)

	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		extIDs, err := json.Marshal(orEmptyMap(item.ExternalIDs))
		if err != nil {
			return 0, fmt.Errorf("marshal external ids for %q: %w", item.SourceURL, err)
		}

		base := i * contentFieldCount
		ph := make([]string, contentFieldCount)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")

		args = append(args,
			item.ID, item.Title, item.Description, item.Category, item.Subcategory, item.Type,
			item.LocationText, item.Latitude, item.Longitude, item.ImageURL, item.Images,
			item.Rating, item.ReviewsCount, item.Tags, item.SourceSite, item.SourceURL,
			extIDs, item.EventDate, item.EventTime, item.AffiliateURL, item.AffiliateSource,
			item.IsVerified, item.IsPremium, item.Active, item.QualityScore, item.RankScore,
			item.ScrapedAt, item.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO content (%s)
		VALUES %s
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			item_type = EXCLUDED.item_type,
			location_text = EXCLUDED.location_text,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			image_url = EXCLUDED.image_url,
			images = EXCLUDED.images,
			rating = EXCLUDED.rating,
			reviews_count = EXCLUDED.reviews_count,
			tags = EXCLUDED.tags,
			external_ids = EXCLUDED.external_ids,
			event_date = EXCLUDED.event_date,
			event_time = EXCLUDED.event_time,
			affiliate_url = EXCLUDED.affiliate_url,
			affiliate_source = EXCLUDED.affiliate_source,
			quality_score = EXCLUDED.quality_score,
			rank_score = EXCLUDED.rank_score,
			scraped_at = EXCLUDED.scraped_at
	`, contentColumns, strings.Join(placeholders, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk upsert content: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(items), nil //nolint:nilerr // driver without RowsAffected support
	}
	return int(n), nil
}

// RecentWindow returns the title/event_date projection of event rows created
// since the given time. Only dated rows participate: the window feeds the
// scraped-event dedup pass, and place records with no date would collide on
// name alone. Inactive rows are included on purpose: they still count for
// deduplication history.
func (r *ContentRepository) RecentWindow(ctx context.Context, since time.Time) ([]models.StoredEvent, error) {
	events := []models.StoredEvent{}
	query := `SELECT title, event_date FROM content WHERE created_at >= $1 AND event_date <> ''`
	if err := r.db.SelectContext(ctx, &events, query, since); err != nil {
		return nil, fmt.Errorf("fetch recent window: %w", err)
	}
	return events, nil
}

// ActiveByCategory returns the top-ranked active rows for one category. This
// is the feed-serving collaborator's read path.
func (r *ContentRepository) ActiveByCategory(ctx context.Context, category models.Category, limit int) ([]models.Content, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryxContext(ctx, `
		SELECT `+contentColumns+`
		FROM content
		WHERE active = TRUE AND category = $1
		ORDER BY rank_score DESC
		LIMIT $2
	`, category, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch active content: %w", err)
	}
	defer rows.Close()

	var items []models.Content
	for rows.Next() {
		item, scanErr := scanContent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetBySourceURL returns one record by its unique key.
func (r *ContentRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*models.Content, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT `+contentColumns+`
		FROM content
		WHERE source_url = $1
	`, sourceURL)
	item, err := scanContent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.Content, error) {
	var item models.Content
	var extIDs []byte
	err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.Category, &item.Subcategory, &item.Type,
		&item.LocationText, &item.Latitude, &item.Longitude, &item.ImageURL, &item.Images,
		&item.Rating, &item.ReviewsCount, &item.Tags, &item.SourceSite, &item.SourceURL,
		&extIDs, &item.EventDate, &item.EventTime, &item.AffiliateURL, &item.AffiliateSource,
		&item.IsVerified, &item.IsPremium, &item.Active, &item.QualityScore, &item.RankScore,
		&item.ScrapedAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(extIDs) > 0 {
		if jsonErr := json.Unmarshal(extIDs, &item.ExternalIDs); jsonErr != nil {
			return nil, fmt.Errorf("unmarshal external ids: %w", jsonErr)
		}
	}
	return &item, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
