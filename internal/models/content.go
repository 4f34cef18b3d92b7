// Package models defines the canonical content record and related entities
// shared by connectors, normalizers and the content store.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Category is the closed set of internal content categories. Mappers are
// total: unmapped input falls back to CategoryFallback, never an empty value.
type Category string

const (
	CategoryNightlife   Category = "nightlife"
	CategoryFood        Category = "food"
	CategoryHospitality Category = "hospitality"
	CategoryMedical     Category = "medical"
	CategoryTransport   Category = "transport"
	CategoryCulture     Category = "culture"
	CategoryEvent       Category = "event"
	CategoryAdult       Category = "adult"
	CategoryWebcam      Category = "webcam"
	CategoryClub        Category = "club"
	CategoryBar         Category = "bar"
	CategoryMasaje      Category = "masaje"
)

// CategoryFallback is returned when nothing in the input text matches.
const CategoryFallback = CategoryCulture

// Valid reports whether c is one of the closed enum values.
func (c Category) Valid() bool {
	switch c {
	case CategoryNightlife, CategoryFood, CategoryHospitality, CategoryMedical,
		CategoryTransport, CategoryCulture, CategoryEvent, CategoryAdult,
		CategoryWebcam, CategoryClub, CategoryBar, CategoryMasaje:
		return true
	}
	return false
}

// ItemType marks records that receive ranking boosts.
type ItemType string

const (
	ItemTypeNone  ItemType = ""
	ItemTypeAlert ItemType = "alert"
	ItemTypeDeal  ItemType = "deal"
	ItemTypeClub  ItemType = "club"
)

// Content is the canonical unit flowing through the pipeline. source_url is
// the unique upsert key; re-ingesting the same URL updates the existing row.
type Content struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description,omitempty"`
	Category     Category       `db:"category" json:"category"`
	Subcategory  string         `db:"subcategory" json:"subcategory,omitempty"`
	Type         ItemType       `db:"item_type" json:"type,omitempty"`
	LocationText string         `db:"location_text" json:"location_text,omitempty"`
	Latitude     float64        `db:"latitude" json:"latitude,omitempty"`
	Longitude    float64        `db:"longitude" json:"longitude,omitempty"`
	ImageURL     string         `db:"image_url" json:"image_url,omitempty"`
	Images       pq.StringArray `db:"images" json:"images,omitempty"`
	Rating       float64        `db:"rating" json:"rating,omitempty"`
	ReviewsCount int            `db:"reviews_count" json:"reviews_count,omitempty"`
	Tags         pq.StringArray `db:"tags" json:"tags,omitempty"`

	// Provider business signals, consumed by metadata tagging during
	// enrichment rather than persisted. 1=cheap, 4=expensive.
	PriceLevel int  `db:"-" json:"price_level,omitempty"`
	IsOpenNow  bool `db:"-" json:"is_open_now,omitempty"`

	SourceSite  string            `db:"source_site" json:"source_site"`
	SourceURL   string            `db:"source_url" json:"source_url"`
	ExternalIDs map[string]string `db:"-" json:"external_ids,omitempty"`
	EventDate   string            `db:"event_date" json:"event_date,omitempty"`
	EventTime   string            `db:"event_time" json:"event_time,omitempty"`

	AffiliateURL    string `db:"affiliate_url" json:"affiliate_url,omitempty"`
	AffiliateSource string `db:"affiliate_source" json:"affiliate_source,omitempty"`

	IsVerified bool `db:"is_verified" json:"is_verified"`
	IsPremium  bool `db:"is_premium" json:"is_premium"`
	Active     bool `db:"active" json:"active"`

	QualityScore int     `db:"quality_score" json:"quality_score"`
	RankScore    float64 `db:"rank_score" json:"rank_score"`

	ScrapedAt time.Time `db:"scraped_at" json:"scraped_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StoredEvent is the slim projection of an existing row used by the
// deduplication window (title + event date is all the engine compares).
type StoredEvent struct {
	Title     string `db:"title"`
	EventDate string `db:"event_date"`
}

// AffiliateRule rewrites outbound links for one domain into a
// commission-tracked URL. TemplateURL carries an {aff_id} placeholder.
type AffiliateRule struct {
	ID          uuid.UUID `db:"id"`
	Domain      string    `db:"domain"`
	AffiliateID string    `db:"affiliate_id"`
	TemplateURL string    `db:"template_url"`
	Active      bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// Keyword is one entry of the priority-tiered vocabulary. Tier 1 is the most
// important, tier 4 the least.
type Keyword struct {
	Keyword  string `db:"keyword"`
	Priority int    `db:"priority"`
	Category string `db:"category"`
}

// ParsedDate is the result of parsing a loose Spanish date string.
type ParsedDate struct {
	Date string // YYYY-MM-DD
	Time string // HH:MM:SS, empty when the source had no time component
}
