package connectors

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/venuz/ingest/internal/httpx"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
	"github.com/venuz/ingest/internal/normalize"
)

const (
	bandsintownBaseURL = "https://rest.bandsintown.com"

	bandsintownQuality = 85
)

// defaultArtists are the touring acts tracked when no artist list is
// configured.
var defaultArtists = []string{
	"Bad Bunny", "Peso Pluma", "Karol G", "Grupo Firme", "Maluma",
}

// Bandsintown fetches upcoming shows per tracked artist and keeps only the
// ones playing in Mexico.
type Bandsintown struct {
	appID   string
	artists []string
	client  *httpx.Client
	log     logger.Logger
	now     func() time.Time
}

func NewBandsintown(appID string, artists []string, client *httpx.Client, log logger.Logger) *Bandsintown {
	if len(artists) == 0 {
		artists = defaultArtists
	}
	return &Bandsintown{appID: appID, artists: artists, client: client, log: log, now: time.Now}
}

func (b *Bandsintown) Name() string { return "bandsintown" }

type bandsintownEvent struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Datetime     string `json:"datetime"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	Venue        struct {
		Name      string `json:"name"`
		City      string `json:"city"`
		Region    string `json:"region"`
		Country   string `json:"country"`
		Location  string `json:"location"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"venue"`
}

func (b *Bandsintown) Fetch(ctx context.Context) ([]*models.Content, error) {
	if b.appID == "" {
		b.log.Warn("bandsintown app id missing, skipping connector")
		return nil, nil
	}

	var items []*models.Content
	for _, artist := range b.artists {
		events, err := b.fetchArtist(ctx, artist)
		if err != nil {
			// one artist failing should not sink the rest
			b.log.Warn("bandsintown artist fetch failed",
				logger.String("artist", artist),
				logger.Error(err),
			)
			continue
		}
		items = append(items, events...)
	}
	return items, nil
}

func (b *Bandsintown) fetchArtist(ctx context.Context, artist string) ([]*models.Content, error) {
	endpoint := fmt.Sprintf("%s/artists/%s/events?app_id=%s",
		bandsintownBaseURL, url.PathEscape(artist), url.QueryEscape(b.appID))

	var events []bandsintownEvent
	if err := b.client.GetJSON(ctx, endpoint, nil, &events); err != nil {
		return nil, err
	}

	var items []*models.Content
	for i := range events {
		event := &events[i]
		if event.Venue.Country != "Mexico" && event.Venue.Country != "MX" {
			continue
		}
		items = append(items, b.normalize(event, artist))
	}
	return items, nil
}

func (b *Bandsintown) normalize(event *bandsintownEvent, artist string) *models.Content {
	venue := event.Venue.Name
	if venue == "" {
		venue = "Concierto"
	}
	city := event.Venue.City
	if city == "" {
		city = "México"
	}

	description := event.Description
	if description == "" {
		description = fmt.Sprintf("Concierto de %s en %s.", artist, city)
	}

	imageURL := event.ThumbnailURL
	if imageURL == "" {
		imageURL = normalize.Placeholder(models.CategoryEvent)
	}

	item := &models.Content{
		Title:           fmt.Sprintf("%s @ %s", artist, venue),
		Description:     description,
		Category:        models.CategoryEvent,
		Subcategory:     "concierto",
		LocationText:    fmt.Sprintf("%s, %s", city, event.Venue.Region),
		Latitude:        parseCoord(event.Venue.Latitude),
		Longitude:       parseCoord(event.Venue.Longitude),
		ImageURL:        imageURL,
		SourceSite:      b.Name(),
		SourceURL:       event.URL,
		ExternalIDs:     map[string]string{b.Name(): event.ID},
		AffiliateURL:    event.URL,
		AffiliateSource: b.Name(),
		IsVerified:      true,
		IsPremium:       true,
		Active:          true,
		QualityScore:    bandsintownQuality,
		ScrapedAt:       b.now(),
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", event.Datetime); err == nil {
		item.EventDate = ts.Format("2006-01-02")
		item.EventTime = ts.Format("15:04:05")
	}
	return item
}
