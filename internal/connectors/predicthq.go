package connectors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/venuz/ingest/internal/httpx"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
	"github.com/venuz/ingest/internal/normalize"
)

const (
	predictHQBaseURL = "https://api.predicthq.com/v1"

	// Party-relevant event categories.
	predictHQCategories = "concerts,festivals,performing-arts,sports"

	// Events ranked above this are flagged premium.
	predictHQPremiumRank = 60

	predictHQDefaultQuality = 50
)

// PredictHQ searches the events API around the configured point.
type PredictHQ struct {
	token  string
	params SearchParams
	client *httpx.Client
	log    logger.Logger
	now    func() time.Time
}

func NewPredictHQ(token string, params SearchParams, client *httpx.Client, log logger.Logger) *PredictHQ {
	return &PredictHQ{token: token, params: params, client: client, log: log, now: time.Now}
}

func (p *PredictHQ) Name() string { return "predicthq" }

type predictHQResponse struct {
	Results []predictHQEvent `json:"results"`
}

type predictHQEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Rank        int       `json:"rank"`
	Country     string    `json:"country"`
	Start       string    `json:"start"`
	Location    []float64 `json:"location"` // [lon, lat]
	Entities    []struct {
		Name string `json:"name"`
	} `json:"entities"`
}

func (p *PredictHQ) Fetch(ctx context.Context) ([]*models.Content, error) {
	if p.token == "" {
		p.log.Warn("predicthq token missing, skipping connector")
		return nil, nil
	}

	q := url.Values{}
	q.Set("category", predictHQCategories)
	q.Set("location_around.origin", fmt.Sprintf("%f,%f", p.params.Latitude, p.params.Longitude))
	q.Set("location_around.scale", fmt.Sprintf("%dkm", p.params.RadiusMeters/1000))
	q.Set("limit", "50")
	q.Set("sort", "start")
	if p.params.Query != "" {
		q.Set("q", p.params.Query)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.token)

	var resp predictHQResponse
	endpoint := predictHQBaseURL + "/events/?" + q.Encode()
	if err := p.client.GetJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, err
	}

	items := make([]*models.Content, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, p.normalize(&resp.Results[i]))
	}
	return items, nil
}

func (p *PredictHQ) normalize(event *predictHQEvent) *models.Content {
	description := event.Description
	if description == "" {
		description = fmt.Sprintf("Evento categoría: %s", event.Category)
	}

	location := event.Country
	if len(event.Entities) > 0 && event.Entities[0].Name != "" {
		location = event.Entities[0].Name
	}

	quality := event.Rank
	if quality == 0 {
		quality = predictHQDefaultQuality
	}

	item := &models.Content{
		Title:           event.Title,
		Description:     description,
		Category:        models.CategoryEvent,
		Subcategory:     event.Category,
		LocationText:    location,
		ImageURL:        normalize.Placeholder(models.CategoryEvent),
		SourceSite:      p.Name(),
		SourceURL:       "https://www.predicthq.com/events/" + event.ID,
		ExternalIDs:     map[string]string{p.Name(): event.ID},
		AffiliateSource: p.Name(),
		IsVerified:      true,
		IsPremium:       event.Rank > predictHQPremiumRank,
		Active:          true,
		QualityScore:    quality,
		ScrapedAt:       p.now(),
	}
	if len(event.Location) == 2 {
		item.Longitude = event.Location[0]
		item.Latitude = event.Location[1]
	}
	if ts, err := time.Parse(time.RFC3339, event.Start); err == nil {
		item.EventDate = ts.Format("2006-01-02")
		item.EventTime = ts.Format("15:04:05")
	}
	return item
}
