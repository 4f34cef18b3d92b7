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

const eventbriteBaseURL = "https://www.eventbriteapi.com/v3"

// Eventbrite searches the event search API around the configured point.
type Eventbrite struct {
	token  string
	params SearchParams
	client *httpx.Client
	log    logger.Logger
	now    func() time.Time
}

func NewEventbrite(token string, params SearchParams, client *httpx.Client, log logger.Logger) *Eventbrite {
	return &Eventbrite{token: token, params: params, client: client, log: log, now: time.Now}
}

func (e *Eventbrite) Name() string { return "eventbrite" }

type eventbriteResponse struct {
	Events []eventbriteEvent `json:"events"`
}

type eventbriteEvent struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name struct {
		Text string `json:"text"`
	} `json:"name"`
	Description struct {
		Text string `json:"text"`
	} `json:"description"`
	Logo struct {
		URL      string `json:"url"`
		Original struct {
			URL string `json:"url"`
		} `json:"original"`
	} `json:"logo"`
	Start struct {
		UTC string `json:"utc"`
	} `json:"start"`
	Category struct {
		Name string `json:"name"`
	} `json:"category"`
	Venue struct {
		Name      string `json:"name"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"venue"`
}

func (e *Eventbrite) Fetch(ctx context.Context) ([]*models.Content, error) {
	if e.token == "" {
		e.log.Warn("eventbrite token missing, skipping connector")
		return nil, nil
	}

	q := url.Values{}
	q.Set("location.latitude", fmt.Sprintf("%f", e.params.Latitude))
	q.Set("location.longitude", fmt.Sprintf("%f", e.params.Longitude))
	q.Set("location.within", fmt.Sprintf("%dkm", e.params.RadiusMeters/1000))
	q.Set("expand", "venue,category")
	q.Set("sort_by", "date")
	if e.params.Query != "" {
		q.Set("q", e.params.Query)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+e.token)

	var resp eventbriteResponse
	endpoint := eventbriteBaseURL + "/events/search/?" + q.Encode()
	if err := e.client.GetJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, err
	}

	items := make([]*models.Content, 0, len(resp.Events))
	for i := range resp.Events {
		items = append(items, e.normalize(&resp.Events[i]))
	}
	return items, nil
}

func (e *Eventbrite) normalize(event *eventbriteEvent) *models.Content {
	title := event.Name.Text
	if title == "" {
		title = "Evento sin título"
	}

	imageURL := event.Logo.Original.URL
	if imageURL == "" {
		imageURL = event.Logo.URL
	}
	if imageURL == "" {
		imageURL = normalize.Placeholder(models.CategoryEvent)
	}

	subcategory := event.Category.Name
	if subcategory == "" {
		subcategory = "general"
	}

	location := event.Venue.Name
	if location == "" {
		location = "Ubicación por confirmar"
	}

	item := &models.Content{
		Title:           title,
		Description:     event.Description.Text,
		Category:        models.CategoryEvent,
		Subcategory:     subcategory,
		LocationText:    location,
		Latitude:        parseCoord(event.Venue.Latitude),
		Longitude:       parseCoord(event.Venue.Longitude),
		ImageURL:        imageURL,
		SourceSite:      e.Name(),
		SourceURL:       event.URL,
		ExternalIDs:     map[string]string{e.Name(): event.ID},
		AffiliateURL:    event.URL,
		AffiliateSource: e.Name(),
		IsVerified:      true,
		Active:          true,
		ScrapedAt:       e.now(),
	}
	if ts, err := time.Parse(time.RFC3339, event.Start.UTC); err == nil {
		item.EventDate = ts.Format("2006-01-02")
		item.EventTime = ts.Format("15:04:05")
	}
	return item
}

func parseCoord(s string) float64 {
	var v float64
	fmt.Sscanf(s, "%f", &v) //nolint:errcheck
	return v
}
