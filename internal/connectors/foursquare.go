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
	foursquareBaseURL = "https://api.foursquare.com/v3"

	// Nightlife, Entertainment, Bar category IDs.
	foursquareCategories = "10032,10000,13003"

	foursquareQuality = 70
)

// Foursquare searches the Places API v3 near the configured point.
type Foursquare struct {
	apiKey string
	params SearchParams
	client *httpx.Client
	log    logger.Logger
	now    func() time.Time
}

func NewFoursquare(apiKey string, params SearchParams, client *httpx.Client, log logger.Logger) *Foursquare {
	return &Foursquare{apiKey: apiKey, params: params, client: client, log: log, now: time.Now}
}

func (f *Foursquare) Name() string { return "foursquare" }

type foursquareResponse struct {
	Results []foursquarePlace `json:"results"`
}

type foursquarePlace struct {
	FsqID      string `json:"fsq_id"`
	Name       string `json:"name"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Location struct {
		Address          string `json:"address"`
		City             string `json:"locality"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Geocodes struct {
		Main struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
}

func (f *Foursquare) Fetch(ctx context.Context) ([]*models.Content, error) {
	if f.apiKey == "" {
		f.log.Warn("foursquare key missing, skipping connector")
		return nil, nil
	}

	q := url.Values{}
	q.Set("ll", fmt.Sprintf("%f,%f", f.params.Latitude, f.params.Longitude))
	q.Set("categories", foursquareCategories)
	q.Set("sort", "DISTANCE")
	q.Set("limit", "50")
	if f.params.Query != "" {
		q.Set("query", f.params.Query)
	}

	header := http.Header{}
	header.Set("Authorization", f.apiKey)

	var resp foursquareResponse
	endpoint := foursquareBaseURL + "/places/search?" + q.Encode()
	if err := f.client.GetJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, err
	}

	items := make([]*models.Content, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, f.normalize(&resp.Results[i]))
	}
	return items, nil
}

func (f *Foursquare) normalize(place *foursquarePlace) *models.Content {
	names := make([]string, 0, len(place.Categories))
	for _, c := range place.Categories {
		names = append(names, c.Name)
	}
	category := normalize.DetectFromFoursquare(append(names, place.Name))

	subcategory := string(category)
	if len(names) > 0 {
		subcategory = names[0]
	}

	city := place.Location.City
	if city == "" {
		city = "México"
	}
	description := place.Location.FormattedAddress
	if description == "" {
		description = fmt.Sprintf("Sitio en %s", city)
	}

	return &models.Content{
		Title:        place.Name,
		Description:  description,
		Category:     category,
		Subcategory:  subcategory,
		LocationText: city,
		Latitude:     place.Geocodes.Main.Latitude,
		Longitude:    place.Geocodes.Main.Longitude,
		// photo lookups are a separate call, fall back to the stock image
		ImageURL:     normalize.Placeholder(category),
		SourceSite:   f.Name(),
		SourceURL:    "https://foursquare.com/v/" + place.FsqID,
		ExternalIDs:  map[string]string{f.Name(): place.FsqID},
		IsVerified:   true,
		Active:       true,
		QualityScore: foursquareQuality,
		ScrapedAt:    f.now(),
	}
}
