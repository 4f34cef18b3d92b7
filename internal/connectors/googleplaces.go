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

const googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"

// GooglePlaces searches the Places Nearby API for nightlife venues.
type GooglePlaces struct {
	apiKey string
	params SearchParams
	client *httpx.Client
	log    logger.Logger
	now    func() time.Time
}

func NewGooglePlaces(apiKey string, params SearchParams, client *httpx.Client, log logger.Logger) *GooglePlaces {
	return &GooglePlaces{apiKey: apiKey, params: params, client: client, log: log, now: time.Now}
}

func (g *GooglePlaces) Name() string { return "google_places" }

type googleNearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []googlePlace `json:"results"`
}

type googlePlace struct {
	PlaceID      string                     `json:"place_id"`
	Name         string                     `json:"name"`
	Vicinity     string                     `json:"vicinity"`
	Types        []string                   `json:"types"`
	Rating       float64                    `json:"rating"`
	Ratings      int                        `json:"user_ratings_total"`
	PriceLevel   int                        `json:"price_level"`
	Photos       []normalize.GooglePhotoRef `json:"photos"`
	OpeningHours struct {
		OpenNow bool `json:"open_now"`
	} `json:"opening_hours"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (g *GooglePlaces) Fetch(ctx context.Context) ([]*models.Content, error) {
	if g.apiKey == "" {
		g.log.Warn("google places key missing, skipping connector")
		return nil, nil
	}

	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", g.params.Latitude, g.params.Longitude))
	q.Set("radius", fmt.Sprintf("%d", g.params.RadiusMeters))
	q.Set("type", "night_club|bar")
	q.Set("key", g.apiKey)

	var resp googleNearbyResponse
	endpoint := googlePlacesBaseURL + "/nearbysearch/json?" + q.Encode()
	if err := g.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google places status %s: %s", resp.Status, resp.ErrorMessage)
	}

	items := make([]*models.Content, 0, len(resp.Results))
	for i := range resp.Results {
		items = append(items, g.normalize(&resp.Results[i]))
	}
	return items, nil
}

func (g *GooglePlaces) normalize(place *googlePlace) *models.Content {
	category := normalize.DetectCategory(place.Types, place.Name, place.Vicinity)

	subcategory := string(category)
	if len(place.Types) > 0 {
		subcategory = place.Types[0]
	}

	description := place.Vicinity
	if description == "" {
		description = fmt.Sprintf("Sitio de %s", category)
	}

	photos := normalize.ProcessGooglePhotos(place.Photos, g.apiKey)

	item := &models.Content{
		Title:        place.Name,
		Description:  description,
		Category:     category,
		Subcategory:  subcategory,
		LocationText: place.Vicinity,
		Latitude:     place.Geometry.Location.Lat,
		Longitude:    place.Geometry.Location.Lng,
		ImageURL:     photos.Primary,
		Images:       append([]string{}, photos.Additional...),
		Rating:       place.Rating, // already on the 0-5 scale
		ReviewsCount: place.Ratings,
		PriceLevel:   place.PriceLevel,
		IsOpenNow:    place.OpeningHours.OpenNow,
		SourceSite:   g.Name(),
		SourceURL:    "https://www.google.com/maps/search/?api=1&query=Google&query_place_id=" + place.PlaceID,
		ExternalIDs:  map[string]string{g.Name(): place.PlaceID},
		IsVerified:   true,
		Active:       true,
		QualityScore: placeQualityScore(place.Rating),
		ScrapedAt:    g.now(),
	}
	if item.ImageURL == "" {
		item.ImageURL = normalize.Placeholder(category)
	}
	return item
}

// placeQualityScore maps a 0-5 rating onto 0-100, defaulting unrated venues
// to the middle of the scale.
func placeQualityScore(rating float64) int {
	if rating == 0 {
		rating = 3
	}
	return int(rating * 20)
}
