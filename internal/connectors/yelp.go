package connectors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/venuz/ingest/internal/httpx"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
	"github.com/venuz/ingest/internal/normalize"
)

const (
	yelpBaseURL = "https://api.yelp.com/v3"

	// Yelp caps the search radius at 40km.
	yelpMaxRadiusMeters = 40000

	yelpSearchCategories = "nightlife,bars,danceclubs"
)

// Yelp searches the Fusion business API. Yelp's rate limit is tight, so the
// shared client should be built with a low requests-per-minute ceiling.
type Yelp struct {
	apiKey string
	params SearchParams
	client *httpx.Client
	log    logger.Logger
	now    func() time.Time
}

func NewYelp(apiKey string, params SearchParams, client *httpx.Client, log logger.Logger) *Yelp {
	return &Yelp{apiKey: apiKey, params: params, client: client, log: log, now: time.Now}
}

func (y *Yelp) Name() string { return "yelp" }

type yelpResponse struct {
	Businesses []yelpBusiness `json:"businesses"`
}

type yelpBusiness struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Price       string  `json:"price"`
	Categories  []struct {
		Alias string `json:"alias"`
		Title string `json:"title"`
	} `json:"categories"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
	Location struct {
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
}

func (y *Yelp) Fetch(ctx context.Context) ([]*models.Content, error) {
	if y.apiKey == "" {
		y.log.Warn("yelp key missing, skipping connector")
		return nil, nil
	}

	radius := y.params.RadiusMeters
	if radius > yelpMaxRadiusMeters {
		radius = yelpMaxRadiusMeters
	}

	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%f", y.params.Latitude))
	q.Set("longitude", fmt.Sprintf("%f", y.params.Longitude))
	q.Set("radius", fmt.Sprintf("%d", radius))
	q.Set("categories", yelpSearchCategories)
	q.Set("limit", "50")
	q.Set("sort_by", "rating")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+y.apiKey)

	var resp yelpResponse
	endpoint := yelpBaseURL + "/businesses/search?" + q.Encode()
	if err := y.client.GetJSON(ctx, endpoint, header, &resp); err != nil {
		return nil, err
	}

	items := make([]*models.Content, 0, len(resp.Businesses))
	for i := range resp.Businesses {
		items = append(items, y.normalize(&resp.Businesses[i]))
	}
	return items, nil
}

func (y *Yelp) normalize(biz *yelpBusiness) *models.Content {
	aliases := make([]string, 0, len(biz.Categories))
	titles := make([]string, 0, len(biz.Categories))
	for _, c := range biz.Categories {
		aliases = append(aliases, c.Alias)
		titles = append(titles, c.Title)
	}
	category := normalize.DetectFromYelp(append(aliases, biz.Name))

	description := fmt.Sprintf("Rated %.1f/5 with %d reviews. %s",
		biz.Rating, biz.ReviewCount, strings.Join(titles, ", "))

	imageURL := normalize.YelpPhotoURL(biz.ImageURL)
	if imageURL == "" {
		imageURL = normalize.Placeholder(category)
	}

	item := &models.Content{
		Title:        biz.Name,
		Description:  description,
		Category:     category,
		LocationText: strings.Join(biz.Location.DisplayAddress, ", "),
		Latitude:     biz.Coordinates.Latitude,
		Longitude:    biz.Coordinates.Longitude,
		ImageURL:     imageURL,
		Rating:       biz.Rating, // Yelp is already on the 0-5 scale
		ReviewsCount: biz.ReviewCount,
		PriceLevel:   len(biz.Price), // "$$$" is Yelp's price level 3
		SourceSite:   y.Name(),
		SourceURL:    biz.URL,
		ExternalIDs:  map[string]string{y.Name(): biz.ID},
		Active:       true,
		QualityScore: placeQualityScore(biz.Rating),
		ScrapedAt:    y.now(),
	}
	if len(titles) > 0 {
		item.Subcategory = titles[0]
	}
	return item
}
