package connectors

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
	"github.com/venuz/ingest/internal/normalize"
)

var connTestNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return connTestNow }

var testParams = SearchParams{Latitude: 20.6534, Longitude: -105.2253, RadiusMeters: 10000}

func TestMissingCredentialsSkip(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()

	// No credential means no outbound request, so a nil client is safe here.
	conns := []Connector{
		NewGooglePlaces("", testParams, nil, log),
		NewFoursquare("", testParams, nil, log),
		NewYelp("", testParams, nil, log),
		NewEventbrite("", testParams, nil, log),
		NewPredictHQ("", testParams, nil, log),
		NewBandsintown("", nil, nil, log),
	}
	for _, conn := range conns {
		items, err := conn.Fetch(ctx)
		assert.NoError(t, err, conn.Name())
		assert.Nil(t, items, conn.Name())
	}
}

func TestGooglePlacesNormalize(t *testing.T) {
	g := NewGooglePlaces("test-key", testParams, nil, logger.NewNop())
	g.now = fixedClock

	t.Run("full place", func(t *testing.T) {
		place := &googlePlace{
			PlaceID:    "ChIJabc123",
			Name:       "La Santa Nightclub",
			Vicinity:   "Av. México 123, Puerto Vallarta",
			Types:      []string{"night_club", "bar"},
			Rating:     4.5,
			Ratings:    820,
			PriceLevel: 4,
		}
		place.OpeningHours.OpenNow = true
		place.Geometry.Location.Lat = 20.65
		place.Geometry.Location.Lng = -105.22

		got := g.normalize(place)
		assert.Equal(t, "La Santa Nightclub", got.Title)
		assert.Equal(t, models.CategoryNightlife, got.Category)
		assert.Equal(t, "night_club", got.Subcategory)
		assert.Equal(t, "Av. México 123, Puerto Vallarta", got.Description)
		assert.Equal(t, 20.65, got.Latitude)
		assert.Equal(t, 90, got.QualityScore)
		assert.Equal(t, 4, got.PriceLevel)
		assert.True(t, got.IsOpenNow)
		assert.True(t, got.IsVerified)
		assert.True(t, got.Active)
		assert.Equal(t, "google_places", got.SourceSite)
		assert.Equal(t,
			"https://www.google.com/maps/search/?api=1&query=Google&query_place_id=ChIJabc123",
			got.SourceURL)
		assert.Equal(t, map[string]string{"google_places": "ChIJabc123"}, got.ExternalIDs)
		assert.Equal(t, connTestNow, got.ScrapedAt)
	})

	t.Run("unrated venue gets midscale quality", func(t *testing.T) {
		got := g.normalize(&googlePlace{Name: "Bar Nuevo", Types: []string{"bar"}})
		assert.Equal(t, 60, got.QualityScore)
	})

	t.Run("no photos falls back to placeholder", func(t *testing.T) {
		got := g.normalize(&googlePlace{Name: "Club X", Types: []string{"night_club"}})
		assert.Contains(t, got.ImageURL, "unsplash.com")
	})

	t.Run("photos become optimized urls", func(t *testing.T) {
		place := &googlePlace{
			Name:   "Club X",
			Types:  []string{"night_club"},
			Photos: []normalize.GooglePhotoRef{{PhotoReference: "ref-a"}, {PhotoReference: "ref-b"}},
		}
		got := g.normalize(place)
		assert.Contains(t, got.ImageURL, "photo_reference=ref-a")
		assert.Contains(t, got.ImageURL, "key=test-key")
		require.Len(t, got.Images, 1)
		assert.Contains(t, got.Images[0], "photo_reference=ref-b")
	})

	t.Run("missing vicinity gets category description", func(t *testing.T) {
		got := g.normalize(&googlePlace{Name: "Club X", Types: []string{"night_club"}})
		assert.Equal(t, "Sitio de nightlife", got.Description)
	})
}

func TestFoursquareNormalize(t *testing.T) {
	f := NewFoursquare("test-key", testParams, nil, logger.NewNop())
	f.now = fixedClock

	place := &foursquarePlace{
		FsqID: "4b2af91df964a520aaa524e3",
		Name:  "Mandala",
		Categories: []struct {
			Name string `json:"name"`
		}{{Name: "Night Club"}},
	}
	place.Location.City = "Puerto Vallarta"
	place.Location.FormattedAddress = "Malecón 588, Centro"
	place.Geocodes.Main.Latitude = 20.61

	got := f.normalize(place)
	assert.Equal(t, "Mandala", got.Title)
	assert.Equal(t, models.CategoryNightlife, got.Category)
	assert.Equal(t, "Night Club", got.Subcategory)
	assert.Equal(t, "Puerto Vallarta", got.LocationText)
	assert.Equal(t, "Malecón 588, Centro", got.Description)
	assert.Equal(t, 70, got.QualityScore)
	assert.Equal(t, "https://foursquare.com/v/4b2af91df964a520aaa524e3", got.SourceURL)
	assert.Contains(t, got.ImageURL, "unsplash.com", "photos need a separate call, stock image expected")

	t.Run("empty city defaults", func(t *testing.T) {
		got := f.normalize(&foursquarePlace{FsqID: "x", Name: "Bar Y"})
		assert.Equal(t, "México", got.LocationText)
		assert.Equal(t, "Sitio en México", got.Description)
	})
}

func TestYelpNormalize(t *testing.T) {
	y := NewYelp("test-key", testParams, nil, logger.NewNop())
	y.now = fixedClock

	biz := &yelpBusiness{
		ID:          "la-noche-pv",
		Name:        "La Noche",
		URL:         "https://www.yelp.com/biz/la-noche-pv",
		ImageURL:    "http://s3-media.yelp.com/photo.jpg",
		Rating:      4.5,
		ReviewCount: 230,
		Price:       "$$$",
	}
	biz.Categories = []struct {
		Alias string `json:"alias"`
		Title string `json:"title"`
	}{{Alias: "gaybars", Title: "Gay Bars"}, {Alias: "danceclubs", Title: "Dance Clubs"}}
	biz.Location.DisplayAddress = []string{"Lázaro Cárdenas 257", "Puerto Vallarta"}

	got := y.normalize(biz)
	assert.Equal(t, "La Noche", got.Title)
	assert.Equal(t, "Rated 4.5/5 with 230 reviews. Gay Bars, Dance Clubs", got.Description)
	assert.Equal(t, models.CategoryNightlife, got.Category)
	assert.Equal(t, "Gay Bars", got.Subcategory)
	assert.Equal(t, "Lázaro Cárdenas 257, Puerto Vallarta", got.LocationText)
	assert.Equal(t, "https://s3-media.yelp.com/photo.jpg", got.ImageURL, "image urls must be https")
	assert.Equal(t, 90, got.QualityScore)
	assert.Equal(t, 3, got.PriceLevel, "each $ is one price level")
	assert.Equal(t, "https://www.yelp.com/biz/la-noche-pv", got.SourceURL)
}

func TestEventbriteNormalize(t *testing.T) {
	e := NewEventbrite("test-token", testParams, nil, logger.NewNop())
	e.now = fixedClock

	t.Run("full event", func(t *testing.T) {
		event := &eventbriteEvent{ID: "861112", URL: "https://www.eventbrite.com/e/861112"}
		event.Name.Text = "Fiesta Blanca en la Playa"
		event.Description.Text = "La fiesta más grande del verano"
		event.Logo.Original.URL = "https://img.evbuc.com/orig.jpg"
		event.Start.UTC = "2026-03-20T03:00:00Z"
		event.Category.Name = "Music"
		event.Venue.Name = "Mantamar Beach Club"
		event.Venue.Latitude = "20.6012"
		event.Venue.Longitude = "-105.2371"

		got := e.normalize(event)
		assert.Equal(t, "Fiesta Blanca en la Playa", got.Title)
		assert.Equal(t, models.CategoryEvent, got.Category)
		assert.Equal(t, "Music", got.Subcategory)
		assert.Equal(t, "Mantamar Beach Club", got.LocationText)
		assert.Equal(t, "https://img.evbuc.com/orig.jpg", got.ImageURL)
		assert.Equal(t, "2026-03-20", got.EventDate)
		assert.Equal(t, "03:00:00", got.EventTime)
		assert.InDelta(t, 20.6012, got.Latitude, 0.0001)
		assert.InDelta(t, -105.2371, got.Longitude, 0.0001)
		// Eventbrite links are already monetizable.
		assert.Equal(t, "https://www.eventbrite.com/e/861112", got.AffiliateURL)
		assert.Equal(t, "eventbrite", got.AffiliateSource)
	})

	t.Run("sparse event gets defaults", func(t *testing.T) {
		got := e.normalize(&eventbriteEvent{ID: "1"})
		assert.Equal(t, "Evento sin título", got.Title)
		assert.Equal(t, "general", got.Subcategory)
		assert.Equal(t, "Ubicación por confirmar", got.LocationText)
		assert.Contains(t, got.ImageURL, "unsplash.com")
		assert.Empty(t, got.EventDate)
	})
}

func TestPredictHQNormalize(t *testing.T) {
	p := NewPredictHQ("test-token", testParams, nil, logger.NewNop())
	p.now = fixedClock

	t.Run("high rank event is premium", func(t *testing.T) {
		event := &predictHQEvent{
			ID:       "xyz",
			Title:    "Festival Internacional",
			Category: "festivals",
			Rank:     75,
			Country:  "MX",
			Start:    "2026-04-01T20:00:00Z",
			Location: []float64{-105.2253, 20.6534},
		}

		got := p.normalize(event)
		assert.True(t, got.IsPremium)
		assert.Equal(t, 75, got.QualityScore)
		assert.Equal(t, 20.6534, got.Latitude, "location array is lon,lat")
		assert.Equal(t, -105.2253, got.Longitude)
		assert.Equal(t, "2026-04-01", got.EventDate)
		assert.Equal(t, "https://www.predicthq.com/events/xyz", got.SourceURL)
	})

	t.Run("unranked event gets default quality", func(t *testing.T) {
		got := p.normalize(&predictHQEvent{ID: "a", Title: "Evento", Category: "concerts"})
		assert.Equal(t, 50, got.QualityScore)
		assert.False(t, got.IsPremium)
		assert.Equal(t, "Evento categoría: concerts", got.Description)
	})

	t.Run("entity name preferred over country", func(t *testing.T) {
		event := &predictHQEvent{ID: "a", Country: "MX"}
		event.Entities = []struct {
			Name string `json:"name"`
		}{{Name: "Estadio Vallarta"}}
		got := p.normalize(event)
		assert.Equal(t, "Estadio Vallarta", got.LocationText)
	})
}

func TestBandsintownNormalize(t *testing.T) {
	b := NewBandsintown("test-app", nil, nil, logger.NewNop())
	b.now = fixedClock

	event := &bandsintownEvent{
		ID:       "104",
		URL:      "https://www.bandsintown.com/e/104",
		Datetime: "2026-05-10T21:30:00",
	}
	event.Venue.Name = "Foro Sol"
	event.Venue.City = "Ciudad de México"
	event.Venue.Region = "CDMX"
	event.Venue.Country = "Mexico"

	got := b.normalize(event, "Bad Bunny")
	assert.Equal(t, "Bad Bunny @ Foro Sol", got.Title)
	assert.Equal(t, "Concierto de Bad Bunny en Ciudad de México.", got.Description)
	assert.Equal(t, "concierto", got.Subcategory)
	assert.Equal(t, "Ciudad de México, CDMX", got.LocationText)
	assert.True(t, got.IsPremium)
	assert.Equal(t, 85, got.QualityScore)
	assert.Equal(t, "2026-05-10", got.EventDate)
	assert.Equal(t, "21:30:00", got.EventTime)
	assert.Equal(t, "https://www.bandsintown.com/e/104", got.AffiliateURL)

	t.Run("default artists applied", func(t *testing.T) {
		assert.Equal(t, defaultArtists, b.artists)
	})
}

func TestRedditNormalize(t *testing.T) {
	r := NewReddit("venuz-ingest/1.0", nil, nil, logger.NewNop())
	r.now = fixedClock

	t.Run("quality from upvotes with hd bonus", func(t *testing.T) {
		post := &redditPost{Title: "Sunset set", Permalink: "/r/x/comments/1", URL: "https://i.redd.it/a.jpg", Ups: 300}
		post.Preview.Images = []struct {
			Source struct {
				Width int `json:"width"`
			} `json:"source"`
		}{{}}
		post.Preview.Images[0].Source.Width = 1080

		got := r.normalize(post, "x")
		assert.Equal(t, 50, got.QualityScore, "300 ups / 10 plus 20 for hd")
		assert.False(t, got.IsVerified)
		assert.Equal(t, models.CategoryAdult, got.Category)
		assert.Equal(t, "https://reddit.com/r/x/comments/1", got.SourceURL)
		assert.Equal(t, "Comunidad r/x • 300 upvotes", got.Description)
	})

	t.Run("upvote score is capped", func(t *testing.T) {
		got := r.normalize(&redditPost{Title: "t", Ups: 5000}, "x")
		assert.Equal(t, 80, got.QualityScore)
		assert.True(t, got.IsVerified)
	})

	t.Run("award and video bonuses cap at 100", func(t *testing.T) {
		post := &redditPost{Title: "t", Ups: 2000, IsVideo: true, AllAwardings: []any{struct{}{}}}
		post.Media.RedditVideo.FallbackURL = "https://v.redd.it/clip.mp4"
		got := r.normalize(post, "x")
		assert.Equal(t, 100, got.QualityScore)
	})

	t.Run("long titles truncated", func(t *testing.T) {
		long := ""
		for len(long) < 150 {
			long += "abcde"
		}
		got := r.normalize(&redditPost{Title: long, Ups: 60}, "x")
		assert.Len(t, got.Title, 100)
	})

	t.Run("truncation never splits a multi-byte character", func(t *testing.T) {
		long := strings.Repeat("ñ", 150)
		got := r.normalize(&redditPost{Title: long, Ups: 60}, "x")
		assert.True(t, utf8.ValidString(got.Title))
		assert.Equal(t, strings.Repeat("ñ", 100), got.Title)
	})

	t.Run("default subreddits applied", func(t *testing.T) {
		assert.Equal(t, defaultSubreddits, r.subreddits)
	})
}
