package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuz/ingest/internal/models"
)

func TestPhotoURLs(t *testing.T) {
	t.Run("google photo url", func(t *testing.T) {
		url := GooglePhotoURL("ref123", "key456", 0)
		assert.Equal(t,
			"https://maps.googleapis.com/maps/api/place/photo?maxwidth=800&photo_reference=ref123&key=key456",
			url)
	})

	t.Run("google photo url explicit width", func(t *testing.T) {
		assert.Contains(t, GooglePhotoURL("r", "k", 400), "maxwidth=400")
	})

	t.Run("foursquare joins prefix size suffix", func(t *testing.T) {
		url := FoursquarePhotoURL("https://fastly.4sqi.net/img/general/", ".jpg", "")
		assert.Equal(t, "https://fastly.4sqi.net/img/general/800x600.jpg", url)
	})

	t.Run("yelp upgrades to https", func(t *testing.T) {
		assert.Equal(t, "https://s3.yelp.com/a.jpg", YelpPhotoURL("http://s3.yelp.com/a.jpg"))
		assert.Equal(t, "https://s3.yelp.com/a.jpg", YelpPhotoURL("https://s3.yelp.com/a.jpg"))
	})
}

func TestSelectBest(t *testing.T) {
	t.Run("provider priority wins over resolution", func(t *testing.T) {
		best := SelectBest([]ImageSource{
			{URL: "yelp-big", Width: 4000, Height: 3000, Provider: ProviderYelp},
			{URL: "google-small", Width: 400, Height: 300, Provider: ProviderGoogle},
			{URL: "fsq", Width: 800, Height: 600, Provider: ProviderFoursquare},
		})
		assert.Equal(t, "google-small", best)
	})

	t.Run("resolution breaks provider ties", func(t *testing.T) {
		best := SelectBest([]ImageSource{
			{URL: "small", Width: 400, Height: 300, Provider: ProviderGoogle},
			{URL: "large", Width: 1600, Height: 1200, Provider: ProviderGoogle},
		})
		assert.Equal(t, "large", best)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, SelectBest(nil))
	})

	t.Run("input slice not mutated", func(t *testing.T) {
		images := []ImageSource{
			{URL: "b", Provider: ProviderYelp},
			{URL: "a", Provider: ProviderGoogle},
		}
		SelectBest(images)
		assert.Equal(t, "b", images[0].URL)
	})
}

func TestProcessPhotos(t *testing.T) {
	t.Run("google splits primary and additional", func(t *testing.T) {
		refs := []GooglePhotoRef{{PhotoReference: "a"}, {PhotoReference: "b"}, {PhotoReference: "c"}}
		set := ProcessGooglePhotos(refs, "key")
		assert.Contains(t, set.Primary, "photo_reference=a")
		require.Len(t, set.Additional, 2)
		assert.Contains(t, set.Additional[0], "photo_reference=b")
	})

	t.Run("google caps photo count", func(t *testing.T) {
		refs := make([]GooglePhotoRef, MaxPhotos+3)
		for i := range refs {
			refs[i].PhotoReference = fmt.Sprintf("ref%d", i)
		}
		set := ProcessGooglePhotos(refs, "key")
		assert.Len(t, set.Additional, MaxPhotos-1)
	})

	t.Run("foursquare applies default size", func(t *testing.T) {
		set := ProcessFoursquarePhotos([]FoursquarePhotoRef{{Prefix: "p/", Suffix: ".jpg"}})
		assert.Equal(t, "p/800x600.jpg", set.Primary)
		assert.Empty(t, set.Additional)
	})

	t.Run("yelp upgrades each url", func(t *testing.T) {
		set := ProcessYelpPhotos([]string{"http://y/1.jpg", "http://y/2.jpg"})
		assert.Equal(t, "https://y/1.jpg", set.Primary)
		assert.Equal(t, []string{"https://y/2.jpg"}, set.Additional)
	})

	t.Run("empty input yields empty set", func(t *testing.T) {
		set := ProcessYelpPhotos(nil)
		assert.Empty(t, set.Primary)
		assert.Empty(t, set.Additional)
	})
}

func TestPlaceholder(t *testing.T) {
	assert.Contains(t, Placeholder(models.CategoryNightlife), "unsplash.com")
	assert.NotEqual(t, Placeholder(models.CategoryNightlife), Placeholder(models.CategoryFood))
	// Unknown categories fall back to the culture placeholder.
	assert.Equal(t, Placeholder(models.CategoryCulture), Placeholder(models.Category("mystery")))
}
