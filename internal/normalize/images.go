package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/venuz/ingest/internal/models"
)

// MaxPhotos caps how many photos a single provider contributes per item.
const MaxPhotos = 5

const defaultPhotoWidth = 800

// Image provenance, highest priority wins when selecting a primary image.
type ImageProvider string

const (
	ProviderGoogle     ImageProvider = "google"
	ProviderFoursquare ImageProvider = "foursquare"
	ProviderYelp       ImageProvider = "yelp"
)

var providerPriority = map[ImageProvider]int{
	ProviderGoogle:     3,
	ProviderFoursquare: 2,
	ProviderYelp:       1,
}

// ImageSource is a candidate image with optional dimensions.
type ImageSource struct {
	URL      string
	Width    int
	Height   int
	Provider ImageProvider
}

// PhotoSet splits a provider's photos into the primary image and the rest.
type PhotoSet struct {
	Primary    string
	Additional []string
}

// GooglePhotoURL builds a Places Photo API URL for a photo reference.
func GooglePhotoURL(photoReference, apiKey string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = defaultPhotoWidth
	}
	return fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/place/photo?maxwidth=%d&photo_reference=%s&key=%s",
		maxWidth, photoReference, apiKey,
	)
}

// FoursquarePhotoURL joins a Foursquare photo prefix and suffix around a size
// segment.
func FoursquarePhotoURL(prefix, suffix, size string) string {
	if size == "" {
		size = fmt.Sprintf("%dx600", defaultPhotoWidth)
	}
	return prefix + size + suffix
}

// YelpPhotoURL upgrades Yelp image URLs to HTTPS. Yelp already serves sized
// images, so no other rewriting is needed.
func YelpPhotoURL(url string) string {
	return strings.Replace(url, "http://", "https://", 1)
}

// SelectBest picks the strongest candidate: provider priority first, then
// resolution. Returns "" when there are no candidates.
func SelectBest(images []ImageSource) string {
	if len(images) == 0 {
		return ""
	}
	sorted := make([]ImageSource, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := providerPriority[sorted[i].Provider], providerPriority[sorted[j].Provider]
		if pi != pj {
			return pi > pj
		}
		return sorted[i].Width*sorted[i].Height > sorted[j].Width*sorted[j].Height
	})
	return sorted[0].URL
}

// GooglePhotoRef is the reference a Places details response carries per photo.
type GooglePhotoRef struct {
	PhotoReference string `json:"photo_reference"`
}

// ProcessGooglePhotos optimizes up to MaxPhotos Google photo references.
func ProcessGooglePhotos(photos []GooglePhotoRef, apiKey string) PhotoSet {
	urls := make([]string, 0, MaxPhotos)
	for _, p := range photos {
		if len(urls) == MaxPhotos {
			break
		}
		urls = append(urls, GooglePhotoURL(p.PhotoReference, apiKey, defaultPhotoWidth))
	}
	return toPhotoSet(urls)
}

// FoursquarePhotoRef is one entry of a Foursquare photos response.
type FoursquarePhotoRef struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// ProcessFoursquarePhotos optimizes up to MaxPhotos Foursquare photos.
func ProcessFoursquarePhotos(photos []FoursquarePhotoRef) PhotoSet {
	urls := make([]string, 0, MaxPhotos)
	for _, p := range photos {
		if len(urls) == MaxPhotos {
			break
		}
		urls = append(urls, FoursquarePhotoURL(p.Prefix, p.Suffix, ""))
	}
	return toPhotoSet(urls)
}

// ProcessYelpPhotos optimizes up to MaxPhotos Yelp photo URLs.
func ProcessYelpPhotos(photos []string) PhotoSet {
	urls := make([]string, 0, MaxPhotos)
	for _, u := range photos {
		if len(urls) == MaxPhotos {
			break
		}
		urls = append(urls, YelpPhotoURL(u))
	}
	return toPhotoSet(urls)
}

func toPhotoSet(urls []string) PhotoSet {
	if len(urls) == 0 {
		return PhotoSet{}
	}
	return PhotoSet{Primary: urls[0], Additional: urls[1:]}
}

var categoryPlaceholders = map[models.Category]string{
	models.CategoryNightlife:   "https://images.unsplash.com/photo-1566417713940-fe7c737a9ef2?w=800&q=80",
	models.CategoryFood:        "https://images.unsplash.com/photo-1504674900247-0877df9cc836?w=800&q=80",
	models.CategoryHospitality: "https://images.unsplash.com/photo-1566073771259-6a8506099945?w=800&q=80",
	models.CategoryMedical:     "https://images.unsplash.com/photo-1519494026892-80bbd2d6fd0d?w=800&q=80",
	models.CategoryTransport:   "https://images.unsplash.com/photo-1449965408869-eaa3f722e40d?w=800&q=80",
	models.CategoryCulture:     "https://images.unsplash.com/photo-1533174072545-7a4b6ad7a6c3?w=800&q=80",
	models.CategoryEvent:       "https://images.unsplash.com/photo-1492684223066-81342ee5ff30?w=800&q=80",
}

// Placeholder returns a stock image URL for a category, falling back to the
// culture placeholder for unknown categories.
func Placeholder(category models.Category) string {
	if url, ok := categoryPlaceholders[category]; ok {
		return url
	}
	return categoryPlaceholders[models.CategoryCulture]
}
