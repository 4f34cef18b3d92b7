// Package normalize maps heterogeneous provider vocabularies onto the
// internal content schema: categories, promotional tags and image URLs.
package normalize

import (
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/venuz/ingest/internal/models"
)

// categoryDef covers one internal category's vocabulary across Google Place
// types, Foursquare category names, Yelp aliases and EN/ES free text.
type categoryDef struct {
	category  models.Category
	priority  int // 1-5, higher wins
	keywords  []string
	automaton *ahocorasick.Matcher
}

var categoryDefs = buildCategoryDefs()

func buildCategoryDefs() []*categoryDef {
	defs := []*categoryDef{
		{
			category: models.CategoryNightlife,
			priority: 5,
			keywords: []string{
				// Google Places types
				"night_club", "bar", "club", "dance_club", "disco", "cocktail_bar", "gay_bar",
				"karaoke", "live_music_venue", "jazz_club", "blues_club",
				"strip_club", "adult_entertainment", "cabaret", "lounge", "pub",
				"nightclub",
				// Foursquare categories
				"nightlife spot", "dance club", "cocktail bar", "dive bar",
				"gay bar", "hookah bar", "karaoke bar", "nightlife", "beer bar",
				"whisky bar", "wine bar", "tiki bar", "sports bar", "rooftop bar",
				"beach bar", "pool bar",
				// Yelp aliases
				"danceclubs", "jazzandblues", "cocktailbars", "divebars",
				"gaybars", "hookah_bars", "musicvenues", "poolhalls",
				"sportsbars", "tikibars", "wine_bars",
				// Free text
				"antro", "discoteca", "club nocturno", "after hours",
				"after party", "dancing", "dj", "edm", "reggaeton",
				"salsa club", "latino club",
			},
		},
		{
			category: models.CategoryHospitality,
			priority: 5,
			keywords: []string{
				"lodging", "hotel", "motel", "resort", "hostel", "guest_house",
				"bed_and_breakfast", "serviced_apartment", "extended_stay_hotel",
				"apartment_rental", "vacation_rental", "rv_park", "campground",
				"bed & breakfast", "vacation rental", "lodge", "inn",
				"boutique hotel", "spa resort", "beach resort",
				"all-inclusive resort", "hotels", "hostels", "bedbreakfast",
				"guesthouses", "resorts", "vacation_rentals", "camping",
				"rv_parks", "hospedaje", "alojamiento", "habitación", "suite",
				"villa", "departamento", "airbnb", "casa de huéspedes",
				"posada", "cabaña",
			},
		},
		{
			category: models.CategoryMedical,
			priority: 5,
			keywords: []string{
				"doctor", "dentist", "hospital", "pharmacy", "medical_clinic",
				"dental_clinic", "physiotherapist", "spa", "beauty_salon",
				"hair_salon", "nail_salon", "massage", "chiropractor",
				"acupuncture", "optometrist", "medical center", "urgent care",
				"massage studio", "nail salon", "cosmetic surgery",
				"plastic surgeon", "dermatologist", "wellness center",
				"yoga studio", "physicians", "dentists", "hospitals",
				"medspas", "spas", "hairremoval", "skincare",
				"plastic_surgeons", "dental implants", "dental tourism",
				"plastic surgery", "liposuction", "breast augmentation",
				"rhinoplasty", "botox", "bariatric", "fertility", "ivf",
				"clínica", "farmacia", "consultorio", "cirugía estética",
				"odontología", "implantes dentales",
			},
		},
		{
			category: models.CategoryEvent,
			priority: 5,
			keywords: []string{
				"concert", "festival", "party", "performance", "live music",
				"comedy show", "drag show", "burlesque", "sporting event",
				"conference", "workshop", "meetup", "evento", "concierto",
				"fiesta", "presentación", "espectáculo", "obra de teatro",
				"comedia", "drag", "partido", "torneo",
			},
		},
		{
			category: models.CategoryFood,
			priority: 4,
			keywords: []string{
				"restaurant", "cafe", "meal_delivery", "meal_takeaway",
				"bakery", "coffee_shop", "ice_cream_shop", "pizza_restaurant",
				"seafood_restaurant", "steak_house", "sushi_restaurant",
				"vegetarian_restaurant", "vegan_restaurant", "brunch_restaurant",
				"breakfast_restaurant", "mexican_restaurant",
				"italian_restaurant", "fast_food_restaurant",
				"hamburger_restaurant", "sandwich_shop", "food & drink",
				"café", "coffee shop", "diner", "fast food", "food court",
				"food stand", "food truck", "eatery", "bistro", "steakhouse",
				"seafood restaurant", "taco place", "taqueria",
				"burrito place", "juice bar", "smoothie shop", "dessert shop",
				"ice cream shop", "donut shop", "restaurants", "cafes",
				"breakfast_brunch", "steakhouses", "food_trucks",
				"foodstands", "restaurante", "comida", "cocina", "mariscos",
				"tacos", "tortas", "brunch", "buffet", "all you can eat",
			},
		},
		{
			category: models.CategoryTransport,
			priority: 4,
			keywords: []string{
				"taxi_stand", "car_rental", "car_wash", "gas_station",
				"parking", "transit_station", "bus_station", "airport",
				"boat_tour", "ferry_terminal", "taxi", "car rental",
				"bike rental", "scooter rental", "boat rental", "charter",
				"transportation service", "ferry", "taxis", "carrental",
				"bikerentals", "boatcharters", "airport_shuttles",
				"publictransport", "uber", "transporte", "renta de autos",
				"renta de motos", "scooter", "lancha", "yate", "shuttle",
				"traslado",
			},
		},
		{
			category: models.CategoryCulture,
			priority: 3,
			keywords: []string{
				"tourist_attraction", "museum", "art_gallery",
				"performing_arts_theater", "movie_theater", "cultural_center",
				"historical_landmark", "aquarium", "zoo", "amusement_park",
				"natural_feature", "hiking_area", "national_park",
				"art gallery", "historic site", "monument", "lighthouse",
				"beach", "scenic lookout", "plaza", "botanical garden",
				"theater", "opera house", "concert hall", "cultural center",
				"trail", "museums", "artgalleries", "theaters",
				"culturalcenter", "festivals", "landmarks", "tours",
				"beaches", "hiking", "parks", "museo", "galería", "teatro",
				"malecón", "playa", "mirador", "tour", "excursión",
				"caminata", "snorkel", "buceo", "kayak", "zip line",
				"canopy", "free walking tour", "histórico",
			},
		},
	}

	// Higher priority first so the first automaton hit wins.
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].priority > defs[j].priority })
	for _, def := range defs {
		def.automaton = ahocorasick.NewStringMatcher(def.keywords)
	}
	return defs
}

// DetectCategory maps provider taxonomy strings plus name/description onto
// the internal category set. Total: always returns a closed enum value.
func DetectCategory(types []string, name, description string) models.Category {
	searchText := strings.ToLower(strings.Join(types, " ") + " " + name + " " + description)

	for _, def := range categoryDefs {
		if len(def.automaton.Match([]byte(searchText))) > 0 {
			return def.category
		}
	}

	if strings.Contains(searchText, "bar") || strings.Contains(searchText, "club") {
		return models.CategoryNightlife
	}
	return models.CategoryFallback
}

// DetectFromFoursquare maps Foursquare category names.
func DetectFromFoursquare(names []string) models.Category {
	return DetectCategory(names, "", "")
}

// DetectFromYelp maps Yelp category aliases.
func DetectFromYelp(aliases []string) models.Category {
	return DetectCategory(aliases, "", "")
}
