package normalize

import (
	"regexp"
	"sort"

	"github.com/venuz/ingest/internal/models"
)

// Tag caps: MaxTextTags from text patterns, MaxTags after metadata tags.
const (
	MaxTextTags = 5
	MaxTags     = 6
)

type tagDef struct {
	tag      string
	priority int
	patterns []*regexp.Regexp
}

func rx(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

var tagDefs = []tagDef{
	{tag: "LGBTQ+", priority: 10, patterns: rx(
		`lgbtq\+?`, `gay[\s-]?friendly`, `pride`, `drag\s+(show|queen)`,
		`gay\s+bar`, `lesbian`, `queer`, `rainbow`, `zona\s+gay`)},
	{tag: "Vista al Mar", priority: 9, patterns: rx(
		`ocean\s+view`, `sea\s+view`, `beach\s+front`, `frente\s+al\s+mar`,
		`vista\s+al\s+mar`, `vista\s+océano`, `waterfront`)},
	{tag: "Rooftop", priority: 9, patterns: rx(
		`rooftop`, `azotea`, `terraza`, `terrace`, `sky\s+bar`)},
	{tag: "VIP", priority: 9, patterns: rx(
		`vip`, `bottle\s+service`, `table\s+service`, `servicio\s+de\s+mesa`, `reserva\s+vip`)},
	{tag: "Luxury", priority: 9, patterns: rx(
		`luxury`, `lujo`, `5[\s-]?star`, `cinco\s+estrellas`, `premium`, `exclusive`, `exclusivo`)},
	{tag: "English Speaking", priority: 9, patterns: rx(
		`english[\s-]?speaking`, `se\s+habla\s+inglés`, `bilingual`, `bilingüe`)},
	{tag: "Turismo Médico", priority: 9, patterns: rx(
		`medical\s+tourism`, `turismo\s+médico`, `cosmetic\s+surgery`,
		`cirugía\s+estética`, `dental\s+tourism`)},
	{tag: "Zona Romántica", priority: 8, patterns: rx(
		`zona\s+romántica`, `romantic\s+zone`, `old\s+town`, `centro\s+histórico`)},
	{tag: "Música en Vivo", priority: 8, patterns: rx(
		`live\s+music`, `música\s+en\s+vivo`, `live\s+band`, `banda\s+en\s+vivo`, `dj`)},
	{tag: "Drag Show", priority: 8, patterns: rx(
		`drag\s+show`, `drag\s+queen`, `transformista`)},
	{tag: "Admisión Gratis", priority: 8, patterns: rx(
		`free\s+entry`, `no\s+cover`, `entrada\s+gratis`, `sin\s+cover`, `ladies\s+free`)},
	{tag: "Open Bar", priority: 8, patterns: rx(
		`open\s+bar`, `barra\s+libre`, `unlimited\s+drinks`)},
	{tag: "Spring Break", priority: 8, patterns: rx(
		`spring\s+break`, `college\s+party`, `student\s+discount`)},
	{tag: "Karaoke", priority: 7, patterns: rx(`karaoke`)},
	{tag: "Pet Friendly", priority: 7, patterns: rx(
		`pet[\s-]?friendly`, `dog[\s-]?friendly`, `acepta\s+mascotas`, `pet\s+allowed`)},
	{tag: "Alberca", priority: 7, patterns: rx(
		`pool`, `alberca`, `piscina`, `infinity\s+pool`, `rooftop\s+pool`)},
	{tag: "Spa", priority: 7, patterns: rx(
		`spa`, `massage`, `masaje`, `wellness`, `sauna`, `jacuzzi`)},
	{tag: "Vegetariano", priority: 7, patterns: rx(
		`vegetarian`, `vegetariano`, `veggie`)},
	{tag: "Vegano", priority: 7, patterns: rx(
		`vegan`, `vegano`, `plant[\s-]?based`)},
	{tag: "Sin Gluten", priority: 7, patterns: rx(
		`gluten[\s-]?free`, `sin\s+gluten`, `celiac`)},
	{tag: "Happy Hour", priority: 7, patterns: rx(
		`happy\s+hour`, `2\s*x\s*1`, `two\s+for\s+one`, `2\s*for\s*1`)},
	{tag: "Budget Friendly", priority: 7, patterns: rx(
		`budget`, `affordable`, `económico`, `barato`, `cheap`, `backpacker`)},
	{tag: "24 Horas", priority: 7, patterns: rx(
		`24[\s-]?hours`, `24[\s-]?hrs`, `24[\s/]?7`, `abierto\s+24\s+horas`, `open\s+24\s+hours`)},
	{tag: "WiFi Gratis", priority: 6, patterns: rx(
		`free\s+wifi`, `wifi\s+gratis`, `complimentary\s+wifi`)},
	{tag: "Estacionamiento", priority: 6, patterns: rx(
		`parking`, `estacionamiento`, `valet`, `garage`)},
	{tag: "All You Can Eat", priority: 6, patterns: rx(
		`all[\s-]?you[\s-]?can[\s-]?eat`, `buffet`, `barra\s+libre`)},
	{tag: "Entrega a Domicilio", priority: 6, patterns: rx(
		`delivery`, `entrega\s+a\s+domicilio`, `uber\s+eats`, `rappi`, `didi\s+food`)},
}

var tagPriorities = func() map[string]int {
	m := make(map[string]int, len(tagDefs))
	for _, def := range tagDefs {
		m[def.tag] = def.priority
	}
	return m
}()

// ExtractTags scans title, description and any extra text for promotional
// tags. Results are deduplicated, sorted by descending priority and capped
// at MaxTextTags.
func ExtractTags(title, description, extra string) []string {
	fullText := title + " " + description + " " + extra

	var found []string
	seen := make(map[string]struct{})
	for _, def := range tagDefs {
		for _, pattern := range def.patterns {
			if pattern.MatchString(fullText) {
				if _, dup := seen[def.tag]; !dup {
					seen[def.tag] = struct{}{}
					found = append(found, def.tag)
				}
				break
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return tagPriorities[found[i]] > tagPriorities[found[j]]
	})
	if len(found) > MaxTextTags {
		found = found[:MaxTextTags]
	}
	return found
}

// Metadata carries the numeric/boolean signals AddMetadataTags derives tags
// from, independent of any text.
type Metadata struct {
	PriceLevel int
	Rating     float64
	IsOpenNow  bool
	Category   models.Category
}

// AddMetadataTags merges metadata-derived tags into an existing tag list,
// keeping set semantics and the MaxTags cap.
func AddMetadataTags(existing []string, meta Metadata) []string {
	tags := make([]string, 0, len(existing)+3)
	seen := make(map[string]struct{}, len(existing))
	add := func(tag string) {
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, tag := range existing {
		add(tag)
	}
	if meta.PriceLevel == 1 {
		add("Budget Friendly")
	}
	if meta.PriceLevel >= 4 {
		add("Luxury")
	}
	if meta.Rating >= 4.5 {
		add("Altamente Calificado")
	}
	if meta.IsOpenNow {
		add("Abierto Ahora")
	}

	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}
