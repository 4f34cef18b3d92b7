package connectors

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/venuz/ingest/internal/config"
	"github.com/venuz/ingest/internal/dates"
	"github.com/venuz/ingest/internal/keywords"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
	"github.com/venuz/ingest/internal/normalize"
)

const (
	htmlRequestTimeout = 25 * time.Second
	htmlMaxItems       = 150
	htmlMinTitleLen    = 8
	htmlMaxTitleLen    = 200
	htmlMaxDescription = 500
	htmlScraperUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// selectorStrategies is the cascade tried against each page, most specific
// structural selectors first, bare elements last. The strategy that yields
// the most qualifying items wins.
var selectorStrategies = []struct {
	score    int
	selector string
}{
	{10, "article.evento, .card-evento, .evento-item, .agenda-card"},
	{8, ".evento, .event, .card, .item-evento, .agenda-item"},
	{6, `div[class*="evento"], div[class*="event"], section.eventos`},
	{4, "li, .post, .noticia, .entry"},
	{2, "div, section, article"},
}

var (
	reLongDateText  = regexp.MustCompile(`(?i)\d{1,2}\s+(?:de\s+)?[a-záéíóúñ]+\s+(?:de\s+)?\d{4}`)
	reShortDateText = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
)

// HTMLScraper scrapes one configured event listing page with the selector
// cascade. Listings are fragile by nature; the cascade plus the date and
// keyword gates keep garbage out.
type HTMLScraper struct {
	source   config.HTMLSource
	keywords *keywords.Loader
	log      logger.Logger
	now      func() time.Time

	// fetch is swappable in tests to avoid a live collector.
	fetch func(ctx context.Context, url string) ([]byte, error)
}

func NewHTMLScraper(source config.HTMLSource, loader *keywords.Loader, log logger.Logger) *HTMLScraper {
	s := &HTMLScraper{source: source, keywords: loader, log: log, now: time.Now}
	s.fetch = s.fetchPage
	return s
}

func (s *HTMLScraper) Name() string { return "html:" + s.source.Name }

// EventSource reports that scraped listings need fuzzy dedup per source.
func (s *HTMLScraper) EventSource() bool { return true }

func (s *HTMLScraper) fetchPage(ctx context.Context, url string) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent(htmlScraperUA),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(htmlRequestTimeout)
	if s.source.RatePerMinute > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob: "*",
			Delay:      time.Minute / time.Duration(s.source.RatePerMinute),
		}); err != nil {
			return nil, err
		}
	}

	var body []byte
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return nil, err
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fetchErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return body, nil
}

func (s *HTMLScraper) Fetch(ctx context.Context) ([]*models.Content, error) {
	body, err := s.fetch(ctx, s.source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.source.URL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.source.URL, err)
	}

	matcher := s.keywords.Matcher(ctx)

	// Every strategy runs; the one yielding the most qualifying items wins,
	// with the more specific selector keeping ties.
	var best []*models.Content
	bestScore := 0
	for _, strat := range selectorStrategies {
		items := s.extract(doc, strat.selector, matcher)
		if len(items) > len(best) {
			best = items
			bestScore = strat.score
		}
	}

	s.log.Info("html scrape complete",
		logger.String("source", s.source.Name),
		logger.Int("items", len(best)),
		logger.Int("strategy_score", bestScore),
	)
	return best, nil
}

func (s *HTMLScraper) extract(doc *goquery.Document, selector string, matcher *keywords.Matcher) []*models.Content {
	var items []*models.Content

	doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(items) >= htmlMaxItems {
			return false
		}

		title := bestTitle(sel)
		if title == "" {
			return true
		}

		parsed, ok := dates.Parse(bestDateText(sel))
		if !ok || !dates.ValidEventDate(parsed.Date) {
			return true
		}

		description := bestDescription(sel)
		fullText := strings.ToLower(title + " " + description)
		match := matcher.Match(fullText)
		if s.source.RequireKeyword && !keywords.ShouldInclude(match.Priority, match.HasKeywords()) {
			return true
		}

		category := models.CategoryEvent
		if len(match.Matched) > 0 {
			category = normalize.DetectCategory(nil, title, description)
		}

		items = append(items, &models.Content{
			Title:        title,
			Description:  description,
			Category:     category,
			LocationText: bestLocation(sel),
			ImageURL:     normalize.Placeholder(category),
			Tags:         match.Matched,
			SourceSite:   s.source.Name,
			SourceURL:    fmt.Sprintf("%s#%s-%s", s.source.URL, slugify(title), parsed.Date),
			EventDate:    parsed.Date,
			EventTime:    parsed.Time,
			Active:       true,
			ScrapedAt:    s.now(),
		})
		return true
	})
	return items
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify keys scraped items within a page so re-scrapes upsert instead of
// duplicating rows.
func slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func bestTitle(sel *goquery.Selection) string {
	candidates := []string{
		strings.TrimSpace(sel.Find("h1, h2, h3, h4, .title, .titulo, .nombre, .event-title").First().Text()),
		strings.TrimSpace(sel.Find("strong, b").First().Text()),
		strings.TrimSpace(sel.Find("a").First().Text()),
		firstTextLine(sel),
	}
	for _, t := range candidates {
		if len(t) >= htmlMinTitleLen && len(t) <= htmlMaxTitleLen {
			return t
		}
	}
	return ""
}

// firstTextLine is the last-resort title candidate. Rendered card text runs
// the heading and the date together, so date fragments are stripped before
// the length gate or a short heading like "Corto15/11/2026" would pass it.
func firstTextLine(sel *goquery.Selection) string {
	line := strings.TrimSpace(strings.SplitN(sel.Text(), "\n", 2)[0])
	line = reLongDateText.ReplaceAllString(line, "")
	line = reShortDateText.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func bestDateText(sel *goquery.Selection) string {
	if t := strings.TrimSpace(sel.Find(`time, .fecha, .date, .dia, span[class*="date"]`).First().Text()); t != "" {
		return t
	}
	if dt, ok := sel.Find("[datetime]").First().Attr("datetime"); ok && dt != "" {
		return dt
	}
	text := sel.Text()
	if m := reLongDateText.FindString(text); m != "" {
		return m
	}
	return reShortDateText.FindString(text)
}

func bestDescription(sel *goquery.Selection) string {
	var out string
	sel.Find("p, .description, .desc, .info, .contenido, .resumen").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		t := strings.TrimSpace(p.Text())
		if len(t) > 40 {
			out = t
			return false
		}
		return true
	})
	return truncate(out, htmlMaxDescription)
}

func bestLocation(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Find(".lugar, .location, .ubicacion, .venue, address").First().Text())
}
