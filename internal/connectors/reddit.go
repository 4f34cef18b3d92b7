package connectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/venuz/ingest/internal/httpx"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

const (
	redditPostsPerSub = 15

	// Quality gates: minimum upvotes to consider a post at all, upvotes for
	// the verified badge, and the minimum preview width counted as HD.
	redditMinUps      = 50
	redditVerifiedUps = 500
	redditHDWidth     = 720

	redditMaxTitleLen = 100
)

// defaultSubreddits are polled when nothing is configured.
var defaultSubreddits = []string{
	"OnlyFansGenie", "NSFW_GIF", "RealGirls", "CamGirls", "GoneWild", "nsfw",
}

// Reddit pulls hot posts via the public .json endpoints, no API credential
// needed, only a stable User-Agent.
type Reddit struct {
	userAgent  string
	subreddits []string
	client     *httpx.Client
	log        logger.Logger
	now        func() time.Time
}

func NewReddit(userAgent string, subreddits []string, client *httpx.Client, log logger.Logger) *Reddit {
	if len(subreddits) == 0 {
		subreddits = defaultSubreddits
	}
	return &Reddit{userAgent: userAgent, subreddits: subreddits, client: client, log: log, now: time.Now}
}

func (r *Reddit) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title         string `json:"title"`
	Permalink     string `json:"permalink"`
	URL           string `json:"url_overridden_by_dest"`
	Thumbnail     string `json:"thumbnail"`
	Ups           int    `json:"ups"`
	IsVideo       bool   `json:"is_video"`
	AllAwardings  []any  `json:"all_awardings"`
	Media         struct {
		RedditVideo struct {
			FallbackURL string `json:"fallback_url"`
		} `json:"reddit_video"`
	} `json:"media"`
	Preview struct {
		Images []struct {
			Source struct {
				Width int `json:"width"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

func (r *Reddit) Fetch(ctx context.Context) ([]*models.Content, error) {
	var items []*models.Content
	for _, sub := range r.subreddits {
		posts, err := r.fetchSubreddit(ctx, sub)
		if err != nil {
			r.log.Warn("subreddit fetch failed",
				logger.String("subreddit", sub),
				logger.Error(err),
			)
			continue
		}
		items = append(items, posts...)
	}
	return items, nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, sub string) ([]*models.Content, error) {
	endpoint := fmt.Sprintf("https://www.reddit.com/r/%s/hot.json?limit=%d", sub, redditPostsPerSub)

	header := map[string][]string{"User-Agent": {r.userAgent}}
	var listing redditListing
	if err := r.client.GetJSON(ctx, endpoint, header, &listing); err != nil {
		return nil, err
	}

	var items []*models.Content
	for i := range listing.Data.Children {
		post := &listing.Data.Children[i].Data
		if post.Ups < redditMinUps {
			continue
		}
		items = append(items, r.normalize(post, sub))
	}
	return items, nil
}

func (r *Reddit) normalize(post *redditPost, sub string) *models.Content {
	title := truncate(post.Title, redditMaxTitleLen)

	videoURL := ""
	if post.IsVideo && post.Media.RedditVideo.FallbackURL != "" {
		videoURL = post.Media.RedditVideo.FallbackURL
	} else if strings.HasSuffix(post.URL, ".mp4") {
		videoURL = post.URL
	}

	isHighRes := len(post.Preview.Images) > 0 && post.Preview.Images[0].Source.Width >= redditHDWidth

	// Upvotes drive the base score, capped so HD and award bonuses matter.
	quality := float64(post.Ups) / 10
	if quality > 80 {
		quality = 80
	}
	if isHighRes || videoURL != "" {
		quality += 20
	}
	if len(post.AllAwardings) > 0 {
		quality += 10
	}
	if quality > 100 {
		quality = 100
	}

	imageURL := post.URL
	if imageURL == "" {
		imageURL = post.Thumbnail
	}

	return &models.Content{
		Title:        title,
		Description:  fmt.Sprintf("Comunidad r/%s • %d upvotes", sub, post.Ups),
		Category:     models.CategoryAdult,
		Subcategory:  sub,
		LocationText: "Streaming / Online",
		ImageURL:     imageURL,
		SourceSite:   r.Name(),
		SourceURL:    "https://reddit.com" + post.Permalink,
		ExternalIDs:  map[string]string{r.Name(): post.Permalink},
		IsVerified:   post.Ups > redditVerifiedUps,
		Active:       true,
		QualityScore: int(quality),
		ScrapedAt:    r.now(),
	}
}
