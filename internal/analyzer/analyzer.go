// Package analyzer rewrites and scores content with a hosted LLM, with a
// deterministic heuristic fallback so ingestion never depends on third-party
// availability.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

const model = "gpt-4o-mini"

// Analysis is the enrichment produced for one item. Scores are 0-100.
type Analysis struct {
	RewrittenTitle       string   `json:"rewritten_title"`
	RewrittenDescription string   `json:"rewritten_description"`
	SuggestedTags        []string `json:"suggested_tags"`
	QualityScore         int      `json:"quality_score"`
	EleganceScore        int      `json:"elegance_score"`
	TrendingScore        int      `json:"trending_score"`
	Vibe                 string   `json:"vibe,omitempty"`
}

// Analyzer scores content. With no API key it runs the heuristic path only.
type Analyzer struct {
	client  openai.Client
	log     logger.Logger
	enabled bool
}

// New builds an Analyzer. An empty apiKey disables the LLM path.
func New(apiKey string, log logger.Logger) *Analyzer {
	a := &Analyzer{log: log}
	if apiKey != "" {
		a.client = openai.NewClient(option.WithAPIKey(apiKey))
		a.enabled = true
	}
	return a
}

// Analyze enriches one item. LLM errors and unparseable responses fall back
// to the heuristic scorer rather than failing the item.
func (a *Analyzer) Analyze(ctx context.Context, title, description string, category models.Category) Analysis {
	if !a.enabled {
		return heuristic(title, description, category)
	}

	analysis, err := a.analyzeLLM(ctx, title, description, category)
	if err != nil {
		a.log.Warn("llm analysis failed, using heuristic",
			logger.String("title", title),
			logger.Error(err),
		)
		return heuristic(title, description, category)
	}
	return analysis
}

func (a *Analyzer) analyzeLLM(ctx context.Context, title, description string, category models.Category) (Analysis, error) {
	prompt := buildPrompt(title, description, category)

	response, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("You are a nightlife and entertainment content editor for a city guide. Respond only with JSON."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return Analysis{}, fmt.Errorf("no response from openai")
	}

	analysis, err := parseResponse(response.Choices[0].Message.Content)
	if err != nil {
		return Analysis{}, err
	}

	if analysis.RewrittenTitle == "" {
		analysis.RewrittenTitle = title
	}
	if analysis.RewrittenDescription == "" {
		analysis.RewrittenDescription = description
	}
	analysis.QualityScore = clamp(analysis.QualityScore, 0, 100)
	analysis.EleganceScore = clamp(analysis.EleganceScore, 0, 100)
	analysis.TrendingScore = clamp(analysis.TrendingScore, 0, 100)
	return analysis, nil
}

func buildPrompt(title, description string, category models.Category) string {
	var sb strings.Builder
	sb.WriteString("Rewrite and score this listing. Keep the language of the original text.\n")
	sb.WriteString("Provide:\n")
	sb.WriteString("- rewritten_title: punchy, max 80 chars\n")
	sb.WriteString("- rewritten_description: engaging, max 300 chars\n")
	sb.WriteString("- suggested_tags: up to 5 short tags\n")
	sb.WriteString("- quality_score, elegance_score, trending_score: integers 0-100\n")
	sb.WriteString("- vibe: one word\n\n")
	sb.WriteString("Respond with JSON only:\n")
	sb.WriteString(`{"rewritten_title": "...", "rewritten_description": "...", "suggested_tags": [], "quality_score": 0, "elegance_score": 0, "trending_score": 0, "vibe": "..."}`)
	sb.WriteString("\n\nListing:\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", title))
	sb.WriteString(fmt.Sprintf("Description: %s\n", description))
	sb.WriteString(fmt.Sprintf("Category: %s\n", category))
	return sb.String()
}

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// parseResponse tries a direct unmarshal first, then extracts the first JSON
// object from surrounding prose (models sometimes wrap output in markdown).
func parseResponse(content string) (Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(content), &analysis); err == nil {
		return analysis, nil
	}
	block := jsonBlock.FindString(content)
	if block == "" {
		return Analysis{}, fmt.Errorf("no json object in response")
	}
	if err := json.Unmarshal([]byte(block), &analysis); err != nil {
		return Analysis{}, fmt.Errorf("parsing extracted response: %w", err)
	}
	return analysis, nil
}

// Heuristic scoring bounds.
const (
	heuristicBase  = 50
	heuristicFloor = 30
	heuristicCeil  = 95

	eleganceFloor  = 40
	eleganceOffset = 10
	trendingFloor  = 30
	trendingOffset = 20
)

var highValueCategories = map[models.Category]struct{}{
	models.CategoryNightlife:   {},
	models.CategoryHospitality: {},
	models.CategoryMedical:     {},
}

func heuristic(title, description string, category models.Category) Analysis {
	score := heuristicBase

	if len(title) > 30 {
		score += 10
	} else if len(title) > 15 {
		score += 5
	}
	if strings.HasSuffix(title, "...") {
		score -= 10
	}
	if len(description) > 100 {
		score += 10
	}
	if len(description) > 250 {
		score += 10
	}
	if _, ok := highValueCategories[category]; ok {
		score += 5
	}

	score = clamp(score, heuristicFloor, heuristicCeil)
	return Analysis{
		RewrittenTitle:       title,
		RewrittenDescription: description,
		QualityScore:         score,
		EleganceScore:        max(eleganceFloor, score-eleganceOffset),
		TrendingScore:        max(trendingFloor, score-trendingOffset),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
