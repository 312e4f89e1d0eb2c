package evidence

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// FactCheckClient searches published fact-check reviews (Google Fact Check Tools claims:search)
type FactCheckClient struct {
	endpoint   string
	apiKey     string
	language   string
	maxResults int
	client     *jsonClient
}

type factCheckResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		Claimant    string `json:"claimant"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
				Site string `json:"site"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
	NextPageToken string `json:"nextPageToken"`
}

// NewFactCheckClient creates a fact-check registry client
func NewFactCheckClient(endpoint, apiKey, language string, maxResults int, opts ClientOptions) *FactCheckClient {
	if language == "" {
		language = "en"
	}
	return &FactCheckClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		language:   language,
		maxResults: maxResults,
		client:     newJSONClient(opts),
	}
}

// Name returns the corpus name
func (c *FactCheckClient) Name() string {
	return string(model.OriginFactCheckRegistry)
}

// Search returns one source per claim review, in response order
func (c *FactCheckClient) Search(ctx context.Context, query string) ([]model.Source, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("fact-check registry: API key not configured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("key", c.apiKey)
	params.Set("languageCode", c.language)
	if c.maxResults > 0 {
		params.Set("pageSize", strconv.Itoa(c.maxResults))
	}

	var resp factCheckResponse
	if err := c.client.getJSON(ctx, c.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("fact-check registry: %w", err)
	}

	var sources []model.Source
	for _, claim := range resp.Claims {
		for _, review := range claim.ClaimReview {
			if review.URL == "" {
				continue
			}
			title := firstNonEmpty(CleanTitle(review.Title), review.Publisher.Name, strings.TrimSpace(claim.Text))
			sources = append(sources, model.Source{
				Title:  title,
				URL:    review.URL,
				Origin: model.OriginFactCheckRegistry,
			})
			if c.maxResults > 0 && len(sources) >= c.maxResults {
				return sources, nil
			}
		}
	}

	return sources, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
