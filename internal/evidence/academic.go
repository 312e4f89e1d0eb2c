package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ppiankov/claimcheck/internal/model"
)

// AcademicClient searches academic papers (Semantic Scholar Graph API paper search)
type AcademicClient struct {
	endpoint   string
	apiKey     string
	maxResults int
	client     *jsonClient
}

type academicResponse struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Data   []struct {
		PaperID string `json:"paperId"`
		Title   string `json:"title"`
		URL     string `json:"url"`
	} `json:"data"`
}

// NewAcademicClient creates an academic search client. The API key is optional.
func NewAcademicClient(endpoint, apiKey string, maxResults int, opts ClientOptions) *AcademicClient {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &AcademicClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		maxResults: maxResults,
		client:     newJSONClient(opts),
	}
}

// Name returns the corpus name
func (c *AcademicClient) Name() string {
	return string(model.OriginAcademicSearch)
}

// Search returns papers matching the query, skipping entries without a URL
func (c *AcademicClient) Search(ctx context.Context, query string) ([]model.Source, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(c.maxResults))
	params.Set("fields", "title,url")

	var header http.Header
	if c.apiKey != "" {
		header = http.Header{}
		header.Set("x-api-key", c.apiKey)
	}

	var resp academicResponse
	if err := c.client.getJSON(ctx, c.endpoint+"?"+params.Encode(), header, &resp); err != nil {
		return nil, fmt.Errorf("academic search: %w", err)
	}

	var sources []model.Source
	for _, paper := range resp.Data {
		if paper.URL == "" {
			continue
		}
		sources = append(sources, model.Source{
			Title:  CleanTitle(paper.Title),
			URL:    paper.URL,
			Origin: model.OriginAcademicSearch,
		})
	}

	return sources, nil
}
