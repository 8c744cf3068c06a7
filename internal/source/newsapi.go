package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/napphq/napp/pkg/types"
)

// NewsAPISource fetches top headlines from the NewsAPI.org v2 endpoint and
// normalizes them into Items keyed by article URL.
type NewsAPISource struct {
	apiKey  string
	country string
	baseURL string
	client  *http.Client
}

// NewsAPIConfig holds NewsAPI source configuration.
type NewsAPIConfig struct {
	// APIKey is the NewsAPI key (required).
	APIKey string

	// Country is the two-letter country code for headlines (default "gb").
	Country string

	// BaseURL overrides the API endpoint, mainly for tests
	// (default https://newsapi.org/v2).
	BaseURL string

	// Timeout is the request timeout (default 10s).
	Timeout time.Duration
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// NewNewsAPISource creates a NewsAPI source with defaults applied.
func NewNewsAPISource(cfg NewsAPIConfig) *NewsAPISource {
	if cfg.Country == "" {
		cfg.Country = "gb"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://newsapi.org/v2"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &NewsAPISource{
		apiKey:  cfg.APIKey,
		country: cfg.Country,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the source in logs and metrics.
func (s *NewsAPISource) Name() string { return "newsapi" }

// LoadItems fetches the current top headlines, deduplicated by URL within
// the response.
func (s *NewsAPISource) LoadItems(ctx context.Context) ([]types.Item, error) {
	q := url.Values{}
	q.Set("language", "en")
	q.Set("country", s.country)

	endpoint := s.baseURL + "/top-headlines?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("newsapi: status %d: %s", resp.StatusCode, string(data))
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("newsapi: failed to decode response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi: API error: %s", payload.Message)
	}

	items := make([]types.Item, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		text := a.Content
		if text == "" {
			text = a.Description
		}
		item := types.Item{
			Kind:        types.KindArticle,
			NaturalKey:  a.URL,
			Headline:    a.Title,
			Text:        text,
			Source:      a.Source.Name,
			CountryCode: s.country,
			ImageURL:    a.URLToImage,
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			item.PublishedAt = t
		}
		items = append(items, item)
	}
	return MergeByNaturalKey(items), nil
}
