package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/napphq/napp/pkg/types"
)

// TrendAPISource fetches regional social trends and their popular posts from
// a trends gateway. The gateway fronts the social platform's API and exposes
// two JSON endpoints:
//
//	GET /trends?woeid=...          -> {"trends": [{"name": ..., "query": ...}]}
//	GET /search?q=...&count=...    -> {"posts": [...]}
//
// Posts are keyed by their source-native id.
type TrendAPISource struct {
	baseURL   string
	woeid     int
	maxTrends int
	postCount int
	client    *http.Client
}

// TrendAPIConfig holds trends gateway configuration.
type TrendAPIConfig struct {
	// BaseURL is the gateway endpoint (required).
	BaseURL string `yaml:"base_url"`

	// WOEID is the region to query trends for (default 23424975, GB).
	WOEID int `yaml:"woeid"`

	// MaxTrends caps how many trends are processed per cycle (default 3).
	MaxTrends int `yaml:"max_trends"`

	// PostCount is how many popular posts to fetch per trend (default 100).
	PostCount int `yaml:"post_count"`

	// Timeout is the request timeout (default 10s).
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

type trendsResponse struct {
	Trends []struct {
		Name  string `json:"name"`
		Query string `json:"query"`
	} `json:"trends"`
}

type searchResponse struct {
	Posts []struct {
		ID          string   `json:"id"`
		Text        string   `json:"text"`
		Hashtags    []string `json:"hashtags"`
		URL         string   `json:"url"`
		Author      string   `json:"author"`
		PublishedAt string   `json:"published_at"`
	} `json:"posts"`
}

// NewTrendAPISource creates a trends gateway source with defaults applied.
func NewTrendAPISource(cfg TrendAPIConfig) *TrendAPISource {
	if cfg.WOEID == 0 {
		cfg.WOEID = 23424975
	}
	if cfg.MaxTrends == 0 {
		cfg.MaxTrends = 3
	}
	if cfg.PostCount == 0 {
		cfg.PostCount = 100
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TrendAPISource{
		baseURL:   cfg.BaseURL,
		woeid:     cfg.WOEID,
		maxTrends: cfg.MaxTrends,
		postCount: cfg.PostCount,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Name identifies the source in logs and metrics.
func (s *TrendAPISource) Name() string { return "trendapi" }

// LoadTrends fetches the current trends and, for each, its popular posts.
// A failure loading one trend's posts skips that trend; the call only fails
// when the trend listing itself cannot be fetched.
func (s *TrendAPISource) LoadTrends(ctx context.Context) ([]Trend, error) {
	var listing trendsResponse
	err := s.get(ctx, fmt.Sprintf("/trends?woeid=%d", s.woeid), &listing)
	if err != nil {
		return nil, fmt.Errorf("trendapi: failed to list trends: %w", err)
	}

	limit := s.maxTrends
	if len(listing.Trends) < limit {
		limit = len(listing.Trends)
	}

	trends := make([]Trend, 0, limit)
	for _, t := range listing.Trends[:limit] {
		query := t.Query
		if query == "" {
			query = t.Name
		}

		var search searchResponse
		path := fmt.Sprintf("/search?q=%s&count=%d&lang=en", url.QueryEscape(query), s.postCount)
		if err := s.get(ctx, path, &search); err != nil {
			// Partial result: one trend's posts failing must not drop
			// the remaining trends.
			trends = append(trends, Trend{Name: t.Name, Query: query})
			continue
		}

		trend := Trend{Name: t.Name, Query: query}
		for _, p := range search.Posts {
			if p.ID == "" || p.Text == "" {
				continue
			}
			item := types.Item{
				Kind:       types.KindPost,
				NaturalKey: p.ID,
				Headline:   removeNewlines(p.Text),
				Source:     s.Name(),
				Author:     p.Author,
				Hashtags:   strings.Join(p.Hashtags, ","),
			}
			if ts, err := time.Parse(time.RFC3339, p.PublishedAt); err == nil {
				item.PublishedAt = ts
			}
			trend.Items = append(trend.Items, item)
		}
		trend.Items = MergeByNaturalKey(trend.Items)
		trends = append(trends, trend)
	}
	return trends, nil
}

// get performs one JSON GET against the gateway.
func (s *TrendAPISource) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// removeNewlines flattens post text to a single line.
func removeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "\r", "")
}
