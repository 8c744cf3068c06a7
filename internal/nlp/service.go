package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/napphq/napp/pkg/types"
)

// ServiceClient talks to the external NLP sidecar that hosts the classifier
// and entity-extractor models. All HTTP calls are wrapped with circuit
// breaker protection and a client-side rate limit so a slow model process
// cannot stall or overload the ingestion loops.
//
// The sidecar exposes two JSON endpoints:
//
//	POST /classify  {"text": ...}  -> {"category_id": ...}
//	POST /entities  {"text": ...}  -> {"entities": [...]}
type ServiceClient struct {
	baseURL        string
	client         *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
}

// ServiceConfig holds NLP service client configuration.
type ServiceConfig struct {
	// BaseURL is the base URL for the NLP sidecar (default: http://localhost:8090)
	BaseURL string

	// Timeout is the request timeout duration (default: 5s)
	Timeout time.Duration

	// RequestsPerSec caps outbound calls to the sidecar (default: 20)
	RequestsPerSec float64
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	CategoryID int64 `json:"category_id"`
}

type entitiesRequest struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Entities []string `json:"entities"`
}

// NewServiceClient creates a new NLP service client with the given
// configuration, applying defaults for unset fields.
func NewServiceClient(config ServiceConfig) *ServiceClient {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8090"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RequestsPerSec == 0 {
		config.RequestsPerSec = 20
	}

	return &ServiceClient{
		baseURL: config.BaseURL,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		circuitBreaker: NewCircuitBreaker(),
		limiter:        rate.NewLimiter(rate.Limit(config.RequestsPerSec), int(config.RequestsPerSec)),
	}
}

// Classify sends the text to the sidecar's classifier and returns the
// category id.
func (c *ServiceClient) Classify(ctx context.Context, text string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		var resp classifyResponse
		if err := c.post(ctx, "/classify", classifyRequest{Text: text}, &resp); err != nil {
			return nil, err
		}
		return resp.CategoryID, nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return 0, fmt.Errorf("nlp: classifier circuit breaker open: %w", err)
		}
		return 0, err
	}

	return result.(int64), nil
}

// Extract sends the text to the sidecar's entity extractor and returns the
// normalized keyword set. An empty set is a valid result, not an error; the
// caller applies the tokenization fallback.
func (c *ServiceClient) Extract(ctx context.Context, text string) (types.KeywordSet, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		var resp entitiesResponse
		if err := c.post(ctx, "/entities", entitiesRequest{Text: text}, &resp); err != nil {
			return nil, err
		}
		return types.NewKeywordSet(resp.Entities...), nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("nlp: extractor circuit breaker open: %w", err)
		}
		return nil, err
	}

	return result.(types.KeywordSet), nil
}

// Healthy reports whether the sidecar answers its health endpoint.
func (c *ServiceClient) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// post performs one JSON round-trip against the sidecar.
func (c *ServiceClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("nlp: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("nlp: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("nlp: request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nlp: %s returned status %d: %s", path, resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nlp: failed to decode %s response: %w", path, err)
	}
	return nil
}
