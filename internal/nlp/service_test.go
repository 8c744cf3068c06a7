package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napphq/napp/pkg/types"
)

func TestServiceClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Storm batters the coast", req.Text)

		json.NewEncoder(w).Encode(classifyResponse{CategoryID: types.CategoryEnvironment})
	}))
	defer srv.Close()

	c := NewServiceClient(ServiceConfig{BaseURL: srv.URL})
	id, err := c.Classify(context.Background(), "Storm batters the coast")

	require.NoError(t, err)
	assert.Equal(t, types.CategoryEnvironment, id)
}

func TestServiceClient_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/entities", r.URL.Path)
		json.NewEncoder(w).Encode(entitiesResponse{Entities: []string{"Storm", "Coast", "coast"}})
	}))
	defer srv.Close()

	c := NewServiceClient(ServiceConfig{BaseURL: srv.URL})
	ks, err := c.Extract(context.Background(), "Storm batters the coast")

	require.NoError(t, err)
	assert.Equal(t, 2, ks.Len(), "entities normalize into a case-folded set")
	assert.True(t, ks.Contains("storm"))
}

func TestServiceClient_EmptyEntitiesIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entitiesResponse{})
	}))
	defer srv.Close()

	c := NewServiceClient(ServiceConfig{BaseURL: srv.URL})
	ks, err := c.Extract(context.Background(), "nothing notable")

	require.NoError(t, err)
	assert.Equal(t, 0, ks.Len())
}

func TestServiceClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewServiceClient(ServiceConfig{BaseURL: srv.URL})
	_, err := c.Classify(context.Background(), "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestServiceClient_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewServiceClient(ServiceConfig{BaseURL: srv.URL})
	assert.True(t, c.Healthy(context.Background()))

	srv.Close()
	assert.False(t, c.Healthy(context.Background()))
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewServiceClient(ServiceConfig{BaseURL: srv.URL, RequestsPerSec: 100})
	ctx := context.Background()

	// Three consecutive failures trip the breaker.
	for i := 0; i < 3; i++ {
		_, err := c.Classify(ctx, "anything")
		require.Error(t, err)
	}

	_, err := c.Classify(ctx, "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, "open", c.circuitBreaker.State())
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := NewCircuitBreaker()

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	m := cb.Metrics()
	assert.Equal(t, uint64(1), m.TotalRequests)
	assert.Equal(t, uint64(1), m.TotalSuccesses)
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := NewCircuitBreaker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) {
		t.Fatal("fn must not run with a cancelled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
