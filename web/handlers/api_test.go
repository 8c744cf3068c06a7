package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napphq/napp/internal/config"
	"github.com/napphq/napp/internal/storage/sqlite"
	"github.com/napphq/napp/pkg/types"
	"github.com/napphq/napp/web/handlers"
)

func newTestHandlers(t *testing.T) (*handlers.APIHandlers, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.SeedCategories(context.Background(), types.DefaultCategories()))

	cfg := &config.Config{}
	cfg.Ingest.Retention = 72 * time.Hour
	return handlers.NewAPIHandlers(store, cfg), store
}

func seedEvent(t *testing.T, store *sqlite.Store, name string, keywords ...string) *types.Event {
	t.Helper()
	ev, err := store.SaveEvent(context.Background(), &types.Event{
		Name:     name,
		Keywords: types.NewKeywordSet(keywords...),
	})
	require.NoError(t, err)
	return ev
}

func seedItem(t *testing.T, store *sqlite.Store, key, headline string, eventID *int64) *types.Item {
	t.Helper()
	item, err := store.SaveItem(context.Background(), &types.Item{
		Kind:        types.KindArticle,
		NaturalKey:  key,
		Headline:    headline,
		Source:      "test",
		CountryCode: "gb",
		EventID:     eventID,
		PublishedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return item
}

func TestListItems_EmptyIsNotAnError(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/items", nil)
	w := httptest.NewRecorder()
	h.ListItems(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Equal(t, 10, resp.Limit, "default page size must apply")
}

func TestListItems_ReturnsSeededItems(t *testing.T) {
	h, store := newTestHandlers(t)
	seedItem(t, store, "https://example.com/a", "First headline", nil)
	seedItem(t, store, "https://example.com/b", "Second headline", nil)

	req := httptest.NewRequest("GET", "/api/items", nil)
	w := httptest.NewRecorder()
	h.ListItems(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
}

func TestListItems_InvalidSinceIsBadRequest(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/items?since=yesterday", nil)
	w := httptest.NewRecorder()
	h.ListItems(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "since")
}

func TestGetItem_NotFound(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/items/999", nil)
	req.SetPathValue("id", "999")
	w := httptest.NewRecorder()
	h.GetItem(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetItem_InvalidID(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/items/abc", nil)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.GetItem(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetItem_ReturnsItem(t *testing.T) {
	h, store := newTestHandlers(t)
	stored := seedItem(t, store, "https://example.com/a", "A headline", nil)

	req := httptest.NewRequest("GET", "/api/items/1", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.GetItem(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var item types.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, stored.ID, item.ID)
	assert.Equal(t, "A headline", item.Headline)
}

func TestListEvents_ReturnsSeededEvents(t *testing.T) {
	h, store := newTestHandlers(t)
	seedEvent(t, store, "budget vote", "budget", "vote", "parliament")

	req := httptest.NewRequest("GET", "/api/events", nil)
	w := httptest.NewRecorder()
	h.ListEvents(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "budget vote", resp.Events[0].Name)
}

func TestGetEvent_NotFound(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/events/42", nil)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	h.GetEvent(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEventItems_FiltersByEvent(t *testing.T) {
	h, store := newTestHandlers(t)
	ev := seedEvent(t, store, "election night", "election", "results")
	other := seedEvent(t, store, "storm warning", "storm", "weather")
	seedItem(t, store, "https://example.com/a", "Election results roll in", &ev.ID)
	seedItem(t, store, "https://example.com/b", "Storm hits the coast", &other.ID)

	req := httptest.NewRequest("GET", "/api/events/1/items", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	h.ListEventItems(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.ItemsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Election results roll in", resp.Items[0].Headline)
}

func TestListEventItems_UnknownEventIs404(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/events/7/items", nil)
	req.SetPathValue("id", "7")
	w := httptest.NewRecorder()
	h.ListEventItems(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCategories_ReturnsTaxonomy(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/categories", nil)
	w := httptest.NewRecorder()
	h.ListCategories(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Categories []types.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Categories, len(types.DefaultCategories()))
}

func TestGetStats_CountsRows(t *testing.T) {
	h, store := newTestHandlers(t)
	ev := seedEvent(t, store, "derby day", "derby", "football")
	seedItem(t, store, "https://example.com/a", "Derby preview", &ev.ID)

	req := httptest.NewRequest("GET", "/api/stats", nil)
	w := httptest.NewRecorder()
	h.GetStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Items)
	assert.Equal(t, 1, resp.Events)
	assert.Equal(t, 1, resp.ActiveEvents)
	assert.Equal(t, len(types.DefaultCategories()), resp.Categories)
}

func TestHealth_OK(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Storage)
}
