package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/napphq/napp/internal/config"
	"github.com/napphq/napp/internal/correlator"
	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

// APIHandlers contains HTTP handlers for the REST API. The read API is a
// thin projection over the storage gateway; it never mutates state.
type APIHandlers struct {
	store     storage.Store
	config    *config.Config
	retention time.Duration
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(store storage.Store, cfg *config.Config) *APIHandlers {
	retention := cfg.Ingest.Retention
	if retention <= 0 {
		retention = correlator.DefaultRetention
	}
	return &APIHandlers{
		store:     store,
		config:    cfg,
		retention: retention,
	}
}

// ListItems handles GET /api/items - list items with pagination and filtering.
// Supports limit, offset, since (RFC 3339) and event_id query parameters.
func (h *APIHandlers) ListItems(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListItems(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list items", err)
		return
	}
	if items == nil {
		items = []types.Item{}
	}

	respondJSON(w, http.StatusOK, ItemsResponse{
		Items:  items,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetItem handles GET /api/items/{id} - get a single item by ID.
func (h *APIHandlers) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}

	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "item not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get item", err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// ListEvents handles GET /api/events - list events with pagination.
func (h *APIHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}

	events, err := h.store.ListEvents(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list events", err)
		return
	}
	if events == nil {
		events = []types.Event{}
	}

	respondJSON(w, http.StatusOK, EventsResponse{
		Events: events,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetEvent handles GET /api/events/{id} - get a single event by ID.
func (h *APIHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}

	event, err := h.store.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "event not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get event", err)
		return
	}

	respondJSON(w, http.StatusOK, event)
}

// ListEventItems handles GET /api/events/{id}/items - list the items
// correlated to one event. Returns 404 when the event itself doesn't exist;
// an existing event with no items yields an empty list.
func (h *APIHandlers) ListEventItems(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(w, r)
	if !ok {
		return
	}

	if _, err := h.store.GetEvent(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "event not found", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get event", err)
		return
	}

	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}
	opts.EventID = id

	items, err := h.store.ListItems(r.Context(), opts)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list event items", err)
		return
	}
	if items == nil {
		items = []types.Item{}
	}

	respondJSON(w, http.StatusOK, ItemsResponse{
		Items:  items,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// ListCategories handles GET /api/categories - list the category taxonomy.
func (h *APIHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list categories", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// GetStats handles GET /api/stats - returns system statistics.
func (h *APIHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Row counts come straight from the database when the backend exposes
	// its handle; a count failure degrades to zero rather than failing the
	// request.
	items := 0
	events := 0
	if dbStore, ok := h.store.(interface{ GetDB() *sql.DB }); ok {
		db := dbStore.GetDB()
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&items); err != nil {
			items = 0
		}
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&events); err != nil {
			events = 0
		}
	}

	categories, err := h.store.ListCategories(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count categories", err)
		return
	}

	active, err := h.store.FindEventsSince(ctx, time.Now().Add(-h.retention))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count active events", err)
		return
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Items:        items,
		Events:       events,
		Categories:   len(categories),
		ActiveEvents: len(active),
	})
}

// Health handles GET /api/health - liveness plus a storage probe.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.ListCategories(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "degraded",
			Storage: "unavailable",
		})
		return
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Storage: "ok",
	})
}

// Helper functions

// parseListOptions builds storage.ListOptions from the request's query
// parameters. An unparseable "since" value is a client error; the response
// is already written when ok is false.
func parseListOptions(w http.ResponseWriter, r *http.Request) (storage.ListOptions, bool) {
	opts := storage.ListOptions{
		Limit:  parseInt(r.URL.Query().Get("limit"), 0),
		Offset: parseInt(r.URL.Query().Get("offset"), 0),
	}

	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid since parameter, want RFC 3339", err)
			return storage.ListOptions{}, false
		}
		opts.Since = t
	}

	if eventID := r.URL.Query().Get("event_id"); eventID != "" {
		id, err := strconv.ParseInt(eventID, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid event_id parameter", err)
			return storage.ListOptions{}, false
		}
		opts.EventID = id
	}

	opts.Normalize()
	return opts, true
}

// parsePathID extracts and parses the {id} path parameter. The response is
// already written when ok is false.
func parsePathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "id is required", nil)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id", err)
		return 0, false
	}
	return id, true
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers already sent; nothing to do but note it.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}

	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}

	respondJSON(w, statusCode, errResp)
}
