package handlers

import (
	"github.com/napphq/napp/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ItemsResponse is the response format for GET /api/items.
type ItemsResponse struct {
	Items  []types.Item `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// EventsResponse is the response format for GET /api/events.
type EventsResponse struct {
	Events []types.Event `json:"events"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	Items        int `json:"items"`
	Events       int `json:"events"`
	Categories   int `json:"categories"`
	ActiveEvents int `json:"active_events"`
}

// HealthResponse is the response format for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// EventNotification is the websocket broadcast payload for event lifecycle
// changes.
type EventNotification struct {
	Type  string      `json:"type"` // "event-created" or "event-updated"
	Event types.Event `json:"event"`
}
