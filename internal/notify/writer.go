// Package notify provides cross-process notification of correlation events
// between napp-loader and napp-web using filesystem events. The loader has
// no HTTP surface and the web process owns the websocket hub; event files in
// a shared directory bridge the two without coupling their lifecycles.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/napphq/napp/pkg/types"
)

// Notification event types.
const (
	TypeEventCreated = "event-created"
	TypeEventUpdated = "event-updated"
)

// Notification is the payload written to an event file.
type Notification struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
	Time    int64  `json:"time"`
}

// EventWriter writes notification event files to a shared directory.
// It implements ingest.Notifier.
type EventWriter struct {
	dir string
}

// NewEventWriter creates a writer that emits notifications to
// {dataPath}/events/.
func NewEventWriter(dataPath string) *EventWriter {
	return &EventWriter{dir: filepath.Join(dataPath, "events")}
}

// EventCreated emits an event-created notification. The error is dropped:
// a missed notification is tolerable, a blocked ingestion cycle is not.
func (w *EventWriter) EventCreated(ev types.Event) {
	_ = w.Notify(TypeEventCreated, ev.ID)
}

// EventUpdated emits an event-updated notification.
func (w *EventWriter) EventUpdated(ev types.Event) {
	_ = w.Notify(TypeEventUpdated, ev.ID)
}

// Notify writes an event file with the given type.
// Safe to call concurrently. Errors are returned but not fatal.
func (w *EventWriter) Notify(notifType string, eventID int64) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("notify: mkdir %s: %w", w.dir, err)
	}
	n := Notification{
		Type:    notifType,
		EventID: eventID,
		Time:    time.Now().UnixNano(),
	}
	data, _ := json.Marshal(n)
	filename := fmt.Sprintf("%d-%d.event", n.Time, eventID)
	path := filepath.Join(w.dir, filename)
	return os.WriteFile(path, data, 0o600)
}
