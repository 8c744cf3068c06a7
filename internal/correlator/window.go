package correlator

import (
	"context"
	"time"

	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

// DefaultRetention is how long an event stays in the active window after
// creation. Expired events remain in storage; they just stop attracting new
// items.
const DefaultRetention = 72 * time.Hour

// Window is the in-memory set of active events a correlation cycle works
// against. It is loaded once per ingestion cycle and mutated only by that
// cycle's own correlation results, so two items in one batch that belong to
// the same new event join it instead of spawning duplicates.
//
// Window order is creation order as returned by the store. The correlator's
// tie-break keeps the first event in this order, so the order must not be
// re-ranked between items.
type Window struct {
	events []types.Event
}

// NewWindow builds a window over the given events, preserving their order.
func NewWindow(events []types.Event) *Window {
	return &Window{events: events}
}

// LoadWindow reads the active window from storage: every event created
// within the retention horizon, oldest first.
func LoadWindow(ctx context.Context, store storage.EventStore, retention time.Duration) (*Window, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	events, err := store.FindEventsSince(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return nil, err
	}
	return NewWindow(events), nil
}

// Len returns the number of events in the window.
func (w *Window) Len() int { return len(w.events) }

// Events returns the window's events in window order. The slice is shared;
// callers must not reorder it.
func (w *Window) Events() []types.Event { return w.events }

// Upsert replaces the window entry with the same id (or, for events not yet
// persisted under the same id, the same name) with the given event value, or
// appends it when absent. Called after a correlation decision has been
// persisted, so the next item in the cycle sees the updated keyword set.
func (w *Window) Upsert(ev types.Event) {
	for i := range w.events {
		if (ev.ID != 0 && w.events[i].ID == ev.ID) || w.events[i].Name == ev.Name {
			w.events[i] = ev
			return
		}
	}
	w.events = append(w.events, ev)
}
