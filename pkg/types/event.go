package types

import "time"

// Event is a named cluster of related Items, identified by a growing keyword
// set. The name is a best-effort human label derived from keywords or a trend
// name — unique at the storage layer, but never treated as a stable identifier
// by the core.
//
// Invariant: a persisted Event always has a non-empty keyword set.
type Event struct {
	// ID is the surrogate id assigned on first persistence (0 until then).
	ID int64 `json:"id"`

	// Name is the generated display label.
	Name string `json:"name"`

	// Summary is optional free text.
	Summary string `json:"summary,omitempty"`

	// Keywords grows monotonically as matching items union into the event.
	Keywords KeywordSet `json:"keywords"`

	// CreatedAt determines when the event expires from the active window.
	CreatedAt time.Time `json:"created_at"`
}
