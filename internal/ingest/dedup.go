package ingest

import (
	"context"
	"fmt"

	"github.com/napphq/napp/internal/storage"
)

// DedupGate rejects items that are already stored, by natural key, before
// they consume classifier and extractor work. It is a read-only probe: the
// storage upsert still runs for items that pass the gate, so a legitimate
// re-publish that races the gate resolves to an update, not a failure.
//
// An item whose key is already tied to an event is still a duplicate — it is
// never re-correlated.
type DedupGate struct {
	items storage.ItemStore
}

// NewDedupGate creates a gate backed by the given item store.
func NewDedupGate(items storage.ItemStore) *DedupGate {
	return &DedupGate{items: items}
}

// IsDuplicate reports whether an item with the natural key is already stored.
func (g *DedupGate) IsDuplicate(ctx context.Context, naturalKey string) (bool, error) {
	if naturalKey == "" {
		return false, fmt.Errorf("%w: natural key is required", storage.ErrInvalidInput)
	}
	return g.items.ItemExists(ctx, naturalKey)
}
