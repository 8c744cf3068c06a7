// Package storage provides the persistence gateway for napp.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. The gateway exclusively
// owns the mapping between in-memory Item/Event values and storage rows; the
// correlation engine never writes state itself.
package storage

import (
	"context"
	"time"

	"github.com/napphq/napp/pkg/types"
)

// ItemStore provides idempotent persistence and querying for Items.
type ItemStore interface {
	// SaveItem upserts an item keyed by its natural key: insert if absent,
	// update the mutable fields (category, event, text, timestamps) if
	// present. After the write the row is re-read so the returned Item
	// always carries a valid surrogate id. Returns ErrWriteNotVisible if
	// the post-write re-read finds no row.
	SaveItem(ctx context.Context, item *types.Item) (*types.Item, error)

	// FindItemByNaturalKey retrieves an item by its natural key.
	// Returns ErrNotFound if no such item is stored.
	FindItemByNaturalKey(ctx context.Context, key string) (*types.Item, error)

	// ItemExists reports whether an item with the natural key is stored.
	// This is the read-only probe backing the dedup gate.
	ItemExists(ctx context.Context, key string) (bool, error)

	// GetItem retrieves an item by surrogate id.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id int64) (*types.Item, error)

	// ListItems retrieves items with pagination and filtering, newest first.
	ListItems(ctx context.Context, opts ListOptions) ([]types.Item, error)
}

// EventStore provides idempotent persistence and querying for Events.
type EventStore interface {
	// SaveEvent upserts an event. An event carrying a surrogate id is
	// updated in place by id, so a rename keeps the same row. An event
	// without an id is keyed by name: insert if absent, update the summary
	// and keyword fields if present. After the write the row is re-read so
	// the returned Event always carries a valid surrogate id — client-side
	// last-insert-id is not trusted on the update path. Returns
	// ErrWriteNotVisible if the re-read finds no row.
	SaveEvent(ctx context.Context, event *types.Event) (*types.Event, error)

	// FindEventsSince returns every event created at or after the given
	// time, oldest first. This loads the correlator's active window.
	FindEventsSince(ctx context.Context, since time.Time) ([]types.Event, error)

	// GetEvent retrieves an event by surrogate id.
	// Returns ErrNotFound if the event doesn't exist.
	GetEvent(ctx context.Context, id int64) (*types.Event, error)

	// ListEvents retrieves events with pagination, newest first.
	ListEvents(ctx context.Context, opts ListOptions) ([]types.Event, error)
}

// CategoryStore manages the fixed category taxonomy.
type CategoryStore interface {
	// SeedCategories inserts the default taxonomy, ignoring rows that
	// already exist. Safe to call on every startup.
	SeedCategories(ctx context.Context, categories []types.Category) error

	// ListCategories returns all categories in id order.
	ListCategories(ctx context.Context) ([]types.Category, error)
}

// Store combines the three gateway contracts plus lifecycle management.
// Both the sqlite and postgres backends implement it.
type Store interface {
	ItemStore
	EventStore
	CategoryStore

	// Close releases any resources held by the store.
	Close() error
}
