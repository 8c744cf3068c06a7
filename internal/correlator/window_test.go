package correlator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

func TestWindow_UpsertByID(t *testing.T) {
	w := NewWindow([]types.Event{
		{ID: 1, Name: "coastal storm", Keywords: kw("storm", "coast")},
		{ID: 2, Name: "budget vote", Keywords: kw("budget", "vote")},
	})

	// A rename keeps the id; the window entry must be replaced, not appended.
	w.Upsert(types.Event{ID: 1, Name: "coastal storm flooding", Keywords: kw("storm", "coast", "flooding")})

	require.Equal(t, 2, w.Len())
	assert.Equal(t, "coastal storm flooding", w.Events()[0].Name)
	assert.Equal(t, 3, w.Events()[0].Keywords.Len())
}

func TestWindow_UpsertByNameForUnpersisted(t *testing.T) {
	w := NewWindow(nil)

	w.Upsert(types.Event{Name: "coastal storm", Keywords: kw("storm", "coast")})
	require.Equal(t, 1, w.Len())

	// The same event comes back from storage with its surrogate id assigned.
	w.Upsert(types.Event{ID: 7, Name: "coastal storm", Keywords: kw("storm", "coast")})

	require.Equal(t, 1, w.Len())
	assert.Equal(t, int64(7), w.Events()[0].ID)
}

func TestWindow_UpsertAppendsNewEvents(t *testing.T) {
	w := NewWindow([]types.Event{
		{ID: 1, Name: "coastal storm", Keywords: kw("storm", "coast")},
	})

	w.Upsert(types.Event{ID: 2, Name: "budget vote", Keywords: kw("budget", "vote")})

	require.Equal(t, 2, w.Len())
	assert.Equal(t, "budget vote", w.Events()[1].Name)
}

type fakeEventStore struct {
	events []types.Event
	since  time.Time
}

func (f *fakeEventStore) SaveEvent(ctx context.Context, event *types.Event) (*types.Event, error) {
	return event, nil
}

func (f *fakeEventStore) FindEventsSince(ctx context.Context, since time.Time) ([]types.Event, error) {
	f.since = since
	return f.events, nil
}

func (f *fakeEventStore) GetEvent(ctx context.Context, id int64) (*types.Event, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeEventStore) ListEvents(ctx context.Context, opts storage.ListOptions) ([]types.Event, error) {
	return f.events, nil
}

func TestLoadWindow_PreservesStoreOrder(t *testing.T) {
	store := &fakeEventStore{events: []types.Event{
		{ID: 1, Name: "older"},
		{ID: 2, Name: "newer"},
	}}

	w, err := LoadWindow(context.Background(), store, 24*time.Hour)

	require.NoError(t, err)
	require.Equal(t, 2, w.Len())
	assert.Equal(t, "older", w.Events()[0].Name)

	elapsed := time.Since(store.since)
	assert.InDelta(t, (24 * time.Hour).Seconds(), elapsed.Seconds(), 5)
}

func TestLoadWindow_DefaultRetention(t *testing.T) {
	store := &fakeEventStore{}

	_, err := LoadWindow(context.Background(), store, 0)

	require.NoError(t, err)
	elapsed := time.Since(store.since)
	assert.InDelta(t, DefaultRetention.Seconds(), elapsed.Seconds(), 5)
}
