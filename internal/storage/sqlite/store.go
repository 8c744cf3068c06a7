// Package sqlite implements the storage gateway on SQLite. It is the default
// backend: a single file, no server, good enough for one loader process per
// database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/napphq/napp/internal/storage"
	"github.com/napphq/napp/pkg/types"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, configures WAL mode, and creates the schema.
// Use ":memory:" as the DSN for an in-memory database (useful for testing).
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Using a single open
	// connection serialises writes and avoids SQLITE_BUSY errors when the
	// news and trend loops share a database. WAL mode lets readers proceed
	// without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying connection for handlers that need direct
// queries (stats, settings).
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// SaveItem upserts an item keyed by natural key and re-reads the stored row.
func (s *Store) SaveItem(ctx context.Context, item *types.Item) (*types.Item, error) {
	if item == nil {
		return nil, storage.ErrInvalidInput
	}
	if item.NaturalKey == "" {
		return nil, fmt.Errorf("%w: item natural key is required", storage.ErrInvalidInput)
	}
	if item.Headline == "" {
		return nil, fmt.Errorf("%w: item headline is required", storage.ErrInvalidInput)
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.PublishedAt.IsZero() {
		item.PublishedAt = item.CreatedAt
	}

	query := `
		INSERT INTO items (
			kind, natural_key, headline, text, source, country_code,
			image_url, author, hashtags, category_id, event_id,
			published_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			kind = excluded.kind,
			headline = excluded.headline,
			text = excluded.text,
			source = excluded.source,
			country_code = excluded.country_code,
			image_url = excluded.image_url,
			author = excluded.author,
			hashtags = excluded.hashtags,
			category_id = excluded.category_id,
			event_id = excluded.event_id,
			published_at = excluded.published_at
	`
	_, err := s.db.ExecContext(ctx, query,
		item.Kind, item.NaturalKey, item.Headline, item.Text, item.Source,
		item.CountryCode, item.ImageURL, item.Author, item.Hashtags,
		item.CategoryID, item.EventID, item.PublishedAt, item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to upsert item: %w", err)
	}

	// Re-read by the unique key. lastrowid is not reliable on the update
	// path, and a silently failed write must not go unnoticed.
	stored, err := s.FindItemByNaturalKey(ctx, item.NaturalKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("sqlite: item %q: %w", item.NaturalKey, storage.ErrWriteNotVisible)
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

const itemColumns = `id, kind, natural_key, headline, text, source, country_code,
	image_url, author, hashtags, category_id, event_id, published_at, created_at`

// FindItemByNaturalKey retrieves an item by natural key.
func (s *Store) FindItemByNaturalKey(ctx context.Context, key string) (*types.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE natural_key = ?`, key)
	return scanItem(row.Scan)
}

// ItemExists reports whether an item with the natural key is stored.
func (s *Store) ItemExists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE natural_key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to check item existence: %w", err)
	}
	return n > 0, nil
}

// GetItem retrieves an item by surrogate id.
func (s *Store) GetItem(ctx context.Context, id int64) (*types.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	return scanItem(row.Scan)
}

// ListItems retrieves items with pagination and filtering, newest first.
func (s *Store) ListItems(ctx context.Context, opts storage.ListOptions) ([]types.Item, error) {
	opts.Normalize()

	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []interface{}
	if !opts.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, opts.Since)
	}
	if opts.EventID != 0 {
		query += ` AND event_id = ?`
		args = append(args, opts.EventID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list items: %w", err)
	}
	defer rows.Close()

	items := []types.Item{}
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// SaveEvent upserts an event and re-reads the stored row. Events that
// already carry an id are updated in place by id so renames do not spawn
// a second row; new events are keyed by name.
func (s *Store) SaveEvent(ctx context.Context, event *types.Event) (*types.Event, error) {
	if event == nil {
		return nil, storage.ErrInvalidInput
	}
	if event.Name == "" {
		return nil, fmt.Errorf("%w: event name is required", storage.ErrInvalidInput)
	}
	if event.Keywords.Len() == 0 {
		return nil, fmt.Errorf("%w: event keyword set must not be empty", storage.ErrInvalidInput)
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	// An event with an id is a window event being re-persisted; update by id
	// so a name change (article-flow augmentation) renames the row instead of
	// inserting a second one.
	if event.ID != 0 {
		_, err := s.db.ExecContext(ctx,
			`UPDATE events SET name = ?, summary = ?, keywords = ? WHERE id = ?`,
			event.Name, event.Summary, event.Keywords.Join(), event.ID)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to update event %d: %w", event.ID, err)
		}
		stored, err := s.GetEvent(ctx, event.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("sqlite: event %d: %w", event.ID, storage.ErrWriteNotVisible)
		}
		if err != nil {
			return nil, err
		}
		return stored, nil
	}

	query := `
		INSERT INTO events (name, summary, keywords, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			summary = excluded.summary,
			keywords = excluded.keywords
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Name, event.Summary, event.Keywords.Join(), event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to upsert event: %w", err)
	}

	stored, err := s.findEventByName(ctx, event.Name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("sqlite: event %q: %w", event.Name, storage.ErrWriteNotVisible)
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

const eventColumns = `id, name, summary, keywords, created_at`

func (s *Store) findEventByName(ctx context.Context, name string) (*types.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE name = ?`, name)
	return scanEvent(row.Scan)
}

// FindEventsSince returns events created at or after since, oldest first.
// This is the active-window load: window order is creation order, and the
// correlator's tie-break depends on it staying stable.
func (s *Store) FindEventsSince(ctx context.Context, since time.Time) ([]types.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE created_at >= ? ORDER BY created_at ASC, id ASC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load events since %s: %w", since, err)
	}
	defer rows.Close()

	events := []types.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// GetEvent retrieves an event by surrogate id.
func (s *Store) GetEvent(ctx context.Context, id int64) (*types.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row.Scan)
}

// ListEvents retrieves events with pagination, newest first.
func (s *Store) ListEvents(ctx context.Context, opts storage.ListOptions) ([]types.Event, error) {
	opts.Normalize()

	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []interface{}
	if !opts.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, opts.Since)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list events: %w", err)
	}
	defer rows.Close()

	events := []types.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// SeedCategories inserts the taxonomy, ignoring rows that already exist.
func (s *Store) SeedCategories(ctx context.Context, categories []types.Category) error {
	for _, c := range categories {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO categories (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`,
			c.ID, c.Name)
		if err != nil {
			return fmt.Errorf("sqlite: failed to seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

// ListCategories returns all categories in id order.
func (s *Store) ListCategories(ctx context.Context) ([]types.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list categories: %w", err)
	}
	defer rows.Close()

	cats := []types.Category{}
	for rows.Next() {
		var c types.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func scanItem(scan func(dest ...interface{}) error) (*types.Item, error) {
	var item types.Item
	var categoryID, eventID sql.NullInt64
	err := scan(
		&item.ID, &item.Kind, &item.NaturalKey, &item.Headline, &item.Text,
		&item.Source, &item.CountryCode, &item.ImageURL, &item.Author,
		&item.Hashtags, &categoryID, &eventID, &item.PublishedAt, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan item: %w", err)
	}
	if categoryID.Valid {
		item.CategoryID = &categoryID.Int64
	}
	if eventID.Valid {
		item.EventID = &eventID.Int64
	}
	return &item, nil
}

func scanEvent(scan func(dest ...interface{}) error) (*types.Event, error) {
	var ev types.Event
	var keywords string
	err := scan(&ev.ID, &ev.Name, &ev.Summary, &keywords, &ev.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan event: %w", err)
	}
	ev.Keywords = types.SplitKeywords(keywords)
	return &ev, nil
}
