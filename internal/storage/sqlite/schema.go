package sqlite

// Schema is the embedded SQLite schema, applied on every open. All statements
// are idempotent so an existing database is left untouched.
const Schema = `
CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	summary TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	natural_key TEXT NOT NULL UNIQUE,
	headline TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	country_code TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	author TEXT NOT NULL DEFAULT '',
	hashtags TEXT NOT NULL DEFAULT '',
	category_id INTEGER,
	event_id INTEGER,
	published_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL,
	FOREIGN KEY(category_id) REFERENCES categories(id),
	FOREIGN KEY(event_id) REFERENCES events(id)
);

CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
CREATE INDEX IF NOT EXISTS idx_items_created_at ON items(created_at);
CREATE INDEX IF NOT EXISTS idx_items_event_id ON items(event_id);
`
