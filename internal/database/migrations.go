package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createCategoriesTable,
		createEventsTable,
		createRequestsTable,
		createReactionsTable,
		createEventsDateIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    name VARCHAR(250) NOT NULL
);`

const createCategoriesTable = `
CREATE TABLE IF NOT EXISTS categories (
    id SERIAL PRIMARY KEY,
    name VARCHAR(50) UNIQUE NOT NULL
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    title VARCHAR(120) NOT NULL,
    annotation VARCHAR(2000) NOT NULL,
    description VARCHAR(7000) NOT NULL,
    category_id INTEGER NOT NULL REFERENCES categories(id),
    initiator_id INTEGER NOT NULL REFERENCES users(id),
    lat DOUBLE PRECISION NOT NULL DEFAULT 0,
    lon DOUBLE PRECISION NOT NULL DEFAULT 0,
    event_date TIMESTAMP NOT NULL,
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    participant_limit INTEGER NOT NULL DEFAULT 0,
    request_moderation BOOLEAN NOT NULL DEFAULT TRUE,
    state VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    created_on TIMESTAMP NOT NULL DEFAULT NOW(),
    published_on TIMESTAMP,
    search_vector tsvector GENERATED ALWAYS AS (
        to_tsvector('russian', coalesce(title, '') || ' ' || coalesce(annotation, '') || ' ' || coalesce(description, ''))
    ) STORED,

    CHECK (participant_limit >= 0),
    CHECK (state IN ('PENDING', 'PUBLISHED', 'CANCELED'))
);`

const createRequestsTable = `
CREATE TABLE IF NOT EXISTS requests (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id),
    requester_id INTEGER NOT NULL REFERENCES users(id),
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    created TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'CONFIRMED', 'REJECTED', 'CANCELED'))
);
CREATE INDEX IF NOT EXISTS requests_event_status_idx ON requests (event_id, status);
CREATE UNIQUE INDEX IF NOT EXISTS requests_active_uniq_idx ON requests (event_id, requester_id)
    WHERE status IN ('PENDING', 'CONFIRMED');`

const createReactionsTable = `
CREATE TABLE IF NOT EXISTS reactions (
    id SERIAL PRIMARY KEY,
    event_id INTEGER NOT NULL REFERENCES events(id),
    participant_id INTEGER NOT NULL REFERENCES users(id),
    status VARCHAR(10) NOT NULL,
    created TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(event_id, participant_id),
    CHECK (status IN ('LIKE', 'DISLIKE'))
);`

const createEventsDateIndex = `
CREATE INDEX IF NOT EXISTS events_event_date_idx ON events (event_date);
CREATE INDEX IF NOT EXISTS events_search_vector_idx ON events USING GIN (search_vector);`
