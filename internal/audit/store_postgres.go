package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore implements Store using an outbox table: events are inserted
// as JSON rows and shipped downstream (Kafka or otherwise) by whatever
// relay the deployment runs. Schema:
//
//	CREATE TABLE issuer_events (
//	    id         UUID PRIMARY KEY,
//	    issuer     TEXT NOT NULL,
//	    action     TEXT NOT NULL,
//	    payload    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed audit store. Open the handle with
// the pgx stdlib driver.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	const query = `
		INSERT INTO issuer_events (id, issuer, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query,
		event.ID, event.Issuer, string(event.Action), payload, time.Now(),
	); err != nil {
		return fmt.Errorf("insert issuer event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByIssuer(ctx context.Context, issuer string) ([]Event, error) {
	const query = `
		SELECT payload FROM issuer_events
		WHERE issuer = $1
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, issuer)
	if err != nil {
		return nil, fmt.Errorf("query issuer events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan issuer event: %w", err)
		}
		var e Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("unmarshal issuer event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EnsureSchema creates the events table if missing. Intended for dev and
// test wiring; production deployments migrate explicitly.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS issuer_events (
		    id         UUID PRIMARY KEY,
		    issuer     TEXT NOT NULL,
		    action     TEXT NOT NULL,
		    payload    JSONB NOT NULL,
		    created_at TIMESTAMPTZ NOT NULL
		)
	`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}
