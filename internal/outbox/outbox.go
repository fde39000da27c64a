// Package outbox stores events in the same transaction as the state change
// that produced them and relays committed events to the broker.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// NewEventID returns the id an event is deduplicated by downstream.
func NewEventID() string {
	return uuid.New().String()
}

// Insert writes an event row through q, normally the caller's open transaction.
func Insert(ctx context.Context, q Execer, eventID, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO outbox (event_id, topic, key, payload)
		VALUES ($1, $2, $3, $4)
	`, eventID, topic, key, data)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", topic, err)
	}
	return nil
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// FetchPending returns unsent events for topic, oldest first.
func (s *Store) FetchPending(ctx context.Context, topic string, limit int) ([]Record, error) {
	return fetchPending(ctx, s.db, topic, limit, "")
}

func (s *Store) MarkSent(ctx context.Context, ids []int64) error {
	return markSent(ctx, s.db, ids)
}

type querier interface {
	Execer
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func fetchPending(ctx context.Context, q querier, topic string, limit int, suffix string) ([]Record, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL AND topic = $1
		ORDER BY id
		LIMIT $2
	`+suffix, topic, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func markSent(ctx context.Context, q Execer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = ANY($1)`, pq.Array(ids))
	return err
}
