package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Relay moves committed events for one topic to a Publisher. Delivery is at
// least once: a crash between publish and commit republishes the batch.
type Relay struct {
	db        *sql.DB
	publisher Publisher
	topic     string
	batchSize int
	interval  time.Duration
	logger    *slog.Logger
}

func NewRelay(db *sql.DB, publisher Publisher, topic string, batchSize int, interval time.Duration, logger *slog.Logger) *Relay {
	return &Relay{
		db:        db,
		publisher: publisher,
		topic:     topic,
		batchSize: batchSize,
		interval:  interval,
		logger:    logger,
	}
}

// Run relays until ctx is cancelled. Failed batches are retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.RelayOnce(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			r.logger.Error("outbox relay failed", "error", err, "topic", r.topic)
		case n > 0:
			r.logger.Info("outbox events relayed", "topic", r.topic, "count", n)
		}

		if n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes one batch of pending events in id order and marks the
// published ones sent. Rows are locked with SKIP LOCKED so concurrent relays
// never publish the same batch.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	records, err := fetchPending(ctx, tx, r.topic, r.batchSize, " FOR UPDATE SKIP LOCKED")
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}

	sent := make([]int64, 0, len(records))
	var publishErr error
	for _, rec := range records {
		if err := r.publisher.Publish(ctx, rec.Key, rec.Payload); err != nil {
			publishErr = fmt.Errorf("publish event %s: %w", rec.EventID, err)
			break
		}
		sent = append(sent, rec.ID)
	}

	if err := markSent(ctx, tx, sent); err != nil {
		return 0, fmt.Errorf("mark sent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit relay batch: %w", err)
	}

	return len(sent), publishErr
}
