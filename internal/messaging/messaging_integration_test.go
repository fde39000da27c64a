//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/MomoCodeByte/final-chekelen/internal/testsupport"
)

func TestProduceConsume(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers := testsupport.SetupKafka(ctx, t)
	const topic = "order.placed.test"

	producer := NewProducer(brokers, topic)
	defer func() { _ = producer.Close() }()

	events := []struct {
		key     string
		payload any
	}{
		{"1", json.RawMessage(`{"order_id":1}`)},
		{"2", `not json at all`},
		{"3", map[string]int{"order_id": 3}},
	}
	for _, e := range events {
		var err error
		// the first write may race topic auto-creation
		for attempt := 0; attempt < 10; attempt++ {
			if err = producer.Publish(ctx, e.key, e.payload); err == nil {
				break
			}
			time.Sleep(time.Second)
		}
		if err != nil {
			t.Fatalf("publish %s: %v", e.key, err)
		}
	}

	consumer := NewConsumer(brokers, topic, "test-group", slog.New(slog.NewTextHandler(io.Discard, nil)), WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()

	var seen []string
	err := consumer.Consume(consumeCtx, func(_ context.Context, key string, payload []byte) error {
		seen = append(seen, key)
		var v map[string]int
		if err := json.Unmarshal(payload, &v); err != nil {
			return Permanent(err)
		}
		if key == "3" {
			stop()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(seen) != 3 || seen[0] != "1" || seen[1] != "2" || seen[2] != "3" {
		t.Errorf("expected keys 1,2,3 in order, got %v", seen)
	}
}

func TestConsume_StopsOnTransientError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers := testsupport.SetupKafka(ctx, t)
	const topic = "order.placed.transient"

	producer := NewProducer(brokers, topic)
	defer func() { _ = producer.Close() }()

	var err error
	for attempt := 0; attempt < 10; attempt++ {
		if err = producer.Publish(ctx, "1", json.RawMessage(`{}`)); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	consumer := NewConsumer(brokers, topic, "transient-group", slog.New(slog.NewTextHandler(io.Discard, nil)), WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	smtpDown := errors.New("smtp down")
	err = consumer.Consume(ctx, func(context.Context, string, []byte) error {
		return smtpDown
	})
	if !errors.Is(err, smtpDown) {
		t.Errorf("expected handler error to stop consumer, got %v", err)
	}
}
