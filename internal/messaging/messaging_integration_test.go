//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/mbravoz/drop-storefront/internal/domain"
	"github.com/mbravoz/drop-storefront/internal/messaging"
	"github.com/mbravoz/drop-storefront/test"
)

func TestPublishConsumeRoundTrip(t *testing.T) {
	ctx := context.Background()
	brokers, cleanup := test.SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderPaid)
	defer func() { _ = producer.Close() }()

	event := domain.OrderPaidEvent{
		OrderID:       "ord-1",
		ProductID:     1,
		NumeroSerie:   42,
		Zona:          domain.ZoneCapital,
		MontoFinal:    25060,
		CustomerEmail: "ana@example.com",
		Timestamp:     time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderPaid, "test-group", logger,
		messaging.WithStartOffset(kafka.FirstOffset),
	)
	defer func() { _ = consumer.Close() }()

	received := make(chan domain.OrderPaidEvent, 1)
	consumeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	go func() {
		_ = consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
			var got domain.OrderPaidEvent
			if err := json.Unmarshal(payload, &got); err != nil {
				return err
			}
			received <- got
			return nil
		})
	}()

	select {
	case got := <-received:
		if got.OrderID != event.OrderID || got.NumeroSerie != event.NumeroSerie {
			t.Errorf("received = %+v, want %+v", got, event)
		}
	case <-consumeCtx.Done():
		t.Fatal("event never arrived")
	}
}
