package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/bookhaus/orders/internal/books"
	kafkax "github.com/bookhaus/orders/internal/kafka"
	"github.com/bookhaus/orders/internal/redisx"
)

// Publisher di-satisfy oleh *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Engine      *Engine
	Redis       *redis.Client
	Producer    Publisher // publish inventory.stock.adjusted
	ServiceName string
	Log         zerolog.Logger
}

// HandleStatusChanged: dipasang sebagai handler consumer.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env books.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != books.EventOrderStatusChanged {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "inventory", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	// 3) decode payload
	p, err := kafkax.UnwrapPayload[books.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	// 4) klasifikasi + mutasi stok. Error dari Apply = lookup item gagal,
	// belum ada mutasi; buka lagi dedup key dan return err supaya offset
	// tidak di-commit dan message di-redeliver.
	movement, results, err := s.Engine.Apply(ctx, p.OrderID, p.PreviousStatus, p.NewStatus)
	if err != nil {
		_ = s.Redis.Del(ctx, dkey).Err()
		return err
	}
	if movement == "" {
		return nil // transisi tanpa efek inventory
	}

	s.Log.Info().
		Str("order_id", p.OrderID).
		Str("movement", string(movement)).
		Int("items", len(results)).
		Msg("stock adjusted")

	return s.publishAdjusted(ctx, p, movement, results, env.TraceID)
}

func (s *Service) publishAdjusted(ctx context.Context, p books.OrderStatusChangedPayload, movement books.StockMovement, results []ItemResult, trace string) error {
	items := make([]books.StockAdjustedItem, 0, len(results))
	for _, r := range results {
		it := books.StockAdjustedItem{BookID: r.BookID, Qty: r.Qty, NewStock: r.NewStock}
		if r.Err != nil {
			it.Error = r.Err.Error()
		}
		items = append(items, it)
	}

	ev := books.Envelope{
		EventID:       uuid.NewString(),
		EventType:     books.EventStockAdjusted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: p.OrderID,
		Payload: kafkax.MustMarshal(books.StockAdjustedPayload{
			OrderID:        p.OrderID,
			PreviousStatus: p.PreviousStatus,
			NewStatus:      p.NewStatus,
			Movement:       movement,
			Items:          items,
		}),
	}
	b := kafkax.MustMarshal(ev)
	s.Producer.Publish(books.PartitionKey(p.OrderID), b,
		kafkago.Header{Key: "x-event-type", Value: []byte(books.EventStockAdjusted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
