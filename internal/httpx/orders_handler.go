package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/bookhaus/orders/internal/books"
	kafkax "github.com/bookhaus/orders/internal/kafka"
	"github.com/bookhaus/orders/internal/redisx"
)

// OrderStore adalah irisan repo yang dipakai handler; interface kecil
// supaya handler bisa dites dengan fake tanpa Postgres.
type OrderStore interface {
	CreateOrderTx(ctx context.Context, externalID, userID string, items []books.ItemInput) (orderID string, total int, existed bool, err error)
	GetOrderStatus(ctx context.Context, orderID string) (books.Status, error)
	UpdateOrderStatus(ctx context.Context, orderID string, prev, next books.Status) error
	ListBooks(ctx context.Context) ([]books.Book, error)
}

// Publisher di-satisfy oleh *kafkax.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Store           OrderStore
	ProducerCreated Publisher // topic order.created
	ProducerStatus  Publisher // topic order.status.changed
	Redis           *redis.Client
	Service         string
	Log             zerolog.Logger
}

type CreateOrderReq struct {
	ExternalID string            `json:"external_id"`
	UserID     string            `json:"user_id"`
	Items      []books.ItemInput `json:"items"`
}

type CreateOrderResp struct {
	OrderID    string `json:"order_id"`
	TotalCents int    `json:"total_cents"`
	Idempotent bool   `json:"idempotent"`
}

type UpdateStatusReq struct {
	Status string `json:"status"`
}

type UpdateStatusResp struct {
	OrderID        string       `json:"order_id"`
	PreviousStatus books.Status `json:"previous_status"`
	NewStatus      books.Status `json:"new_status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Patch("/orders/{id}/status", h.updateStatus)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/books", h.listBooks)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ExternalID == "" || req.UserID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID, total, existed, err := h.Store.CreateOrderTx(ctx, req.ExternalID, req.UserID, req.Items)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Simpan shortcut idempotency di Redis (TTL 24h)
	idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalID)
	_ = h.Redis.Set(ctx, idemKey, orderID, redisx.TTLIdempotency).Err()

	// Cache status (pending) agar GET cepat
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, `{"status":"pending"}`, redisx.TTLStatusCache).Err()

	// Publish event (envelope v1)
	ev := books.Envelope{
		EventID:       uuid.NewString(),
		EventType:     books.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
	}
	ev.Payload = kafkax.MustMarshal(books.OrderCreatedPayload{
		OrderID:    orderID,
		ExternalID: req.ExternalID,
		UserID:     req.UserID,
		Items:      toItemPrices(req.Items),
		TotalCents: total,
	})
	h.ProducerCreated.Publish(books.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(books.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusAccepted, CreateOrderResp{OrderID: orderID, TotalCents: total, Idempotent: existed})
}

// updateStatus: satu-satunya pintu transisi status. Legalitas transisi
// dicek di sini (engine inventory sengaja tidak peduli); efek stok
// dikerjakan async oleh worker lewat event order.status.changed.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	var req UpdateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	next, ok := books.ParseStatus(req.Status)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status: " + req.Status})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	prev, err := h.Store.GetOrderStatus(ctx, orderID)
	if errors.Is(err, books.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if !books.CanTransition(prev, next) {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": fmt.Sprintf("illegal transition %s -> %s", prev, next),
		})
		return
	}

	if err := h.Store.UpdateOrderStatus(ctx, orderID, prev, next); err != nil {
		if errors.Is(err, books.ErrStaleTransition) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// refresh cache status
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, next), redisx.TTLStatusCache).Err()

	// Publish transisi yang sudah final ke worker inventory.
	ev := books.Envelope{
		EventID:       uuid.NewString(),
		EventType:     books.EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: orderID,
	}
	ev.Payload = kafkax.MustMarshal(books.OrderStatusChangedPayload{
		OrderID:        orderID,
		PreviousStatus: prev,
		NewStatus:      next,
	})
	h.ProducerStatus.Publish(books.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(books.EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	h.Log.Info().
		Str("order_id", orderID).
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("order status updated")

	writeJSON(w, http.StatusOK, UpdateStatusResp{OrderID: orderID, PreviousStatus: prev, NewStatus: next})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	status, err := h.Store.GetOrderStatus(ctx, orderID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	body := map[string]any{"status": status}
	b, _ := json.Marshal(body)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	bs, err := h.Store.ListBooks(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func toItemPrices(items []books.ItemInput) []books.ItemPrice {
	out := make([]books.ItemPrice, 0, len(items))
	for _, it := range items {
		out = append(out, books.ItemPrice{BookID: it.BookID, Qty: it.Qty, PriceCents: 0})
	}
	return out
}
