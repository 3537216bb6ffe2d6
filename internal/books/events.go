package books

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventStockAdjusted      = "StockAdjusted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "order-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type ItemQty struct {
	BookID string `json:"book_id"`
	Qty    int    `json:"qty"`
}

type ItemPrice struct {
	BookID     string `json:"book_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	ExternalID string      `json:"external_id"`
	UserID     string      `json:"user_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int         `json:"total_cents"`
}

// OrderStatusChangedPayload membawa transisi yang SUDAH diputuskan caller;
// worker inventory tinggal mengklasifikasi efek stoknya.
type OrderStatusChangedPayload struct {
	OrderID        string `json:"order_id"`
	PreviousStatus Status `json:"previous_status"`
	NewStatus      Status `json:"new_status"`
}

// StockMovement menandai arah mutasi stok untuk satu transisi.
type StockMovement string

const (
	MovementDeduct  StockMovement = "deduct"
	MovementRestore StockMovement = "restore"
)

type StockAdjustedItem struct {
	BookID   string `json:"book_id"`
	Qty      int    `json:"qty"`
	NewStock int    `json:"new_stock"`
	Error    string `json:"error,omitempty"` // terisi jika update book ini gagal
}

type StockAdjustedPayload struct {
	OrderID        string              `json:"order_id"`
	PreviousStatus Status              `json:"previous_status"`
	NewStatus      Status              `json:"new_status"`
	Movement       StockMovement       `json:"movement"` // deduct | restore
	Items          []StockAdjustedItem `json:"items"`
}
