package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookhaus/orders/internal/books"
)

// ItemLister membaca line item milik satu order.
type ItemLister interface {
	ListOrderItems(ctx context.Context, orderID string) ([]books.ItemQty, error)
}

// StockAdjuster menerapkan delta stok ke satu book dan mengembalikan stok
// baru. Implementasi wajib clamp di nol (lihat books.StockRepo).
type StockAdjuster interface {
	AdjustStock(ctx context.Context, bookID string, delta int) (newStock int, err error)
}

// ItemResult adalah hasil per item dari satu Apply. Kegagalan satu book
// tidak menggagalkan sibling-nya; caller yang memutuskan mau diapakan.
type ItemResult struct {
	BookID   string
	Qty      int
	NewStock int
	Err      error
}

// Engine memutuskan efek inventory dari sebuah transisi status order dan
// menerapkannya per line item. Engine tidak menilai legal/tidaknya
// transisi — itu urusan caller (lihat books.CanTransition).
type Engine struct {
	Items ItemLister
	Stock StockAdjuster
	Log   zerolog.Logger
}

// Apply mengklasifikasi (prev -> next) lalu mengeksekusi mutasi stok.
//
// movement="" artinya transisi no-op: tidak ada item yang disentuh dan
// results nil. Lookup item yang gagal (termasuk order tanpa item)
// menggagalkan seluruh operasi sebelum ada mutasi. Setelah itu tiap item
// diupdate independen, best-effort; kegagalan per item tercatat di
// ItemResult.Err dan di log, bukan di error return.
func (e *Engine) Apply(ctx context.Context, orderID string, prev, next books.Status) (movement books.StockMovement, results []ItemResult, err error) {
	movement, ok := Movement(prev, next)
	if !ok {
		return "", nil, nil
	}

	items, err := e.Items.ListOrderItems(ctx, orderID)
	if err != nil {
		return "", nil, fmt.Errorf("list items for order %s: %w", orderID, err)
	}
	if len(items) == 0 {
		return "", nil, fmt.Errorf("no items for order %s", orderID)
	}

	mult := Multiplier(movement)
	results = make([]ItemResult, 0, len(items))
	for _, it := range items {
		res := ItemResult{BookID: it.BookID, Qty: it.Qty}
		res.NewStock, res.Err = e.Stock.AdjustStock(ctx, it.BookID, it.Qty*mult)
		if res.Err != nil {
			e.Log.Warn().
				Str("order_id", orderID).
				Str("book_id", it.BookID).
				Str("movement", string(movement)).
				Err(res.Err).
				Msg("stock adjust failed, skipping item")
		}
		results = append(results, res)
	}
	return movement, results, nil
}
