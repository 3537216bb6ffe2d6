package books

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ItemInput struct {
	BookID string `json:"book_id"`
	Qty    int    `json:"qty"`
}

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrStaleTransition: status di DB sudah bukan previous_status yang
	// dipegang caller (ada update lain yang menang duluan).
	ErrStaleTransition = errors.New("order status changed concurrently")
)

// CreateOrderTx: idempotent via external_id.
// - jika external_id sudah ada -> return existing order_id + total (existed=true).
func (r *Repo) CreateOrderTx(ctx context.Context, externalID, userID string, items []ItemInput) (orderID string, total int, existed bool, err error) {
	// cek existing by external_id
	row := r.DB.QueryRow(ctx, `SELECT id, total_cents FROM orders WHERE external_id=$1`, externalID)
	if err = row.Scan(&orderID, &total); err == nil {
		return orderID, total, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", 0, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", 0, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// hitung total berdasarkan price dari table books (hindari trust dari client)
	bookIDs := make([]any, 0, len(items))
	params := ""
	for i, it := range items {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		bookIDs = append(bookIDs, it.BookID)
	}
	rows, err := tx.Query(ctx, `SELECT id, price_cents FROM books WHERE id IN (`+params+`)`, bookIDs...)
	if err != nil {
		return "", 0, false, err
	}
	prices := map[string]int{}
	for rows.Next() {
		var id string
		var price int
		if err := rows.Scan(&id, &price); err != nil {
			return "", 0, false, err
		}
		prices[id] = price
	}
	if err := rows.Err(); err != nil {
		return "", 0, false, err
	}

	for _, it := range items {
		price, ok := prices[it.BookID]
		if !ok {
			return "", 0, false, fmt.Errorf("book not found: %s", it.BookID)
		}
		if it.Qty <= 0 {
			return "", 0, false, fmt.Errorf("invalid qty for book %s", it.BookID)
		}
		total += price * it.Qty
	}

	orderID = uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, user_id, status, total_cents)
		VALUES ($1, $2, $3, 'pending', $4)
	`, orderID, externalID, userID, total)
	if err != nil {
		return "", 0, false, err
	}

	// insert items
	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items(order_id, book_id, qty, price_cents)
			VALUES ($1, $2, $3, $4)`,
			orderID, it.BookID, it.Qty, prices[it.BookID],
		)
		if err != nil {
			return "", 0, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, false, err
	}
	return orderID, total, false, nil
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// UpdateOrderStatus: compare-and-set supaya dua admin yang mengubah order
// yang sama tidak saling menimpa; pihak yang kalah dapat ErrStaleTransition.
func (r *Repo) UpdateOrderStatus(ctx context.Context, orderID string, prev, next Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=now()
		WHERE id=$1 AND status=$2`, orderID, string(prev), string(next))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		cur, err := r.GetOrderStatus(ctx, orderID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: now %s", ErrStaleTransition, cur)
	}
	return nil
}

func (r *Repo) ListOrderItems(ctx context.Context, orderID string) ([]ItemQty, error) {
	rows, err := r.DB.Query(ctx, `SELECT book_id, qty FROM order_items WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemQty
	for rows.Next() {
		var it ItemQty
		if err := rows.Scan(&it.BookID, &it.Qty); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repo) ListBooks(ctx context.Context) ([]Book, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, sku, title, author, stock, price_cents, created_at, updated_at
                                FROM books ORDER BY sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.SKU, &b.Title, &b.Author, &b.Stock, &b.PriceCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
