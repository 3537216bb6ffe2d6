package books

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StockRepo struct{ DB *pgxpool.Pool }

var ErrBookNotFound = errors.New("book not found")

// AdjustStock: mutasi stok satu book secara atomik di sisi DB.
// GREATEST(0, ...) menjamin stok tidak pernah negatif walau delta minus
// lebih besar dari stok saat ini, dan menutup celah read-modify-write
// antar request yang balapan.
func (r *StockRepo) AdjustStock(ctx context.Context, bookID string, delta int) (newStock int, err error) {
	err = r.DB.QueryRow(ctx, `
		UPDATE books SET stock = GREATEST(0, stock + $2), updated_at = now()
		WHERE id = $1
		RETURNING stock`, bookID, delta).Scan(&newStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, err
	}
	return newStock, nil
}

func (r *StockRepo) GetStock(ctx context.Context, bookID string) (int, error) {
	var stock int
	err := r.DB.QueryRow(ctx, `SELECT stock FROM books WHERE id=$1`, bookID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}
