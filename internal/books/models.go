package books

import "time"

type Book struct {
	ID         string
	SKU        string
	Title      string
	Author     string
	Stock      int
	PriceCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Order struct {
	ID         string
	ExternalID string
	UserID     string
	Status     Status // lihat status.go
	TotalCents int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OrderItem struct {
	ID         string
	OrderID    string
	BookID     string
	Qty        int
	PriceCents int
}
