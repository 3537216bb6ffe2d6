package inventory

import "github.com/bookhaus/orders/internal/books"

// Status yang berarti stok sudah keluar gudang. Set yang sama juga jadi
// trigger deduksi: masuk ke salah satu status ini = stok harus dikurangi.
var deducted = map[books.Status]bool{
	books.StatusShipped:   true,
	books.StatusDelivered: true,
}

// Status yang mengembalikan stok ke availability.
var restoreTrigger = map[books.Status]bool{
	books.StatusCancelled: true,
	books.StatusRefunded:  true,
}

// ShouldDeduct: deduct sekali saja — kalau order sudah di status deducted,
// transisi lanjutan (mis. shipped -> delivered) tidak boleh deduct lagi.
func ShouldDeduct(prev, next books.Status) bool {
	return !deducted[prev] && deducted[next]
}

// ShouldRestore: hanya restore stok yang memang pernah dideduct —
// cancel atas order yang masih pending tidak menambah stok hantu.
func ShouldRestore(prev, next books.Status) bool {
	return deducted[prev] && restoreTrigger[next]
}

// Movement mengklasifikasi transisi ke arah mutasi stoknya.
// ok=false artinya transisi ini no-op untuk inventory (kasus paling umum,
// mis. pending -> processing). ShouldDeduct dan ShouldRestore mutually
// exclusive by construction, jadi urutan cek di sini tidak ambigu.
func Movement(prev, next books.Status) (m books.StockMovement, ok bool) {
	switch {
	case ShouldDeduct(prev, next):
		return books.MovementDeduct, true
	case ShouldRestore(prev, next):
		return books.MovementRestore, true
	}
	return "", false
}

// Multiplier: -1 untuk deduct, +1 untuk restore.
func Multiplier(m books.StockMovement) int {
	if m == books.MovementDeduct {
		return -1
	}
	return 1
}
