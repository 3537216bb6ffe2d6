package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled", "refunded"} {
		got, ok := ParseStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, Status(s), got)
	}
	for _, s := range []string{"", "PENDING", "shippd", "returned"} {
		_, ok := ParseStatus(s)
		assert.False(t, ok, s)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusProcessing))
	assert.True(t, CanTransition(StatusPending, StatusShipped))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))
	assert.True(t, CanTransition(StatusShipped, StatusDelivered))
	assert.True(t, CanTransition(StatusShipped, StatusRefunded))
	assert.True(t, CanTransition(StatusDelivered, StatusRefunded))

	// terminal & mundur
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusPending))
	assert.False(t, CanTransition(StatusRefunded, StatusShipped))
	assert.False(t, CanTransition(StatusShipped, StatusPending))
	assert.False(t, CanTransition(StatusPending, StatusPending))
}
