package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	allowed := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:        {enums.OrderStatusPaid, enums.OrderStatusCancelled},
		enums.OrderStatusPaid:           {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
		enums.OrderStatusPreparing:      {enums.OrderStatusOutForDelivery},
		enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered},
	}

	all := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPaid,
		enums.OrderStatusPreparing,
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		assert.True(t, status.IsTerminal())
		for _, to := range []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusPaid,
			enums.OrderStatusPreparing,
			enums.OrderStatusOutForDelivery,
			enums.OrderStatusDelivered,
			enums.OrderStatusCancelled,
		} {
			assert.False(t, CanTransition(status, to), "%s -> %s", status, to)
		}
	}
}
