package orders

import (
	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

// Actor identifies who is driving a status change.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:        {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:           {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:      {enums.OrderStatusOutForDelivery},
	enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered},
}

// CanTransition reports whether the status change is part of the lifecycle.
// Terminal states have no outgoing edges.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// fulfillmentStep reports whether the target status is one of the
// farmer-driven forward steps.
func fulfillmentStep(to enums.OrderStatus) bool {
	switch to {
	case enums.OrderStatusPreparing, enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered:
		return true
	default:
		return false
	}
}
