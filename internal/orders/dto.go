package orders

import (
	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	"github.com/luciamendez/farmlink-backend/pkg/types"
)

// LineInput is one requested order line.
type LineInput struct {
	ListingID uuid.UUID
	Qty       int
}

// CreateOrderInput carries everything needed to turn a cart snapshot into
// a durable order.
type CreateOrderInput struct {
	BuyerID         uuid.UUID
	Lines           []LineInput
	DeliveryAddress types.Address
	Provider        string
	Notes           *string
}

// StatusChangeInput drives UpdateStatus.
type StatusChangeInput struct {
	OrderID uuid.UUID
	Next    enums.OrderStatus
	Actor   Actor
}

// CancelInput drives Cancel.
type CancelInput struct {
	OrderID uuid.UUID
	Reason  string
	Actor   Actor
}

// PaymentResultInput records the outcome reported by the payment provider.
type PaymentResultInput struct {
	OrderID           uuid.UUID
	ProviderPaymentID string
	Status            enums.PaymentStatus
}

// Page is one page of orders plus the cursor for the next page.
type Page struct {
	Orders     []models.Order
	NextCursor string
}
