package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/enums"
	"github.com/luciamendez/farmlink-backend/pkg/types"
)

// Order is the durable, price-frozen record produced at checkout.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BuyerID             uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SubtotalCents       int64             `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents    int64             `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents          int64             `gorm:"column:total_cents;not null"`
	DeliveryAddress     *types.Address    `gorm:"column:delivery_address;type:address_t"`
	Notes               *string           `gorm:"column:notes"`
	CancellationReason  *string           `gorm:"column:cancellation_reason"`
	EstimatedDeliveryAt *time.Time        `gorm:"column:estimated_delivery_at"`
	Lines               []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment             *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
