package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

// Payment tracks the state reported by the external payment provider.
type Payment struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Provider          string              `gorm:"column:provider;not null"`
	ProviderPaymentID *string             `gorm:"column:provider_payment_id"`
	Status            enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
