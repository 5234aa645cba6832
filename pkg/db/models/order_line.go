package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

// OrderLine freezes the listing attributes at the moment of purchase.
// Title, unit, and price are never re-derived from the live catalog.
type OrderLine struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ListingID  uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;index"`
	FarmerID   uuid.UUID         `gorm:"column:farmer_id;type:uuid;not null;index"`
	Title      string            `gorm:"column:title;not null"`
	Unit       enums.ListingUnit `gorm:"column:unit;type:text;not null"`
	PriceCents int64             `gorm:"column:price_cents;not null"`
	Qty        int               `gorm:"column:qty;not null"`
	TotalCents int64             `gorm:"column:total_cents;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
