package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

// Listing represents a farmer's produce offer in the catalog.
type Listing struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	FarmerID         uuid.UUID             `gorm:"column:farmer_id;type:uuid;not null;index"`
	Title            string                `gorm:"column:title;not null"`
	Description      *string               `gorm:"column:description"`
	Category         enums.ListingCategory `gorm:"column:category;type:text;not null;index"`
	Unit             enums.ListingUnit     `gorm:"column:unit;type:text;not null"`
	PriceCents       int64                 `gorm:"column:price_cents;not null"`
	StockQty         int                   `gorm:"column:stock_qty;not null;default:0"`
	MinOrderQty      int                   `gorm:"column:min_order_qty;not null;default:1"`
	Lat              float64               `gorm:"column:lat;not null"`
	Lng              float64               `gorm:"column:lng;not null"`
	Geohash          string                `gorm:"column:geohash;not null;index"`
	DeliveryRadiusKm float64               `gorm:"column:delivery_radius_km;not null;default:0"`
	IsVisible        bool                  `gorm:"column:is_visible;not null;default:true"`
	IsOrganic        bool                  `gorm:"column:is_organic;not null;default:false"`
	Tags             pq.StringArray        `gorm:"column:tags;type:text[]"`
	Images           pq.StringArray        `gorm:"column:images;type:text[]"`
	RatingAvg        float64               `gorm:"column:rating_avg;not null;default:0"`
	RatingCount      int                   `gorm:"column:rating_count;not null;default:0"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
