package catalog

import (
	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
)

// CreateListingInput carries the attributes for a new listing.
type CreateListingInput struct {
	Title            string
	Description      *string
	Category         enums.ListingCategory
	Unit             enums.ListingUnit
	PriceCents       int64
	StockQty         int
	MinOrderQty      int
	Lat              float64
	Lng              float64
	DeliveryRadiusKm float64
	IsVisible        *bool
	IsOrganic        bool
	Tags             []string
	Images           []string
}

// UpdateListingInput applies partial changes; nil fields are left alone.
type UpdateListingInput struct {
	Title            *string
	Description      *string
	Category         *enums.ListingCategory
	Unit             *enums.ListingUnit
	PriceCents       *int64
	MinOrderQty      *int
	Lat              *float64
	Lng              *float64
	DeliveryRadiusKm *float64
	IsVisible        *bool
	IsOrganic        *bool
	Tags             []string
	Images           []string
}

// NearbyQuery describes a proximity search.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Category *enums.ListingCategory
	Organic  *bool
	Tag      string
	Limit    int
}

// NearbyListing pairs a listing with its distance from the query origin.
type NearbyListing struct {
	Listing    models.Listing
	DistanceKm float64
}

// StockAdjustment mutates a listing's stock by a signed delta.
type StockAdjustment struct {
	ListingID uuid.UUID
	Delta     int
}
