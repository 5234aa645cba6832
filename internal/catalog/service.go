package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/geo"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	"github.com/luciamendez/farmlink-backend/pkg/pagination"
)

// SearchPolicy bounds proximity queries.
type SearchPolicy struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

// Service exposes catalog reads and seller-side writes.
type Service interface {
	ListNearby(ctx context.Context, query NearbyQuery) ([]NearbyListing, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ListForFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Listing, error)
	Create(ctx context.Context, farmerID uuid.UUID, input CreateListingInput) (*models.Listing, error)
	Update(ctx context.Context, farmerID, listingID uuid.UUID, input UpdateListingInput) (*models.Listing, error)
	AdjustStock(ctx context.Context, farmerID, listingID uuid.UUID, delta int) (*models.Listing, error)
}

type service struct {
	repo   *Repository
	logg   *logger.Logger
	policy SearchPolicy
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo *Repository, logg *logger.Logger, policy SearchPolicy) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if policy.MaxRadiusKm <= 0 {
		return nil, fmt.Errorf("max search radius must be positive")
	}
	return &service{repo: repo, logg: logg, policy: policy}, nil
}

func (s *service) ListNearby(ctx context.Context, query NearbyQuery) ([]NearbyListing, error) {
	if !geo.ValidCoordinates(query.Lat, query.Lng) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if query.RadiusKm < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius must not be negative")
	}
	if query.RadiusKm > s.policy.MaxRadiusKm {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("radius exceeds maximum of %.0f km", s.policy.MaxRadiusKm))
	}
	if query.Category != nil && !query.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
	}

	cover := geo.CellCover(query.Lat, query.Lng, query.RadiusKm)
	candidates, err := s.repo.SearchVisible(ctx, cover, query.Category, query.Organic)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search listings")
	}

	tag := strings.ToLower(strings.TrimSpace(query.Tag))
	maxMeters := query.RadiusKm * 1000

	matches := make([]NearbyListing, 0, len(candidates))
	for _, listing := range candidates {
		distance := geo.HaversineDistance(query.Lat, query.Lng, listing.Lat, listing.Lng)
		if distance > maxMeters {
			continue
		}
		if tag != "" && !hasTag(listing.Tags, tag) {
			continue
		}
		matches = append(matches, NearbyListing{
			Listing:    listing,
			DistanceKm: distance / 1000,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Listing.CreatedAt.Before(matches[j].Listing.CreatedAt)
	})

	limit := pagination.NormalizeLimit(query.Limit)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func (s *service) ListForFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Listing, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listings, err := s.repo.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list farmer listings")
	}
	return listings, nil
}

func (s *service) Create(ctx context.Context, farmerID uuid.UUID, input CreateListingInput) (*models.Listing, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	visible := true
	if input.IsVisible != nil {
		visible = *input.IsVisible
	}

	listing := &models.Listing{
		ID:               uuid.New(),
		FarmerID:         farmerID,
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		Category:         input.Category,
		Unit:             input.Unit,
		PriceCents:       input.PriceCents,
		StockQty:         input.StockQty,
		MinOrderQty:      input.MinOrderQty,
		Lat:              input.Lat,
		Lng:              input.Lng,
		Geohash:          geo.Encode(input.Lat, input.Lng, geo.MaxPrecision),
		DeliveryRadiusKm: input.DeliveryRadiusKm,
		IsVisible:        visible,
		IsOrganic:        input.IsOrganic,
		Tags:             input.Tags,
		Images:           input.Images,
	}

	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	s.logg.Info(s.logg.WithListingID(ctx, created.ID.String()), "listing created")
	return created, nil
}

func (s *service) Update(ctx context.Context, farmerID, listingID uuid.UUID, input UpdateListingInput) (*models.Listing, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := s.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.FarmerID != farmerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to farmer")
	}

	if err := applyUpdate(listing, input); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	return saved, nil
}

func (s *service) AdjustStock(ctx context.Context, farmerID, listingID uuid.UUID, delta int) (*models.Listing, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock delta must not be zero")
	}

	listing, err := s.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.FarmerID != farmerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to farmer")
	}

	affected, err := s.repo.AdjustStock(ctx, listingID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "stock cannot go negative").
			WithDetails(map[string]any{"listing_id": listingID, "delta": delta})
	}

	return s.GetByID(ctx, listingID)
}

func validateCreate(input CreateListingInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !input.Category.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
	}
	if !input.Unit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown unit")
	}
	if input.PriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.StockQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	if input.MinOrderQty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum order quantity must be at least 1")
	}
	if !geo.ValidCoordinates(input.Lat, input.Lng) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}
	if input.DeliveryRadiusKm < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery radius must not be negative")
	}
	return nil
}

func applyUpdate(listing *models.Listing, input UpdateListingInput) error {
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "title required")
		}
		listing.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		listing.Description = input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown category")
		}
		listing.Category = *input.Category
	}
	if input.Unit != nil {
		if !input.Unit.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown unit")
		}
		listing.Unit = *input.Unit
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		listing.PriceCents = *input.PriceCents
	}
	if input.MinOrderQty != nil {
		if *input.MinOrderQty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "minimum order quantity must be at least 1")
		}
		listing.MinOrderQty = *input.MinOrderQty
	}

	coordsChanged := false
	if input.Lat != nil {
		listing.Lat = *input.Lat
		coordsChanged = true
	}
	if input.Lng != nil {
		listing.Lng = *input.Lng
		coordsChanged = true
	}
	if coordsChanged {
		if !geo.ValidCoordinates(listing.Lat, listing.Lng) {
			return pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
		}
		listing.Geohash = geo.Encode(listing.Lat, listing.Lng, geo.MaxPrecision)
	}

	if input.DeliveryRadiusKm != nil {
		if *input.DeliveryRadiusKm < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "delivery radius must not be negative")
		}
		listing.DeliveryRadiusKm = *input.DeliveryRadiusKm
	}
	if input.IsVisible != nil {
		listing.IsVisible = *input.IsVisible
	}
	if input.IsOrganic != nil {
		listing.IsOrganic = *input.IsOrganic
	}
	if input.Tags != nil {
		listing.Tags = input.Tags
	}
	if input.Images != nil {
		listing.Images = input.Images
	}
	return nil
}

func hasTag(tags []string, wanted string) bool {
	for _, tag := range tags {
		if strings.ToLower(strings.TrimSpace(tag)) == wanted {
			return true
		}
	}
	return false
}
