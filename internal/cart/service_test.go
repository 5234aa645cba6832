package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
)

type stubCatalog struct {
	listings map[uuid.UUID]*models.Listing
}

func (s *stubCatalog) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, ok := s.listings[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	}
	return listing, nil
}

func quoteListing(priceCents int64, stock, minQty int, visible bool) *models.Listing {
	return &models.Listing{
		ID:          uuid.New(),
		FarmerID:    uuid.New(),
		Title:       "Wildflower Honey",
		Category:    enums.ListingCategoryHoney,
		Unit:        enums.ListingUnitPiece,
		PriceCents:  priceCents,
		StockQty:    stock,
		MinOrderQty: minQty,
		IsVisible:   visible,
	}
}

func TestQuoteHappyPath(t *testing.T) {
	listing := quoteListing(850, 10, 1, true)
	catalog := &stubCatalog{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	svc, err := NewService(catalog, PricingPolicy{DeliveryFeeCents: 499})
	require.NoError(t, err)

	result, err := svc.Quote(context.Background(), []Line{{ListingID: listing.ID, Qty: 2}})
	require.NoError(t, err)

	require.Len(t, result.Lines, 1)
	assert.True(t, result.Lines[0].Available)
	assert.Equal(t, int64(1700), result.Lines[0].TotalCents)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, int64(1700), result.Summary.SubtotalCents)
	assert.Equal(t, int64(2199), result.Summary.TotalCents)
}

func TestQuoteEmptyCartRejected(t *testing.T) {
	svc, err := NewService(&stubCatalog{}, PricingPolicy{})
	require.NoError(t, err)

	_, quoteErr := svc.Quote(context.Background(), nil)
	typed := pkgerrors.As(quoteErr)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestQuoteMissingListingBecomesWarning(t *testing.T) {
	listing := quoteListing(400, 5, 1, true)
	catalog := &stubCatalog{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	svc, err := NewService(catalog, PricingPolicy{DeliveryFeeCents: 499})
	require.NoError(t, err)

	gone := uuid.New()
	result, err := svc.Quote(context.Background(), []Line{
		{ListingID: gone, Qty: 1},
		{ListingID: listing.ID, Qty: 1},
	})
	require.NoError(t, err)

	require.Len(t, result.Lines, 2)
	assert.False(t, result.Lines[0].Available)
	assert.True(t, result.Lines[1].Available)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningUnavailable, result.Warnings[0].Kind)
	assert.Equal(t, gone, result.Warnings[0].ListingID)

	// summary covers only the available line
	assert.Equal(t, int64(400), result.Summary.SubtotalCents)
}

func TestQuoteHiddenListingBecomesWarning(t *testing.T) {
	listing := quoteListing(400, 5, 1, false)
	catalog := &stubCatalog{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	svc, err := NewService(catalog, PricingPolicy{})
	require.NoError(t, err)

	result, err := svc.Quote(context.Background(), []Line{{ListingID: listing.ID, Qty: 1}})
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarningUnavailable, result.Warnings[0].Kind)
	assert.Equal(t, int64(0), result.Summary.SubtotalCents)
}

func TestQuoteSurfacesDriftStockAndMinimumWarnings(t *testing.T) {
	listing := quoteListing(900, 2, 5, true)
	catalog := &stubCatalog{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	svc, err := NewService(catalog, PricingPolicy{DiscountRate: decimal.RequireFromString("0.05")})
	require.NoError(t, err)

	stale := int64(800)
	result, err := svc.Quote(context.Background(), []Line{
		{ListingID: listing.ID, Qty: 3, ExpectedPriceCents: &stale},
	})
	require.NoError(t, err)

	kinds := make([]string, 0, len(result.Warnings))
	for _, warning := range result.Warnings {
		kinds = append(kinds, warning.Kind)
	}
	assert.ElementsMatch(t, []string{WarningPriceDrift, WarningShortStock, WarningBelowMinOrder}, kinds)

	// the line still quotes at the live price
	require.Len(t, result.Lines, 1)
	assert.Equal(t, int64(900), result.Lines[0].PriceCents)
	assert.Equal(t, int64(2700), result.Summary.SubtotalCents)
	assert.Equal(t, int64(135), result.Summary.DiscountCents)
}
