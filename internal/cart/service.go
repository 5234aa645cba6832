package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
)

// Warning kinds surfaced by quoting.
const (
	WarningUnavailable   = "unavailable"
	WarningShortStock    = "short_stock"
	WarningPriceDrift    = "price_drift"
	WarningBelowMinOrder = "below_min_order"
)

// LineWarning flags a cart line the buyer should review before checkout.
type LineWarning struct {
	ListingID uuid.UUID `json:"listing_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
}

// QuotedLine is a cart line revalidated against the live catalog.
type QuotedLine struct {
	ListingID  uuid.UUID `json:"listing_id"`
	Title      string    `json:"title"`
	Unit       string    `json:"unit"`
	PriceCents int64     `json:"price_cents"`
	Qty        int       `json:"qty"`
	TotalCents int64     `json:"total_cents"`
	Available  bool      `json:"available"`
}

// QuoteResult is advisory only; authoritative pricing happens when the
// order is created.
type QuoteResult struct {
	Lines    []QuotedLine  `json:"lines"`
	Summary  Summary       `json:"summary"`
	Warnings []LineWarning `json:"warnings,omitempty"`
}

type listingLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// Service recomputes cart money against live catalog prices.
type Service interface {
	Quote(ctx context.Context, lines []Line) (*QuoteResult, error)
}

type service struct {
	catalog listingLoader
	policy  PricingPolicy
}

// NewService builds the quote service.
func NewService(catalog listingLoader, policy PricingPolicy) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{catalog: catalog, policy: policy}, nil
}

func (s *service) Quote(ctx context.Context, lines []Line) (*QuoteResult, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	result := &QuoteResult{Lines: make([]QuotedLine, 0, len(lines))}
	prices := make(map[uuid.UUID]int64, len(lines))
	available := make([]Line, 0, len(lines))

	for _, line := range lines {
		if line.ListingID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		listing, err := s.catalog.GetByID(ctx, line.ListingID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				result.Lines = append(result.Lines, QuotedLine{ListingID: line.ListingID, Qty: line.Qty})
				result.Warnings = append(result.Warnings, LineWarning{
					ListingID: line.ListingID,
					Kind:      WarningUnavailable,
					Message:   "listing no longer exists",
				})
				continue
			}
			return nil, err
		}

		if !listing.IsVisible {
			result.Lines = append(result.Lines, QuotedLine{ListingID: line.ListingID, Qty: line.Qty})
			result.Warnings = append(result.Warnings, LineWarning{
				ListingID: line.ListingID,
				Kind:      WarningUnavailable,
				Message:   "listing is no longer offered",
			})
			continue
		}

		if line.ExpectedPriceCents != nil && *line.ExpectedPriceCents != listing.PriceCents {
			result.Warnings = append(result.Warnings, LineWarning{
				ListingID: line.ListingID,
				Kind:      WarningPriceDrift,
				Message:   fmt.Sprintf("price changed from %d to %d cents", *line.ExpectedPriceCents, listing.PriceCents),
			})
		}
		if listing.StockQty < line.Qty {
			result.Warnings = append(result.Warnings, LineWarning{
				ListingID: line.ListingID,
				Kind:      WarningShortStock,
				Message:   fmt.Sprintf("only %d in stock", listing.StockQty),
			})
		}
		if line.Qty < listing.MinOrderQty {
			result.Warnings = append(result.Warnings, LineWarning{
				ListingID: line.ListingID,
				Kind:      WarningBelowMinOrder,
				Message:   fmt.Sprintf("minimum order is %d", listing.MinOrderQty),
			})
		}

		prices[line.ListingID] = listing.PriceCents
		available = append(available, line)
		result.Lines = append(result.Lines, QuotedLine{
			ListingID:  line.ListingID,
			Title:      listing.Title,
			Unit:       listing.Unit.String(),
			PriceCents: listing.PriceCents,
			Qty:        line.Qty,
			TotalCents: listing.PriceCents * int64(line.Qty),
			Available:  true,
		})
	}

	result.Summary = ComputeSummary(available, func(id uuid.UUID) (int64, bool) {
		price, ok := prices[id]
		return price, ok
	}, s.policy)

	return result, nil
}
