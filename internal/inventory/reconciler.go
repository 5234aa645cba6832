package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
)

// ReservationRequest asks for qty units of a listing's stock.
type ReservationRequest struct {
	LineID    uuid.UUID
	ListingID uuid.UUID
	Qty       int
}

// ReservationResult reports the outcome for a single request line.
type ReservationResult struct {
	LineID    uuid.UUID
	ListingID uuid.UUID
	Qty       int
	Reserved  bool
	Reason    string
}

// ShortStockDetail identifies the line that could not be covered.
type ShortStockDetail struct {
	ListingID uuid.UUID `json:"listing_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

// Reconciler is the sole mutation path for listing stock driven by order
// activity. Every decrement is a single conditional UPDATE so concurrent
// checkouts serialize on the row without reading stale counts.
type Reconciler interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error)
	Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error
}

type reconciler struct {
	logg *logger.Logger
}

// NewReconciler builds the stock reconciler.
func NewReconciler(logg *logger.Logger) (Reconciler, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &reconciler{logg: logg}, nil
}

// Reserve decrements stock for every request or none of them. On the first
// line that cannot be covered, increments already applied in this call are
// compensated and the failure names the losing line.
func (r *reconciler) Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	for _, req := range requests {
		if req.ListingID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
		}
	}

	results := make([]ReservationResult, 0, len(requests))
	reserved := make([]ReservationRequest, 0, len(requests))

	for _, req := range requests {
		res := tx.WithContext(ctx).Exec(`
			UPDATE listings
			SET stock_qty = stock_qty - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND is_visible AND stock_qty >= ?
		`, req.Qty, req.ListingID, req.Qty)
		if res.Error != nil {
			rollbackErr := r.compensate(ctx, tx, reserved)
			return nil, multierr.Append(
				pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock"),
				rollbackErr,
			)
		}

		if res.RowsAffected == 0 {
			available, reason := r.diagnose(ctx, tx, req)
			if rollbackErr := r.compensate(ctx, tx, reserved); rollbackErr != nil {
				return nil, multierr.Append(
					pkgerrors.New(pkgerrors.CodeInsufficientStock, reason),
					rollbackErr,
				)
			}
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, reason).
				WithDetails(ShortStockDetail{
					ListingID: req.ListingID,
					Requested: req.Qty,
					Available: available,
				})
		}

		reserved = append(reserved, req)
		results = append(results, ReservationResult{
			LineID:    req.LineID,
			ListingID: req.ListingID,
			Qty:       req.Qty,
			Reserved:  true,
		})
	}

	return results, nil
}

// Release returns previously reserved stock. A listing that no longer
// exists is logged and skipped; cancellation must not fail because a row
// went away.
func (r *reconciler) Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}
	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}
		res := tx.WithContext(ctx).Exec(`
			UPDATE listings
			SET stock_qty = stock_qty + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, req.Qty, req.ListingID)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
		}
		if res.RowsAffected == 0 {
			r.logg.Warn(r.logg.WithListingID(ctx, req.ListingID.String()), "stock release target missing")
		}
	}
	return nil
}

func (r *reconciler) compensate(ctx context.Context, tx *gorm.DB, reserved []ReservationRequest) error {
	var errs error
	for _, req := range reserved {
		res := tx.WithContext(ctx).Exec(`
			UPDATE listings
			SET stock_qty = stock_qty + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, req.Qty, req.ListingID)
		if res.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("compensate listing %s: %w", req.ListingID, res.Error))
		}
	}
	return errs
}

func (r *reconciler) diagnose(ctx context.Context, tx *gorm.DB, req ReservationRequest) (int, string) {
	var row struct {
		StockQty  int
		IsVisible bool
	}
	err := tx.WithContext(ctx).
		Table("listings").
		Select("stock_qty", "is_visible").
		Where("id = ?", req.ListingID).
		Take(&row).Error
	if err != nil {
		return 0, fmt.Sprintf("listing %s unavailable", req.ListingID)
	}
	if !row.IsVisible {
		return 0, fmt.Sprintf("listing %s unavailable", req.ListingID)
	}
	return row.StockQty, fmt.Sprintf("listing %s has %d of %d requested", req.ListingID, row.StockQty, req.Qty)
}
