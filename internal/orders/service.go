package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/luciamendez/farmlink-backend/internal/cart"
	"github.com/luciamendez/farmlink-backend/internal/inventory"
	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	"github.com/luciamendez/farmlink-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ListingLoader reads listings inside the order transaction so the
// snapshot and the stock decrement see the same rows.
type ListingLoader interface {
	FindForOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error)
}

// Service owns the order lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, page pagination.Params) (*Page, error)
	ListForSeller(ctx context.Context, farmerID uuid.UUID, page pagination.Params) (*Page, error)
	UpdateStatus(ctx context.Context, input StatusChangeInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelInput) (*models.Order, error)
	RecordPaymentResult(ctx context.Context, input PaymentResultInput) error
}

type service struct {
	repo       Repository
	listings   ListingLoader
	reconciler inventory.Reconciler
	tx         txRunner
	logg       *logger.Logger
	pricing    cart.PricingPolicy
	maxLines   int
}

// NewService builds the order service with the required dependencies.
func NewService(
	repo Repository,
	listings ListingLoader,
	reconciler inventory.Reconciler,
	tx txRunner,
	logg *logger.Logger,
	pricing cart.PricingPolicy,
	maxLines int,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	if reconciler == nil {
		return nil, fmt.Errorf("inventory reconciler required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxLines <= 0 {
		maxLines = 50
	}
	return &service{
		repo:       repo,
		listings:   listings,
		reconciler: reconciler,
		tx:         tx,
		logg:       logg,
		pricing:    pricing,
		maxLines:   maxLines,
	}, nil
}

// Create converts a cart snapshot into a pending order. Every listing is
// revalidated and reserved inside one transaction; any failure leaves no
// order row and no stock change behind.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := mergeLines(input.Lines)
	if err != nil {
		return nil, err
	}
	if len(lines) > s.maxLines {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("order exceeds maximum of %d lines", s.maxLines))
	}
	if strings.TrimSpace(input.Provider) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment provider required")
	}
	if _, err := input.DeliveryAddress.Value(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
	}

	var created *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderID := uuid.New()
		orderLines := make([]models.OrderLine, 0, len(lines))
		requests := make([]inventory.ReservationRequest, 0, len(lines))
		var subtotal int64

		for _, line := range lines {
			listing, err := s.listings.FindForOrder(ctx, tx, line.ListingID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return itemUnavailable(line.ListingID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
			}
			if !listing.IsVisible {
				return itemUnavailable(line.ListingID)
			}
			if line.Qty < listing.MinOrderQty {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("listing %s requires a minimum of %d", listing.ID, listing.MinOrderQty)).
					WithDetails(map[string]any{"listing_id": listing.ID, "min_order_qty": listing.MinOrderQty})
			}

			lineID := uuid.New()
			lineTotal := listing.PriceCents * int64(line.Qty)
			subtotal += lineTotal
			orderLines = append(orderLines, models.OrderLine{
				ID:         lineID,
				OrderID:    orderID,
				ListingID:  listing.ID,
				FarmerID:   listing.FarmerID,
				Title:      listing.Title,
				Unit:       listing.Unit,
				PriceCents: listing.PriceCents,
				Qty:        line.Qty,
				TotalCents: lineTotal,
			})
			requests = append(requests, inventory.ReservationRequest{
				LineID:    lineID,
				ListingID: listing.ID,
				Qty:       line.Qty,
			})
		}

		if _, err := s.reconciler.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		// Promotions only discount the advisory cart summary; the
		// persisted total is always subtotal plus delivery fee.
		fee := s.pricing.DeliveryFeeCents

		address := input.DeliveryAddress
		order := &models.Order{
			ID:               orderID,
			BuyerID:          input.BuyerID,
			Status:           enums.OrderStatusPending,
			SubtotalCents:    subtotal,
			DeliveryFeeCents: fee,
			TotalCents:       subtotal + fee,
			DeliveryAddress:  &address,
			Notes:            input.Notes,
			Lines:            orderLines,
			Payment: &models.Payment{
				ID:       uuid.New(),
				OrderID:  orderID,
				Provider: strings.TrimSpace(input.Provider),
				Status:   enums.PaymentStatusPending,
			},
		}

		persisted, err := s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		created = persisted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, created.ID.String()), "order created")
	return created, nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, page pagination.Params) (*Page, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(page.Limit)
	orders, err := s.repo.ListByBuyer(ctx, buyerID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return buildPage(orders, limit), nil
}

func (s *service) ListForSeller(ctx context.Context, farmerID uuid.UUID, page pagination.Params) (*Page, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(page.Limit)
	orders, err := s.repo.ListBySeller(ctx, farmerID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller orders")
	}
	return buildPage(orders, limit), nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusChangeInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if input.Next == enums.OrderStatusCancelled {
		return s.Cancel(ctx, CancelInput{OrderID: input.OrderID, Actor: input.Actor})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := authorizeStatusChange(order, input.Next, input.Actor); err != nil {
			return err
		}
		if !CanTransition(order.Status, input.Next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Next))
		}

		if err := repo.UpdateOrder(ctx, order.ID, statusUpdates(input.Next, nil)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, updated.ID.String()), "order status updated")
	return updated, nil
}

// Cancel releases reserved stock and marks the order cancelled. A repeat
// cancellation by the buyer or an admin returns the already-cancelled
// order without touching stock.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if input.Actor.Role != enums.RoleAdmin && order.BuyerID != input.Actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can cancel this order")
		}
		if order.Status == enums.OrderStatusCancelled {
			result = order
			return nil
		}
		if !CanTransition(order.Status, enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel order in status %s", order.Status))
		}

		requests := make([]inventory.ReservationRequest, 0, len(order.Lines))
		for _, line := range order.Lines {
			requests = append(requests, inventory.ReservationRequest{
				LineID:    line.ID,
				ListingID: line.ListingID,
				Qty:       line.Qty,
			})
		}
		if err := s.reconciler.Release(ctx, tx, requests); err != nil {
			return err
		}

		var reason *string
		if trimmed := strings.TrimSpace(input.Reason); trimmed != "" {
			reason = &trimmed
		}
		if err := repo.UpdateOrder(ctx, order.ID, statusUpdates(enums.OrderStatusCancelled, reason)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		if order.Payment != nil && order.Payment.Status == enums.PaymentStatusSucceeded {
			if err := repo.UpdatePayment(ctx, order.ID, map[string]any{
				"status": enums.PaymentStatusRefunded,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag payment for refund")
			}
			order.Payment.Status = enums.PaymentStatusRefunded
		}

		order.Status = enums.OrderStatusCancelled
		order.CancellationReason = reason
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, result.ID.String()), "order cancelled")
	return result, nil
}

// RecordPaymentResult applies the provider's verdict. Success advances a
// pending order to paid; failure is recorded without a status change.
func (s *service) RecordPaymentResult(ctx context.Context, input PaymentResultInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}

		updates := map[string]any{"status": input.Status}
		if trimmed := strings.TrimSpace(input.ProviderPaymentID); trimmed != "" {
			updates["provider_payment_id"] = trimmed
		}
		if input.Status == enums.PaymentStatusSucceeded {
			updates["paid_at"] = time.Now().UTC()
		}
		if err := repo.UpdatePayment(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment result")
		}

		if input.Status != enums.PaymentStatusSucceeded {
			return nil
		}
		if order.Status != enums.OrderStatusPending {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()),
				"payment success for order no longer pending")
			return nil
		}
		if err := repo.UpdateOrder(ctx, order.ID, statusUpdates(enums.OrderStatusPaid, nil)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		return nil
	})
}

func (s *service) loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func authorizeStatusChange(order *models.Order, next enums.OrderStatus, actor Actor) error {
	if actor.Role == enums.RoleAdmin {
		return nil
	}
	if fulfillmentStep(next) {
		if actor.Role == enums.RoleFarmer && orderContainsFarmer(order, actor.UserID) {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the selling farmer can advance fulfillment")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "status change not permitted for role")
}

func orderContainsFarmer(order *models.Order, farmerID uuid.UUID) bool {
	for _, line := range order.Lines {
		if line.FarmerID == farmerID {
			return true
		}
	}
	return false
}

func canView(order *models.Order, actor Actor) bool {
	if actor.Role == enums.RoleAdmin {
		return true
	}
	if order.BuyerID == actor.UserID {
		return true
	}
	return actor.Role == enums.RoleFarmer && orderContainsFarmer(order, actor.UserID)
}

func mergeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	merged := make([]LineInput, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.ListingID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
		}
		if line.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if i, ok := index[line.ListingID]; ok {
			merged[i].Qty += line.Qty
			continue
		}
		index[line.ListingID] = len(merged)
		merged = append(merged, line)
	}
	return merged, nil
}

func itemUnavailable(listingID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "listing unavailable").
		WithDetails(map[string]any{"listing_id": listingID})
}

func buildPage(orders []models.Order, limit int) *Page {
	page := &Page{Orders: orders}
	if len(orders) > limit {
		page.Orders = orders[:limit]
		last := page.Orders[len(page.Orders)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page
}

type listingLoaderImpl struct{}

// NewListingLoader exposes the default transactional listing reader.
func NewListingLoader() ListingLoader {
	return listingLoaderImpl{}
}

func (listingLoaderImpl) FindForOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for listing load")
	}
	var listing models.Listing
	if err := tx.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}
