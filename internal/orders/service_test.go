package orders

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/luciamendez/farmlink-backend/internal/cart"
	"github.com/luciamendez/farmlink-backend/internal/inventory"
	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	"github.com/luciamendez/farmlink-backend/pkg/pagination"
	"github.com/luciamendez/farmlink-backend/pkg/types"
)

type stubRepo struct {
	mu             sync.Mutex
	order          *models.Order
	created        []*models.Order
	orderUpdates   map[string]any
	paymentUpdates map[string]any
	create         func(ctx context.Context, order *models.Order) (*models.Order, error)
	findByID       func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	listByBuyer    func(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	listBySeller   func(ctx context.Context, farmerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if s.create != nil {
		return s.create(ctx, order)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, order)
	return order, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	if s.order != nil && s.order.ID == id {
		return s.order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	if s.listByBuyer != nil {
		return s.listByBuyer(ctx, buyerID, cursor, limit)
	}
	return nil, nil
}

func (s *stubRepo) ListBySeller(ctx context.Context, farmerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	if s.listBySeller != nil {
		return s.listBySeller(ctx, farmerID, cursor, limit)
	}
	return nil, nil
}

func (s *stubRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderUpdates = updates
	return nil
}

func (s *stubRepo) UpdatePayment(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paymentUpdates = updates
	return nil
}

type stubLoader struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*models.Listing
}

func (s *stubLoader) FindForOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *listing
	return &copied, nil
}

// stubReconciler tracks stock in memory behind a mutex so concurrent
// checkouts in tests exercise the same all-or-nothing contract as the
// conditional SQL decrement.
type stubReconciler struct {
	mu       sync.Mutex
	stock    map[uuid.UUID]int
	released []inventory.ReservationRequest
}

func (s *stubReconciler) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.ReservationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range requests {
		if s.stock[req.ListingID] < req.Qty {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "short stock").
				WithDetails(inventory.ShortStockDetail{
					ListingID: req.ListingID,
					Requested: req.Qty,
					Available: s.stock[req.ListingID],
				})
		}
	}
	results := make([]inventory.ReservationResult, 0, len(requests))
	for _, req := range requests {
		s.stock[req.ListingID] -= req.Qty
		results = append(results, inventory.ReservationResult{
			LineID:    req.LineID,
			ListingID: req.ListingID,
			Qty:       req.Qty,
			Reserved:  true,
		})
	}
	return results, nil
}

func (s *stubReconciler) Release(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range requests {
		s.stock[req.ListingID] += req.Qty
		s.released = append(s.released, req)
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testAddress() types.Address {
	return types.Address{
		Line1:      "14 Orchard Lane",
		City:       "Petaluma",
		State:      "CA",
		PostalCode: "94952",
		Country:    "US",
		Lat:        38.2324,
		Lng:        -122.6367,
	}
}

func testListing(farmerID uuid.UUID, priceCents int64, stock, minQty int) *models.Listing {
	return &models.Listing{
		ID:          uuid.New(),
		FarmerID:    farmerID,
		Title:       "Heirloom Tomatoes",
		Category:    enums.ListingCategoryVegetable,
		Unit:        enums.ListingUnitKilogram,
		PriceCents:  priceCents,
		StockQty:    stock,
		MinOrderQty: minQty,
		IsVisible:   true,
	}
}

func newTestService(t *testing.T, repo Repository, loader ListingLoader, rec inventory.Reconciler, pricing cart.PricingPolicy) Service {
	t.Helper()
	svc, err := NewService(repo, loader, rec, stubTx{}, logger.New(logger.Options{ServiceName: "test"}), pricing, 50)
	require.NoError(t, err)
	return svc
}

func TestCreateOrderFreezesPricing(t *testing.T) {
	farmerID := uuid.New()
	listing := testListing(farmerID, 350, 20, 1)
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listing.ID: 20}}
	repo := &stubRepo{}
	pricing := cart.PricingPolicy{
		DeliveryFeeCents: 499,
		DiscountRate:     decimal.RequireFromString("0.1"),
	}
	svc := newTestService(t, repo, loader, rec, pricing)

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID:         uuid.New(),
		Lines:           []LineInput{{ListingID: listing.ID, Qty: 4}},
		DeliveryAddress: testAddress(),
		Provider:        "stripe",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, int64(1400), order.SubtotalCents)
	assert.Equal(t, int64(499), order.DeliveryFeeCents)
	assert.Equal(t, int64(1899), order.TotalCents)
	assert.Equal(t, order.SubtotalCents+order.DeliveryFeeCents, order.TotalCents)

	require.Len(t, order.Lines, 1)
	line := order.Lines[0]
	assert.Equal(t, listing.Title, line.Title)
	assert.Equal(t, listing.Unit, line.Unit)
	assert.Equal(t, int64(350), line.PriceCents)
	assert.Equal(t, farmerID, line.FarmerID)

	require.NotNil(t, order.Payment)
	assert.Equal(t, enums.PaymentStatusPending, order.Payment.Status)
	assert.Equal(t, "stripe", order.Payment.Provider)
	assert.Equal(t, 16, rec.stock[listing.ID])
}

func TestCreateOrderMergesDuplicateLines(t *testing.T) {
	listing := testListing(uuid.New(), 100, 10, 1)
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listing.ID: 10}}
	repo := &stubRepo{}
	svc := newTestService(t, repo, loader, rec, cart.PricingPolicy{})

	order, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: uuid.New(),
		Lines: []LineInput{
			{ListingID: listing.ID, Qty: 2},
			{ListingID: listing.ID, Qty: 3},
		},
		DeliveryAddress: testAddress(),
		Provider:        "stripe",
	})
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	assert.Equal(t, 5, order.Lines[0].Qty)
	assert.Equal(t, int64(500), order.SubtotalCents)
}

func TestCreateOrderShortStockLeavesNothingBehind(t *testing.T) {
	inStock := testListing(uuid.New(), 100, 10, 1)
	shortStock := testListing(uuid.New(), 200, 1, 1)
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{
		inStock.ID:    inStock,
		shortStock.ID: shortStock,
	}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{inStock.ID: 10, shortStock.ID: 1}}
	repo := &stubRepo{}
	svc := newTestService(t, repo, loader, rec, cart.PricingPolicy{})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID: uuid.New(),
		Lines: []LineInput{
			{ListingID: inStock.ID, Qty: 2},
			{ListingID: shortStock.ID, Qty: 5},
		},
		DeliveryAddress: testAddress(),
		Provider:        "stripe",
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Empty(t, repo.created)
	assert.Equal(t, 10, rec.stock[inStock.ID])
	assert.Equal(t, 1, rec.stock[shortStock.ID])
}

func TestCreateOrderHiddenListingUnavailable(t *testing.T) {
	listing := testListing(uuid.New(), 100, 10, 1)
	listing.IsVisible = false
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listing.ID: 10}}
	svc := newTestService(t, &stubRepo{}, loader, rec, cart.PricingPolicy{})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID:         uuid.New(),
		Lines:           []LineInput{{ListingID: listing.ID, Qty: 1}},
		DeliveryAddress: testAddress(),
		Provider:        "stripe",
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateOrderBelowMinimumQuantity(t *testing.T) {
	listing := testListing(uuid.New(), 100, 10, 5)
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listing.ID: 10}}
	svc := newTestService(t, &stubRepo{}, loader, rec, cart.PricingPolicy{})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID:         uuid.New(),
		Lines:           []LineInput{{ListingID: listing.ID, Qty: 2}},
		DeliveryAddress: testAddress(),
		Provider:        "stripe",
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateOrderSurfacesRepoConflict(t *testing.T) {
	listing := testListing(uuid.New(), 100, 10, 1)
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listing.ID: 10}}
	repo := &stubRepo{
		create: func(ctx context.Context, order *models.Order) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has a payment")
		},
	}
	svc := newTestService(t, repo, loader, rec, cart.PricingPolicy{})

	_, err := svc.Create(context.Background(), CreateOrderInput{
		BuyerID:         uuid.New(),
		Lines:           []LineInput{{ListingID: listing.ID, Qty: 1}},
		DeliveryAddress: testAddress(),
		Provider:        "stripe",
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestConcurrentCreatesNeverOversell(t *testing.T) {
	listing := testListing(uuid.New(), 100, 10, 1)
	loader := &stubLoader{listings: map[uuid.UUID]*models.Listing{listing.ID: listing}}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listing.ID: 10}}
	repo := &stubRepo{}
	svc := newTestService(t, repo, loader, rec, cart.PricingPolicy{})

	const workers = 8
	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateOrderInput{
				BuyerID:         uuid.New(),
				Lines:           []LineInput{{ListingID: listing.ID, Qty: 3}},
				DeliveryAddress: testAddress(),
				Provider:        "stripe",
			})
			if err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := len(successes)
	assert.Equal(t, 3, won)
	assert.Equal(t, 10-won*3, rec.stock[listing.ID])
	assert.Len(t, repo.created, won)
}

func TestUpdateStatusTransitionMatrix(t *testing.T) {
	admin := Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

	cases := []struct {
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{enums.OrderStatusPaid, enums.OrderStatusPreparing, true},
		{enums.OrderStatusPreparing, enums.OrderStatusOutForDelivery, true},
		{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPending, enums.OrderStatusDelivered, false},
		{enums.OrderStatusDelivered, enums.OrderStatusPreparing, false},
		{enums.OrderStatusPaid, enums.OrderStatusPending, false},
	}

	for _, tc := range cases {
		order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), Status: tc.from}
		repo := &stubRepo{order: order}
		rec := &stubReconciler{stock: map[uuid.UUID]int{}}
		svc := newTestService(t, repo, &stubLoader{}, rec, cart.PricingPolicy{})

		_, err := svc.UpdateStatus(context.Background(), StatusChangeInput{
			OrderID: order.ID,
			Next:    tc.to,
			Actor:   admin,
		})
		if tc.allowed {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			typed := pkgerrors.As(err)
			require.NotNil(t, typed, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code(), "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestUpdateStatusFulfillmentRoles(t *testing.T) {
	sellingFarmer := uuid.New()
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: uuid.New(),
		Status:  enums.OrderStatusPaid,
		Lines:   []models.OrderLine{{ID: uuid.New(), FarmerID: sellingFarmer, ListingID: uuid.New(), Qty: 1}},
	}
	repo := &stubRepo{order: order}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	_, err := svc.UpdateStatus(context.Background(), StatusChangeInput{
		OrderID: order.ID,
		Next:    enums.OrderStatusPreparing,
		Actor:   Actor{UserID: uuid.New(), Role: enums.RoleFarmer},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	updated, err := svc.UpdateStatus(context.Background(), StatusChangeInput{
		OrderID: order.ID,
		Next:    enums.OrderStatusPreparing,
		Actor:   Actor{UserID: sellingFarmer, Role: enums.RoleFarmer},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, updated.Status)
}

func TestUpdateStatusRejectsSameStatus(t *testing.T) {
	admin := Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPaid,
		enums.OrderStatusDelivered,
	} {
		order := &models.Order{ID: uuid.New(), BuyerID: uuid.New(), Status: status}
		repo := &stubRepo{order: order}
		svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

		_, err := svc.UpdateStatus(context.Background(), StatusChangeInput{
			OrderID: order.ID,
			Next:    status,
			Actor:   admin,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "%s -> %s", status, status)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code(), "%s -> %s", status, status)
		assert.Nil(t, repo.orderUpdates)
	}
}

func TestUpdateStatusHidesOrderFromStrangers(t *testing.T) {
	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         uuid.New(),
		Status:          enums.OrderStatusPaid,
		DeliveryAddress: func() *types.Address { a := testAddress(); return &a }(),
		Lines:           []models.OrderLine{{ID: uuid.New(), FarmerID: uuid.New(), ListingID: uuid.New(), Qty: 2}},
	}
	repo := &stubRepo{order: order}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	leaked, err := svc.UpdateStatus(context.Background(), StatusChangeInput{
		OrderID: order.ID,
		Next:    enums.OrderStatusPaid,
		Actor:   Actor{UserID: uuid.New(), Role: enums.RoleConsumer},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	assert.Nil(t, leaked)
}

func TestCancelReleasesStockAndFlagsRefund(t *testing.T) {
	buyerID := uuid.New()
	listingID := uuid.New()
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.OrderStatusPaid,
		Lines:   []models.OrderLine{{ID: uuid.New(), ListingID: listingID, Qty: 4}},
		Payment: &models.Payment{ID: uuid.New(), Status: enums.PaymentStatusSucceeded},
	}
	repo := &stubRepo{order: order}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listingID: 6}}
	svc := newTestService(t, repo, &stubLoader{}, rec, cart.PricingPolicy{})

	cancelled, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID,
		Reason:  "changed my mind",
		Actor:   Actor{UserID: buyerID, Role: enums.RoleConsumer},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "changed my mind", *cancelled.CancellationReason)
	assert.Equal(t, 10, rec.stock[listingID])
	assert.Equal(t, enums.PaymentStatusRefunded, cancelled.Payment.Status)
	assert.Equal(t, enums.PaymentStatusRefunded, repo.paymentUpdates["status"])
}

func TestCancelIsIdempotent(t *testing.T) {
	buyerID := uuid.New()
	listingID := uuid.New()
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.OrderStatusCancelled,
		Lines:   []models.OrderLine{{ID: uuid.New(), ListingID: listingID, Qty: 4}},
	}
	repo := &stubRepo{order: order}
	rec := &stubReconciler{stock: map[uuid.UUID]int{listingID: 10}}
	svc := newTestService(t, repo, &stubLoader{}, rec, cart.PricingPolicy{})

	cancelled, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID,
		Actor:   Actor{UserID: buyerID, Role: enums.RoleConsumer},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Empty(t, rec.released)
	assert.Equal(t, 10, rec.stock[listingID])
}

func TestCancelHidesCancelledOrderFromStrangers(t *testing.T) {
	order := &models.Order{
		ID:              uuid.New(),
		BuyerID:         uuid.New(),
		Status:          enums.OrderStatusCancelled,
		DeliveryAddress: func() *types.Address { a := testAddress(); return &a }(),
		Lines:           []models.OrderLine{{ID: uuid.New(), ListingID: uuid.New(), Qty: 4}},
	}
	repo := &stubRepo{order: order}
	rec := &stubReconciler{stock: map[uuid.UUID]int{}}
	svc := newTestService(t, repo, &stubLoader{}, rec, cart.PricingPolicy{})

	leaked, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID,
		Actor:   Actor{UserID: uuid.New(), Role: enums.RoleConsumer},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	assert.Nil(t, leaked)
	assert.Empty(t, rec.released)
}

func TestCancelForbiddenForOtherUsers(t *testing.T) {
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: uuid.New(),
		Status:  enums.OrderStatusPending,
	}
	repo := &stubRepo{order: order}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	_, err := svc.Cancel(context.Background(), CancelInput{
		OrderID: order.ID,
		Actor:   Actor{UserID: uuid.New(), Role: enums.RoleConsumer},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestRecordPaymentResultAdvancesPendingOrder(t *testing.T) {
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: uuid.New(),
		Status:  enums.OrderStatusPending,
		Payment: &models.Payment{ID: uuid.New(), Status: enums.PaymentStatusPending},
	}
	repo := &stubRepo{order: order}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	err := svc.RecordPaymentResult(context.Background(), PaymentResultInput{
		OrderID:           order.ID,
		ProviderPaymentID: "pi_123",
		Status:            enums.PaymentStatusSucceeded,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusSucceeded, repo.paymentUpdates["status"])
	assert.Equal(t, "pi_123", repo.paymentUpdates["provider_payment_id"])
	assert.NotNil(t, repo.paymentUpdates["paid_at"])
	assert.Equal(t, enums.OrderStatusPaid, repo.orderUpdates["status"])
}

func TestRecordPaymentResultFailureKeepsOrderPending(t *testing.T) {
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: uuid.New(),
		Status:  enums.OrderStatusPending,
		Payment: &models.Payment{ID: uuid.New(), Status: enums.PaymentStatusPending},
	}
	repo := &stubRepo{order: order}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	err := svc.RecordPaymentResult(context.Background(), PaymentResultInput{
		OrderID: order.ID,
		Status:  enums.PaymentStatusFailed,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, repo.paymentUpdates["status"])
	assert.Nil(t, repo.orderUpdates)
}

func TestGetByIDVisibility(t *testing.T) {
	buyerID := uuid.New()
	farmerID := uuid.New()
	order := &models.Order{
		ID:      uuid.New(),
		BuyerID: buyerID,
		Status:  enums.OrderStatusPending,
		Lines:   []models.OrderLine{{ID: uuid.New(), FarmerID: farmerID, Qty: 1}},
	}
	repo := &stubRepo{order: order}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	_, err := svc.GetByID(context.Background(), order.ID, Actor{UserID: buyerID, Role: enums.RoleConsumer})
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), order.ID, Actor{UserID: farmerID, Role: enums.RoleFarmer})
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), order.ID, Actor{UserID: uuid.New(), Role: enums.RoleConsumer})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
}

func TestListForBuyerBuildsNextCursor(t *testing.T) {
	buyerID := uuid.New()
	orders := make([]models.Order, 3)
	for i := range orders {
		orders[i] = models.Order{ID: uuid.New(), BuyerID: buyerID}
	}
	repo := &stubRepo{
		listByBuyer: func(ctx context.Context, id uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
			assert.Equal(t, buyerID, id)
			assert.Equal(t, 3, limit)
			return orders, nil
		},
	}
	svc := newTestService(t, repo, &stubLoader{}, &stubReconciler{stock: map[uuid.UUID]int{}}, cart.PricingPolicy{})

	page, err := svc.ListForBuyer(context.Background(), buyerID, pagination.Params{Limit: 2})
	require.NoError(t, err)

	assert.Len(t, page.Orders, 2)
	assert.NotEmpty(t, page.NextCursor)

	cursor, err := pagination.ParseCursor(page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, page.Orders[1].ID, cursor.ID)
}
