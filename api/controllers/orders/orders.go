package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/api/middleware"
	"github.com/luciamendez/farmlink-backend/api/responses"
	"github.com/luciamendez/farmlink-backend/api/validators"
	internalorders "github.com/luciamendez/farmlink-backend/internal/orders"
	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	"github.com/luciamendez/farmlink-backend/pkg/pagination"
	"github.com/luciamendez/farmlink-backend/pkg/types"
)

type linePayload struct {
	ID         uuid.UUID `json:"id"`
	ListingID  uuid.UUID `json:"listing_id"`
	FarmerID   uuid.UUID `json:"farmer_id"`
	Title      string    `json:"title"`
	Unit       string    `json:"unit"`
	PriceCents int64     `json:"price_cents"`
	Qty        int       `json:"qty"`
	TotalCents int64     `json:"total_cents"`
}

type paymentPayload struct {
	Provider          string     `json:"provider"`
	ProviderPaymentID *string    `json:"provider_payment_id,omitempty"`
	Status            string     `json:"status"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
}

type orderPayload struct {
	ID                  uuid.UUID       `json:"id"`
	BuyerID             uuid.UUID       `json:"buyer_id"`
	Status              string          `json:"status"`
	SubtotalCents       int64           `json:"subtotal_cents"`
	DeliveryFeeCents    int64           `json:"delivery_fee_cents"`
	TotalCents          int64           `json:"total_cents"`
	DeliveryAddress     *types.Address  `json:"delivery_address,omitempty"`
	Notes               *string         `json:"notes,omitempty"`
	CancellationReason  *string         `json:"cancellation_reason,omitempty"`
	EstimatedDeliveryAt *time.Time      `json:"estimated_delivery_at,omitempty"`
	Lines               []linePayload   `json:"lines"`
	Payment             *paymentPayload `json:"payment,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type pagePayload struct {
	Orders     []orderPayload `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func toPayload(order models.Order) orderPayload {
	payload := orderPayload{
		ID:                  order.ID,
		BuyerID:             order.BuyerID,
		Status:              order.Status.String(),
		SubtotalCents:       order.SubtotalCents,
		DeliveryFeeCents:    order.DeliveryFeeCents,
		TotalCents:          order.TotalCents,
		DeliveryAddress:     order.DeliveryAddress,
		Notes:               order.Notes,
		CancellationReason:  order.CancellationReason,
		EstimatedDeliveryAt: order.EstimatedDeliveryAt,
		Lines:               make([]linePayload, 0, len(order.Lines)),
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
	for _, line := range order.Lines {
		payload.Lines = append(payload.Lines, linePayload{
			ID:         line.ID,
			ListingID:  line.ListingID,
			FarmerID:   line.FarmerID,
			Title:      line.Title,
			Unit:       line.Unit.String(),
			PriceCents: line.PriceCents,
			Qty:        line.Qty,
			TotalCents: line.TotalCents,
		})
	}
	if order.Payment != nil {
		payload.Payment = &paymentPayload{
			Provider:          order.Payment.Provider,
			ProviderPaymentID: order.Payment.ProviderPaymentID,
			Status:            order.Payment.Status.String(),
			PaidAt:            order.Payment.PaidAt,
		}
	}
	return payload
}

type createLineRequest struct {
	ListingID string `json:"listing_id" validate:"required,uuid4"`
	Qty       int    `json:"qty" validate:"min=1"`
}

type createOrderRequest struct {
	Lines           []createLineRequest `json:"lines" validate:"required,min=1,dive"`
	DeliveryAddress types.Address       `json:"delivery_address" validate:"required"`
	Provider        string              `json:"provider" validate:"required"`
	Notes           *string             `json:"notes,omitempty"`
}

// Create turns a cart snapshot into a pending order.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]internalorders.LineInput, 0, len(req.Lines))
		for _, line := range req.Lines {
			listingID, parseErr := uuid.Parse(line.ListingID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid listing id"))
				return
			}
			lines = append(lines, internalorders.LineInput{ListingID: listingID, Qty: line.Qty})
		}

		order, err := svc.Create(r.Context(), internalorders.CreateOrderInput{
			BuyerID:         actor.UserID,
			Lines:           lines,
			DeliveryAddress: req.DeliveryAddress,
			Provider:        req.Provider,
			Notes:           req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toPayload(*order))
	}
}

// List returns the actor's orders. Farmers see orders containing their
// produce by passing role=seller; everyone else gets their buyer history.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		var page *internalorders.Page
		switch strings.TrimSpace(r.URL.Query().Get("role")) {
		case "", "buyer":
			page, err = svc.ListForBuyer(r.Context(), actor.UserID, params)
		case "seller":
			if actor.Role != enums.RoleFarmer && actor.Role != enums.RoleAdmin {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "seller view requires a farmer account"))
				return
			}
			page, err = svc.ListForSeller(r.Context(), actor.UserID, params)
		default:
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := pagePayload{
			Orders:     make([]orderPayload, 0, len(page.Orders)),
			NextCursor: page.NextCursor,
		}
		for _, order := range page.Orders {
			payload.Orders = append(payload.Orders, toPayload(order))
		}
		responses.WriteSuccess(w, payload)
	}
}

// Detail returns one order if the actor may see it.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetByID(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayload(*order))
	}
}

type statusChangeRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus advances an order through its lifecycle.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req statusChangeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		next, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), internalorders.StatusChangeInput{
			OrderID: orderID,
			Next:    next,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayload(*order))
	}
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// Cancel releases reserved stock and marks the order cancelled.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), internalorders.CancelInput{
			OrderID: orderID,
			Reason:  req.Reason,
			Actor:   actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayload(*order))
	}
}

func actorFromContext(r *http.Request) (internalorders.Actor, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return internalorders.Actor{UserID: userID, Role: role}, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}
