package listings

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/api/middleware"
	"github.com/luciamendez/farmlink-backend/api/responses"
	"github.com/luciamendez/farmlink-backend/api/validators"
	"github.com/luciamendez/farmlink-backend/internal/catalog"
	"github.com/luciamendez/farmlink-backend/pkg/db/models"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
	"github.com/luciamendez/farmlink-backend/pkg/pagination"
)

type listingPayload struct {
	ID               uuid.UUID `json:"id"`
	FarmerID         uuid.UUID `json:"farmer_id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	Category         string    `json:"category"`
	Unit             string    `json:"unit"`
	PriceCents       int64     `json:"price_cents"`
	StockQty         int       `json:"stock_qty"`
	MinOrderQty      int       `json:"min_order_qty"`
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	DeliveryRadiusKm float64   `json:"delivery_radius_km"`
	IsVisible        bool      `json:"is_visible"`
	IsOrganic        bool      `json:"is_organic"`
	Tags             []string  `json:"tags,omitempty"`
	Images           []string  `json:"images,omitempty"`
	RatingAvg        float64   `json:"rating_avg"`
	RatingCount      int       `json:"rating_count"`
	DistanceKm       *float64  `json:"distance_km,omitempty"`
}

func toPayload(listing models.Listing, distanceKm *float64) listingPayload {
	return listingPayload{
		ID:               listing.ID,
		FarmerID:         listing.FarmerID,
		Title:            listing.Title,
		Description:      listing.Description,
		Category:         listing.Category.String(),
		Unit:             listing.Unit.String(),
		PriceCents:       listing.PriceCents,
		StockQty:         listing.StockQty,
		MinOrderQty:      listing.MinOrderQty,
		Lat:              listing.Lat,
		Lng:              listing.Lng,
		DeliveryRadiusKm: listing.DeliveryRadiusKm,
		IsVisible:        listing.IsVisible,
		IsOrganic:        listing.IsOrganic,
		Tags:             listing.Tags,
		Images:           listing.Images,
		RatingAvg:        listing.RatingAvg,
		RatingCount:      listing.RatingCount,
		DistanceKm:       distanceKm,
	}
}

// Search serves the public proximity query.
func Search(svc catalog.Service, defaultRadiusKm float64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := validators.ParseQueryFloat(r, "lat", true, 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, err := validators.ParseQueryFloat(r, "lng", true, 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radiusKm, err := validators.ParseQueryFloat(r, "radius_km", false, defaultRadiusKm)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organic, err := validators.ParseQueryBool(r, "organic")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := catalog.NearbyQuery{
			Lat:      lat,
			Lng:      lng,
			RadiusKm: radiusKm,
			Organic:  organic,
			Tag:      r.URL.Query().Get("tag"),
			Limit:    limit,
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseListingCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			query.Category = &category
		}

		results, err := svc.ListNearby(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]listingPayload, 0, len(results))
		for _, result := range results {
			distance := result.DistanceKm
			payload = append(payload, toPayload(result.Listing, &distance))
		}
		responses.WriteSuccess(w, payload)
	}
}

// Detail serves a single listing by id.
func Detail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.GetByID(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayload(*listing, nil))
	}
}

type createListingRequest struct {
	Title            string   `json:"title" validate:"required,max=200"`
	Description      *string  `json:"description,omitempty"`
	Category         string   `json:"category" validate:"required"`
	Unit             string   `json:"unit" validate:"required"`
	PriceCents       int64    `json:"price_cents" validate:"min=0"`
	StockQty         int      `json:"stock_qty" validate:"min=0"`
	MinOrderQty      int      `json:"min_order_qty" validate:"min=1"`
	Lat              float64  `json:"lat" validate:"latitude"`
	Lng              float64  `json:"lng" validate:"longitude"`
	DeliveryRadiusKm float64  `json:"delivery_radius_km" validate:"min=0"`
	IsVisible        *bool    `json:"is_visible,omitempty"`
	IsOrganic        bool     `json:"is_organic"`
	Tags             []string `json:"tags,omitempty"`
	Images           []string `json:"images,omitempty"`
}

// Create handles farmer listing creation.
func Create(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := enums.ParseListingCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}
		unit, err := enums.ParseListingUnit(req.Unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}

		listing, err := svc.Create(r.Context(), farmerID, catalog.CreateListingInput{
			Title:            req.Title,
			Description:      req.Description,
			Category:         category,
			Unit:             unit,
			PriceCents:       req.PriceCents,
			StockQty:         req.StockQty,
			MinOrderQty:      req.MinOrderQty,
			Lat:              req.Lat,
			Lng:              req.Lng,
			DeliveryRadiusKm: req.DeliveryRadiusKm,
			IsVisible:        req.IsVisible,
			IsOrganic:        req.IsOrganic,
			Tags:             req.Tags,
			Images:           req.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toPayload(*listing, nil))
	}
}

type updateListingRequest struct {
	Title            *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description      *string  `json:"description,omitempty"`
	Category         *string  `json:"category,omitempty"`
	Unit             *string  `json:"unit,omitempty"`
	PriceCents       *int64   `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	MinOrderQty      *int     `json:"min_order_qty,omitempty" validate:"omitempty,min=1"`
	Lat              *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng              *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	DeliveryRadiusKm *float64 `json:"delivery_radius_km,omitempty" validate:"omitempty,min=0"`
	IsVisible        *bool    `json:"is_visible,omitempty"`
	IsOrganic        *bool    `json:"is_organic,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	Images           []string `json:"images,omitempty"`
}

// Update handles farmer listing edits.
func Update(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateListingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateListingInput{
			Title:            req.Title,
			Description:      req.Description,
			PriceCents:       req.PriceCents,
			MinOrderQty:      req.MinOrderQty,
			Lat:              req.Lat,
			Lng:              req.Lng,
			DeliveryRadiusKm: req.DeliveryRadiusKm,
			IsVisible:        req.IsVisible,
			IsOrganic:        req.IsOrganic,
			Tags:             req.Tags,
			Images:           req.Images,
		}
		if req.Category != nil {
			category, err := enums.ParseListingCategory(*req.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}
		if req.Unit != nil {
			unit, err := enums.ParseListingUnit(*req.Unit)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}

		listing, err := svc.Update(r.Context(), farmerID, listingID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayload(*listing, nil))
	}
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdjustStock applies a signed restock or correction to a listing.
func AdjustStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := parseListingID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustStockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.AdjustStock(r.Context(), farmerID, listingID, req.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPayload(*listing, nil))
	}
}

// ListMine returns the acting farmer's listings, hidden ones included.
func ListMine(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farmerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.ListForFarmer(r.Context(), farmerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]listingPayload, 0, len(results))
		for _, listing := range results {
			payload = append(payload, toPayload(listing, nil))
		}
		responses.WriteSuccess(w, payload)
	}
}

func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return id, nil
}

func parseListingID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "listingId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id")
	}
	return id, nil
}
