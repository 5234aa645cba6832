package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/api/responses"
	"github.com/luciamendez/farmlink-backend/api/validators"
	internalcart "github.com/luciamendez/farmlink-backend/internal/cart"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
)

type quoteLineRequest struct {
	ListingID          string `json:"listing_id" validate:"required,uuid4"`
	Qty                int    `json:"qty" validate:"min=1"`
	ExpectedPriceCents *int64 `json:"expected_price_cents,omitempty" validate:"omitempty,min=0"`
}

type quoteRequest struct {
	Lines []quoteLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// Quote revalidates a client cart against live catalog prices and stock.
func Quote(svc internalcart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]internalcart.Line, 0, len(req.Lines))
		for _, line := range req.Lines {
			listingID, err := uuid.Parse(line.ListingID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid listing id"))
				return
			}
			lines = append(lines, internalcart.Line{
				ListingID:          listingID,
				Qty:                line.Qty,
				ExpectedPriceCents: line.ExpectedPriceCents,
			})
		}

		result, err := svc.Quote(r.Context(), lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
