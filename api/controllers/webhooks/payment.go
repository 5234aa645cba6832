package webhooks

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/luciamendez/farmlink-backend/api/responses"
	"github.com/luciamendez/farmlink-backend/api/validators"
	internalorders "github.com/luciamendez/farmlink-backend/internal/orders"
	"github.com/luciamendez/farmlink-backend/pkg/enums"
	pkgerrors "github.com/luciamendez/farmlink-backend/pkg/errors"
	"github.com/luciamendez/farmlink-backend/pkg/logger"
)

type paymentEventRequest struct {
	OrderID           string `json:"order_id" validate:"required,uuid4"`
	ProviderPaymentID string `json:"provider_payment_id" validate:"required"`
	Status            string `json:"status" validate:"required"`
}

// Payment ingests the provider's asynchronous payment outcome. Providers
// retry webhooks, so the handler stays safe to replay.
func Payment(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentEventRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}
		status, err := enums.ParsePaymentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		if err := svc.RecordPaymentResult(r.Context(), internalorders.PaymentResultInput{
			OrderID:           orderID,
			ProviderPaymentID: req.ProviderPaymentID,
			Status:            status,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}
