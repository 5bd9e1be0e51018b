package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/api/responses"
	"github.com/fitplay-hq/fitplay-backend/api/validators"
	"github.com/fitplay-hq/fitplay-backend/internal/orders"
	"github.com/fitplay-hq/fitplay-backend/internal/payments"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

type verifyOrderRequest struct {
	GatewayOrderID       string             `json:"gatewayOrderId" validate:"required"`
	PaymentID            string             `json:"paymentId" validate:"required"`
	Signature            string             `json:"signature" validate:"required"`
	Lines                []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
	Phone                string             `json:"phone" validate:"required"`
	Address              string             `json:"address" validate:"required"`
	DeliveryInstructions *string            `json:"deliveryInstructions,omitempty"`
	Remarks              *string            `json:"remarks,omitempty"`
}

// PaymentVerifyOrder checks the gateway signature and capture state, then
// places the order as a cash purchase.
func PaymentVerifyOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "payment service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.VerifyOrderInput{
			Actor:                actor,
			GatewayOrderID:       body.GatewayOrderID,
			PaymentID:            body.PaymentID,
			Signature:            body.Signature,
			Phone:                body.Phone,
			Address:              body.Address,
			DeliveryInstructions: body.DeliveryInstructions,
			Remarks:              body.Remarks,
		}
		for _, line := range body.Lines {
			variantID, parseErr := uuid.Parse(line.VariantID)
			if parseErr != nil {
				err = apperrors.New(apperrors.CodeValidation, "variantId must be a valid UUID")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Lines = append(input.Lines, orders.LineInput{VariantID: variantID, Quantity: line.Quantity})
		}

		order, err := svc.VerifyOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}
