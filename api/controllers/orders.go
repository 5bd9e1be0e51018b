package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/api/responses"
	"github.com/fitplay-hq/fitplay-backend/api/validators"
	"github.com/fitplay-hq/fitplay-backend/internal/orders"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

type orderLineRequest struct {
	VariantID string `json:"variantId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type placeOrderRequest struct {
	ForUserID            *string            `json:"forUserId,omitempty" validate:"omitempty,uuid"`
	Lines                []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
	Phone                string             `json:"phone" validate:"required"`
	Address              string             `json:"address" validate:"required"`
	DeliveryInstructions *string            `json:"deliveryInstructions,omitempty"`
	Remarks              *string            `json:"remarks,omitempty"`
}

type orderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	VariantID uuid.UUID `json:"variantId"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     int64     `json:"price"`
}

type orderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	Code                 string              `json:"code"`
	UserID               uuid.UUID           `json:"userId"`
	CompanyID            uuid.UUID           `json:"companyId"`
	Amount               int64               `json:"amount"`
	Status               string              `json:"status"`
	IsCashPayment        bool                `json:"isCashPayment"`
	Phone                string              `json:"phone"`
	Address              string              `json:"address"`
	DeliveryInstructions *string             `json:"deliveryInstructions,omitempty"`
	Remarks              *string             `json:"remarks,omitempty"`
	Items                []orderItemResponse `json:"items"`
	CancelledAt          *time.Time          `json:"cancelledAt,omitempty"`
	DeliveredAt          *time.Time          `json:"deliveredAt,omitempty"`
	CreatedAt            time.Time           `json:"createdAt"`
}

func toOrderResponse(o *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return orderResponse{
		ID:                   o.ID,
		Code:                 o.Code,
		UserID:               o.UserID,
		CompanyID:            o.CompanyID,
		Amount:               o.Amount,
		Status:               string(o.Status),
		IsCashPayment:        o.IsCashPayment,
		Phone:                o.Phone,
		Address:              o.Address,
		DeliveryInstructions: o.DeliveryInstructions,
		Remarks:              o.Remarks,
		Items:                items,
		CancelledAt:          o.CancelledAt,
		DeliveredAt:          o.DeliveredAt,
		CreatedAt:            o.CreatedAt,
	}
}

// OrderPlace runs checkout against the caller's wallet.
func OrderPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.PlaceInput{
			Actor:                actor,
			Phone:                body.Phone,
			Address:              body.Address,
			DeliveryInstructions: body.DeliveryInstructions,
			Remarks:              body.Remarks,
		}
		if body.ForUserID != nil {
			forUserID, parseErr := uuid.Parse(*body.ForUserID)
			if parseErr != nil {
				err = apperrors.New(apperrors.CodeValidation, "forUserId must be a valid UUID")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.ForUserID = &forUserID
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

		order, err := svc.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := orders.ListFilter{Limit: limit, Offset: offset}
		if userID, parseErr := validators.ParseQueryUUID(r, "userId"); parseErr != nil {
			responses.WriteError(r.Context(), logg, w, parseErr)
			return
		} else if userID != nil {
			filter.UserID = userID
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				err = apperrors.New(apperrors.CodeValidation, "unknown order status")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.Status = &status
		}

		list, err := svc.List(r.Context(), filter, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]orderResponse, 0, len(list))
		for i := range list {
			out = append(out, toOrderResponse(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"orders": out,
			"limit":  limit,
			"offset": offset,
		})
	}
}

type orderActionRequest struct {
	Action string  `json:"action" validate:"required"`
	Reason *string `json:"reason,omitempty"`
}

// OrderTransition applies one state-machine action to an order. The reject
// action routes through cancellation so stock and credits come back.
func OrderTransition(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orderActionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Action == "cancel" {
			reason := "cancelled by user"
			if body.Reason != nil && *body.Reason != "" {
				reason = *body.Reason
			}
			order, cancelErr := svc.Cancel(r.Context(), orderID, actor, reason)
			if cancelErr != nil {
				responses.WriteError(r.Context(), logg, w, cancelErr)
				return
			}
			responses.WriteSuccess(w, toOrderResponse(order))
			return
		}

		action, err := enums.ParseOrderAction(body.Action)
		if err != nil {
			err = apperrors.New(apperrors.CodeValidation, "unknown order action")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), orderID, action, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "order service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderID"), "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), orderID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "order deleted"})
	}
}
