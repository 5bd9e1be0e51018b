package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/api/responses"
	"github.com/fitplay-hq/fitplay-backend/api/validators"
	"github.com/fitplay-hq/fitplay-backend/internal/vouchers"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

type voucherResponse struct {
	ID         uuid.UUID   `json:"id"`
	Code       string      `json:"code"`
	Credits    int64       `json:"credits"`
	CompanyIDs []uuid.UUID `json:"companyIds"`
	MaxUses    *int        `json:"maxUses,omitempty"`
	UseCount   int         `json:"useCount"`
	ExpiresAt  *time.Time  `json:"expiresAt,omitempty"`
	IsActive   bool        `json:"isActive"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func toVoucherResponse(v *models.Voucher) voucherResponse {
	return voucherResponse{
		ID:         v.ID,
		Code:       v.Code,
		Credits:    v.Credits,
		CompanyIDs: []uuid.UUID(v.CompanyIDs),
		MaxUses:    v.MaxUses,
		UseCount:   v.UseCount,
		ExpiresAt:  v.ExpiresAt,
		IsActive:   v.IsActive,
		CreatedAt:  v.CreatedAt,
	}
}

type createVoucherRequest struct {
	Code       string     `json:"code" validate:"required,min=3,max=64"`
	Credits    int64      `json:"credits" validate:"required,gt=0"`
	CompanyIDs []string   `json:"companyIds,omitempty" validate:"omitempty,dive,uuid"`
	MaxUses    *int       `json:"maxUses,omitempty" validate:"omitempty,gt=0"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// VoucherCreate registers a new voucher campaign.
func VoucherCreate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "voucher service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := vouchers.CreateInput{
			Code:      body.Code,
			Credits:   body.Credits,
			MaxUses:   body.MaxUses,
			ExpiresAt: body.ExpiresAt,
		}
		for _, raw := range body.CompanyIDs {
			companyID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				err := apperrors.New(apperrors.CodeValidation, "companyIds must contain valid UUIDs")
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CompanyIDs = append(input.CompanyIDs, companyID)
		}

		voucher, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toVoucherResponse(voucher))
	}
}

func VoucherList(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "voucher service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		onlyActive, err := validators.ParseQueryBool(r, "active", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), onlyActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]voucherResponse, 0, len(list))
		for i := range list {
			out = append(out, toVoucherResponse(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"vouchers": out})
	}
}

func VoucherDeactivate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "voucher service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucherID, err := validators.ParsePathUUID(chi.URLParam(r, "voucherID"), "voucherID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), voucherID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"message": "voucher deactivated"})
	}
}

type redeemVoucherRequest struct {
	Code string `json:"code" validate:"required"`
}

// VoucherRedeem credits the caller's wallet for a valid voucher code.
func VoucherRedeem(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "voucher service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body redeemVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Redeem(r.Context(), vouchers.RedeemInput{
			Code:      body.Code,
			UserID:    actor.UserID,
			CompanyID: actor.CompanyID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toWalletTxnResponse(*txn))
	}
}
