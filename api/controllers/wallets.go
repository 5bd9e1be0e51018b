package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/api/responses"
	"github.com/fitplay-hq/fitplay-backend/api/validators"
	"github.com/fitplay-hq/fitplay-backend/internal/users"
	"github.com/fitplay-hq/fitplay-backend/internal/wallets"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

type walletResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Balance   int64     `json:"balance"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type walletTxnResponse struct {
	ID           uuid.UUID  `json:"id"`
	Amount       int64      `json:"amount"`
	Direction    string     `json:"direction"`
	Type         string     `json:"type"`
	PaymentMode  string     `json:"paymentMode"`
	BalanceAfter int64      `json:"balanceAfter"`
	OrderID      *uuid.UUID `json:"orderId,omitempty"`
	Remark       *string    `json:"remark,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toWalletResponse(w *models.Wallet) walletResponse {
	return walletResponse{ID: w.ID, UserID: w.UserID, Balance: w.Balance, ExpiresAt: w.ExpiresAt}
}

func toWalletTxnResponse(t models.WalletTransaction) walletTxnResponse {
	return walletTxnResponse{
		ID:           t.ID,
		Amount:       t.Amount,
		Direction:    string(t.Direction),
		Type:         string(t.Type),
		PaymentMode:  string(t.PaymentMode),
		BalanceAfter: t.BalanceAfter,
		OrderID:      t.OrderID,
		Remark:       t.Remark,
		CreatedAt:    t.CreatedAt,
	}
}

// WalletMe returns the caller's wallet, provisioning one if it is missing.
func WalletMe(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "wallet service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wallet, err := svc.GetOrCreate(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toWalletResponse(wallet))
	}
}

func WalletMyTransactions(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "wallet service unavailable")
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

		txns, err := svc.History(r.Context(), actor.UserID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]walletTxnResponse, 0, len(txns))
		for _, t := range txns {
			out = append(out, toWalletTxnResponse(t))
		}
		responses.WriteSuccess(w, map[string]any{
			"transactions": out,
			"limit":        limit,
			"offset":       offset,
		})
	}
}

type allocateRequest struct {
	CompanyID string  `json:"companyId" validate:"required,uuid"`
	Amount    int64   `json:"amount" validate:"required,gt=0"`
	Remark    *string `json:"remark,omitempty"`
}

// WalletAllocate bulk-credits every active wallet in a company. HR may only
// target their own company.
func WalletAllocate(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := apperrors.New(apperrors.CodeInternal, "wallet service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body allocateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := uuid.Parse(body.CompanyID)
		if err != nil {
			err = apperrors.New(apperrors.CodeValidation, "companyId must be a valid UUID")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role != enums.UserRoleAdmin && companyID != actor.CompanyID {
			err = apperrors.New(apperrors.CodeForbidden, "cannot allocate credits outside your company")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.BulkAllocate(r.Context(), wallets.BulkAllocateInput{
			CompanyID: companyID,
			Amount:    body.Amount,
			Remark:    body.Remark,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"walletsCredited": count})
	}
}

type adjustRequest struct {
	UserID string  `json:"userId" validate:"required,uuid"`
	Amount int64   `json:"amount" validate:"required"`
	Remark *string `json:"remark,omitempty"`
}

// WalletAdjust applies a signed balance correction to one user's wallet. HR
// may only touch wallets inside their own company.
func WalletAdjust(svc wallets.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || userSvc == nil {
			err := apperrors.New(apperrors.CodeInternal, "wallet service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adjustRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := uuid.Parse(body.UserID)
		if err != nil {
			err = apperrors.New(apperrors.CodeValidation, "userId must be a valid UUID")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := userSvc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actor.Role != enums.UserRoleAdmin && target.CompanyID != actor.CompanyID {
			err = apperrors.New(apperrors.CodeForbidden, "cannot adjust wallets outside your company")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Adjust(r.Context(), wallets.AdjustInput{
			UserID: userID,
			Amount: body.Amount,
			Remark: body.Remark,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toWalletTxnResponse(*txn))
	}
}
