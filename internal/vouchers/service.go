package vouchers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/internal/wallets"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	dbtypes "github.com/fitplay-hq/fitplay-backend/pkg/db/types"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

// CreateInput describes a new voucher campaign.
type CreateInput struct {
	Code       string
	Credits    int64
	CompanyIDs []uuid.UUID
	MaxUses    *int
	ExpiresAt  *time.Time
}

// RedeemInput identifies who is redeeming which code.
type RedeemInput struct {
	Code      string
	UserID    uuid.UUID
	CompanyID uuid.UUID
}

// Service creates voucher campaigns and processes redemptions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Voucher, error)
	List(ctx context.Context, onlyActive bool) ([]models.Voucher, error)
	Deactivate(ctx context.Context, voucherID uuid.UUID) error
	Redeem(ctx context.Context, input RedeemInput) (*models.WalletTransaction, error)
}

type service struct {
	repo      Repository
	walletSvc wallets.Service
	client    *db.Client
	outboxSvc *outbox.Service
}

func NewService(repo Repository, walletSvc wallets.Service, client *db.Client, outboxSvc *outbox.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("voucher repository is required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service is required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service is required")
	}
	return &service{repo: repo, walletSvc: walletSvc, client: client, outboxSvc: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Voucher, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "voucher code is required")
	}
	if input.Credits <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "voucher credits must be positive")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "max uses must be positive")
	}
	if input.ExpiresAt != nil && input.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.New(apperrors.CodeValidation, "expiry must be in the future")
	}

	voucher := &models.Voucher{
		ID:         uuid.New(),
		Code:       code,
		Credits:    input.Credits,
		CompanyIDs: dbtypes.UUIDArray(input.CompanyIDs),
		MaxUses:    input.MaxUses,
		ExpiresAt:  input.ExpiresAt,
		IsActive:   true,
	}
	if err := s.repo.Create(ctx, voucher); err != nil {
		if db.IsUniqueViolation(err, "ux_vouchers_code", "vouchers.code") {
			return nil, apperrors.New(apperrors.CodeConflict, "voucher code already exists")
		}
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("voucher_id", voucher.ID.String()).
		Str("code", voucher.Code).
		Int64("credits", voucher.Credits).
		Msg("voucher created")
	return voucher, nil
}

func (s *service) List(ctx context.Context, onlyActive bool) ([]models.Voucher, error) {
	return s.repo.List(ctx, onlyActive)
}

func (s *service) Deactivate(ctx context.Context, voucherID uuid.UUID) error {
	return s.repo.Deactivate(ctx, voucherID)
}

// Redeem validates the voucher, records the single-use redemption, and
// credits the wallet, all in one transaction. The unique index on
// (voucher_id, user_id) is the final arbiter against double redemption.
func (s *service) Redeem(ctx context.Context, input RedeemInput) (*models.WalletTransaction, error) {
	voucher, err := s.repo.GetByCode(ctx, input.Code)
	if err != nil {
		return nil, err
	}
	if !voucher.IsActive {
		return nil, apperrors.New(apperrors.CodeValidation, "voucher is no longer active")
	}
	if voucher.ExpiresAt != nil && voucher.ExpiresAt.Before(time.Now()) {
		return nil, apperrors.New(apperrors.CodeValidation, "voucher expired")
	}
	if len(voucher.CompanyIDs) > 0 && !voucher.CompanyIDs.Contains(input.CompanyID) {
		return nil, apperrors.New(apperrors.CodeForbidden, "voucher is not available for your company")
	}

	var txn *models.WalletTransaction
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		allowed, txErr := repo.IncrementUseCount(ctx, voucher.ID, voucher.MaxUses)
		if txErr != nil {
			return txErr
		}
		if !allowed {
			return apperrors.New(apperrors.CodeConflict, "voucher redemption limit reached")
		}

		credited, txErr := s.walletSvc.Credit(ctx, tx, wallets.CreditInput{
			UserID: input.UserID,
			Amount: voucher.Credits,
			Type:   enums.TxnTypeCredit,
			Remark: &voucher.Code,
			Source: "voucher",
		})
		if txErr != nil {
			return txErr
		}

		redemption := &models.VoucherRedemption{
			ID:            uuid.New(),
			VoucherID:     voucher.ID,
			UserID:        input.UserID,
			TransactionID: credited.ID,
		}
		if txErr = repo.InsertRedemption(ctx, redemption); txErr != nil {
			if db.IsUniqueViolation(txErr, "ux_voucher_redemptions_voucher_user", "voucher_redemptions.voucher_id") {
				return apperrors.New(apperrors.CodeConflict, "voucher already redeemed")
			}
			return txErr
		}

		if txErr = s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVoucherRedeemed,
			AggregateType: enums.AggregateVoucher,
			AggregateID:   voucher.ID,
			Actor:         &outbox.ActorRef{UserID: input.UserID},
			Data: payloads.VoucherRedeemedEvent{
				VoucherID: voucher.ID,
				Code:      voucher.Code,
				UserID:    input.UserID,
				Credits:   voucher.Credits,
			},
		}); txErr != nil {
			return txErr
		}

		txn = credited
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("voucher_id", voucher.ID.String()).
		Str("user_id", input.UserID.String()).
		Int64("credits", voucher.Credits).
		Msg("voucher redeemed")
	return txn, nil
}
