package wallets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

// DebitInput charges a wallet as part of an order transaction.
type DebitInput struct {
	UserID      uuid.UUID
	Amount      int64
	PaymentMode enums.PaymentMode
	OrderID     *uuid.UUID
	Remark      *string
}

// CreditInput grants credits inside the caller's transaction.
type CreditInput struct {
	UserID  uuid.UUID
	Amount  int64
	Type    enums.TxnType
	OrderID *uuid.UUID
	Remark  *string
	Source  string
}

// AdjustInput is a single-user HR/Admin balance adjustment (signed amount).
type AdjustInput struct {
	UserID uuid.UUID
	Amount int64
	Remark *string
}

// BulkAllocateInput tops up every active wallet in a company.
type BulkAllocateInput struct {
	CompanyID uuid.UUID
	Amount    int64
	Remark    *string
}

// Service exposes wallet reads and the guarded balance mutations.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ProvisionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error)
	Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error)
	Debit(ctx context.Context, tx *gorm.DB, input DebitInput) (*models.WalletTransaction, error)
	Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.WalletTransaction, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.WalletTransaction, error)
	BulkAllocate(ctx context.Context, input BulkAllocateInput) (int, error)
}

type service struct {
	repo   Repository
	client *db.Client
	outbox *outbox.Service
	cfg    config.WalletConfig
}

// NewService wires a wallet service with its dependencies.
func NewService(repo Repository, client *db.Client, outboxSvc *outbox.Service, cfg config.WalletConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{repo: repo, client: client, outbox: outboxSvc, cfg: cfg}, nil
}

func (s *service) expiry() time.Time {
	days := s.cfg.DefaultExpiryDays
	if days <= 0 {
		days = 365
	}
	return time.Now().AddDate(0, 0, days)
}

// GetOrCreate is retained as a backfill path; new users get wallets at
// provisioning time.
func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		return nil, err
	}

	wallet = &models.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   0,
		ExpiresAt: s.expiry(),
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		if db.IsUniqueViolation(err, "ux_wallets_user_id", "wallets.user_id") {
			return s.repo.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return wallet, nil
}

// ProvisionTx creates the wallet inside the caller's transaction, used by user
// provisioning so the user and wallet commit together.
func (s *service) ProvisionTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Wallet, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	wallet := &models.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   0,
		ExpiresAt: s.expiry(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, wallet); err != nil {
		return nil, err
	}
	return wallet, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

// Debit charges the wallet and appends the PURCHASE ledger row in the same
// transaction as the caller's order insert. Cash purchases skip the balance
// change but still get a ledger row with the unchanged balance.
func (s *service) Debit(ctx context.Context, tx *gorm.DB, input DebitInput) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	mode := input.PaymentMode
	if mode == "" {
		mode = enums.PaymentModeCredits
	}
	if !mode.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid payment mode")
	}

	repo := s.repo.WithTx(tx)
	wallet, err := repo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if mode == enums.PaymentModeCredits {
		if err := repo.DebitBalance(ctx, wallet.ID, input.Amount); err != nil {
			return nil, err
		}
	}
	balanceAfter, err := repo.CurrentBalance(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		UserID:       input.UserID,
		Amount:       input.Amount,
		Direction:    enums.TxnDirectionDebit,
		Type:         enums.TxnTypePurchase,
		PaymentMode:  mode,
		BalanceAfter: balanceAfter,
		OrderID:      input.OrderID,
		Remark:       input.Remark,
	}
	if err := repo.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Credit grants credits inside the caller's transaction and emits a
// wallet_credited event through the outbox.
func (s *service) Credit(ctx context.Context, tx *gorm.DB, input CreditInput) (*models.WalletTransaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	txnType := input.Type
	if txnType == "" {
		txnType = enums.TxnTypeCredit
	}
	if !txnType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid transaction type")
	}

	repo := s.repo.WithTx(tx)
	wallet, err := repo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if err := repo.CreditBalance(ctx, wallet.ID, input.Amount); err != nil {
		return nil, err
	}
	balanceAfter, err := repo.CurrentBalance(ctx, wallet.ID)
	if err != nil {
		return nil, err
	}

	txn := &models.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		UserID:       input.UserID,
		Amount:       input.Amount,
		Direction:    enums.TxnDirectionCredit,
		Type:         txnType,
		PaymentMode:  enums.PaymentModeCredits,
		BalanceAfter: balanceAfter,
		OrderID:      input.OrderID,
		Remark:       input.Remark,
	}
	if err := repo.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventWalletCredited,
		AggregateType: enums.AggregateWallet,
		AggregateID:   wallet.ID,
		Version:       1,
		Data: payloads.WalletCreditedEvent{
			WalletID:     wallet.ID,
			UserID:       input.UserID,
			Amount:       input.Amount,
			BalanceAfter: balanceAfter,
			Source:       input.Source,
		},
	}); err != nil {
		return nil, err
	}
	return txn, nil
}

// Adjust applies a signed single-user adjustment in its own transaction.
// Negative amounts are guarded the same way purchases are.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.WalletTransaction, error) {
	if input.Amount == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be non-zero")
	}

	var txn *models.WalletTransaction
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if input.Amount > 0 {
			created, err := s.Credit(ctx, tx, CreditInput{
				UserID: input.UserID,
				Amount: input.Amount,
				Type:   enums.TxnTypeCredit,
				Remark: input.Remark,
				Source: "adjustment",
			})
			if err != nil {
				return err
			}
			txn = created
			return nil
		}

		repo := s.repo.WithTx(tx)
		wallet, err := repo.GetByUserID(ctx, input.UserID)
		if err != nil {
			return err
		}
		amount := -input.Amount
		if err := repo.DebitBalance(ctx, wallet.ID, amount); err != nil {
			return err
		}
		balanceAfter, err := repo.CurrentBalance(ctx, wallet.ID)
		if err != nil {
			return err
		}
		txn = &models.WalletTransaction{
			ID:           uuid.New(),
			WalletID:     wallet.ID,
			UserID:       input.UserID,
			Amount:       amount,
			Direction:    enums.TxnDirectionDebit,
			Type:         enums.TxnTypeCredit,
			PaymentMode:  enums.PaymentModeCredits,
			BalanceAfter: balanceAfter,
			Remark:       input.Remark,
		}
		return repo.AppendTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// BulkAllocate tops up every active wallet in the company in one transaction
// and returns the number of wallets credited.
func (s *service) BulkAllocate(ctx context.Context, input BulkAllocateInput) (int, error) {
	if input.Amount <= 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	if input.CompanyID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "company id is required")
	}

	count := 0
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		walletsInCompany, err := repo.ListByCompany(ctx, input.CompanyID)
		if err != nil {
			return err
		}
		for i := range walletsInCompany {
			wallet := &walletsInCompany[i]
			if _, err := s.Credit(ctx, tx, CreditInput{
				UserID: wallet.UserID,
				Amount: input.Amount,
				Type:   enums.TxnTypeCredit,
				Remark: input.Remark,
				Source: "allocation",
			}); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
