package wallets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
)

// Repository manages persistence for wallets and their append-only ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Wallet, error)
	DebitBalance(ctx context.Context, walletID uuid.UUID, amount int64) error
	CreditBalance(ctx context.Context, walletID uuid.UUID, amount int64) error
	CurrentBalance(ctx context.Context, walletID uuid.UUID) (int64, error)
	AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "wallet not found")
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = wallets.user_id").
		Where("users.company_id = ? AND users.is_active = ?", companyID, true).
		Find(&wallets).Error
	return wallets, err
}

// DebitBalance only succeeds when the balance covers the amount; the WHERE
// guard makes concurrent overdrafts impossible without row locks.
func (r *repository) DebitBalance(ctx context.Context, walletID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperrors.New(apperrors.CodeValidation, "debit amount must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeInsufficientBalance, "insufficient credits")
	}
	return nil
}

func (r *repository) CreditBalance(ctx context.Context, walletID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return apperrors.New(apperrors.CodeValidation, "credit amount must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "wallet not found")
	}
	return nil
}

func (r *repository) CurrentBalance(ctx context.Context, walletID uuid.UUID) (int64, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Select("balance").Where("id = ?", walletID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.New(apperrors.CodeNotFound, "wallet not found")
		}
		return 0, err
	}
	return wallet.Balance, nil
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}
