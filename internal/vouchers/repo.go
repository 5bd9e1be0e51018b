package vouchers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
)

// Repository manages vouchers and their redemption rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, voucher *models.Voucher) error
	GetByCode(ctx context.Context, code string) (*models.Voucher, error)
	List(ctx context.Context, onlyActive bool) ([]models.Voucher, error)
	Deactivate(ctx context.Context, voucherID uuid.UUID) error
	InsertRedemption(ctx context.Context, redemption *models.VoucherRedemption) error
	IncrementUseCount(ctx context.Context, voucherID uuid.UUID, maxUses *int) (bool, error)
	CountRedemptions(ctx context.Context, voucherID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, voucher *models.Voucher) error {
	return r.db.WithContext(ctx).Create(voucher).Error
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := r.db.WithContext(ctx).
		Where("upper(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "voucher not found")
		}
		return nil, err
	}
	return &voucher, nil
}

func (r *repository) List(ctx context.Context, onlyActive bool) ([]models.Voucher, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Voucher
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) Deactivate(ctx context.Context, voucherID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", voucherID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "voucher not found")
	}
	return nil
}

func (r *repository) InsertRedemption(ctx context.Context, redemption *models.VoucherRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

// IncrementUseCount bumps use_count while enforcing max_uses in the same
// UPDATE. A zero row count means the voucher is exhausted.
func (r *repository) IncrementUseCount(ctx context.Context, voucherID uuid.UUID, maxUses *int) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", voucherID)
	if maxUses != nil {
		query = query.Where("use_count < ?", *maxUses)
	}
	result := query.Update("use_count", gorm.Expr("use_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CountRedemptions(ctx context.Context, voucherID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VoucherRedemption{}).
		Where("voucher_id = ?", voucherID).
		Count(&count).Error
	return count, err
}
