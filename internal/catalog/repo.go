package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
)

// ListFilter narrows the product listing.
type ListFilter struct {
	Category   string
	OnlyActive bool
	Limit      int
	Offset     int
}

// Repository manages persistence for products, variants and stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
	IncrementStock(ctx context.Context, variantID uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Preload("Variants")
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []models.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) GetVariant(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	err := r.db.WithContext(ctx).Where("id = ?", variantID).First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "variant "+variantID.String()+" not found")
		}
		return nil, err
	}
	return &variant, nil
}

// DecrementStock only succeeds when enough stock remains; the WHERE guard
// makes concurrent over-decrements impossible without row locks.
func (r *repository) DecrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND available_stock >= ?", variantID, qty).
		Update("available_stock", gorm.Expr("available_stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for variant "+variantID.String())
	}
	return nil
}

func (r *repository) IncrementStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ?", variantID).
		Update("available_stock", gorm.Expr("available_stock + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "variant "+variantID.String()+" not found")
	}
	return nil
}
