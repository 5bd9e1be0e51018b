package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
)

// VariantView is a variant with its effective price resolved.
type VariantView struct {
	ID             uuid.UUID `json:"id"`
	SKU            string    `json:"sku"`
	Label          string    `json:"label"`
	MRP            int64     `json:"mrp"`
	Price          int64     `json:"price"`
	AvailableStock int       `json:"available_stock"`
}

// ProductView is the catalog read model served to clients.
type ProductView struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Description     *string       `json:"description,omitempty"`
	Category        string        `json:"category"`
	Tags            []string      `json:"tags"`
	DiscountPercent *int          `json:"discount_percent,omitempty"`
	Variants        []VariantView `json:"variants"`
}

// Service exposes catalog reads with pricing applied.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter) ([]ProductView, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductView, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]ProductView, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i]))
	}
	return views, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductView, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	view := toProductView(product)
	return &view, nil
}

func toProductView(product *models.Product) ProductView {
	variants := make([]VariantView, 0, len(product.Variants))
	for i := range product.Variants {
		v := &product.Variants[i]
		variants = append(variants, VariantView{
			ID:             v.ID,
			SKU:            v.SKU,
			Label:          v.Label,
			MRP:            v.MRP,
			Price:          VariantPrice(product, v),
			AvailableStock: v.AvailableStock,
		})
	}
	return ProductView{
		ID:              product.ID,
		Name:            product.Name,
		Description:     product.Description,
		Category:        product.Category,
		Tags:            product.Tags,
		DiscountPercent: product.DiscountPercent,
		Variants:        variants,
	}
}
