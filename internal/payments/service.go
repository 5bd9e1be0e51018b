package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fitplay-hq/fitplay-backend/internal/catalog"
	"github.com/fitplay-hq/fitplay-backend/internal/orders"
	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

// paisePerCredit converts wallet credits (rupees) to gateway paise.
var paisePerCredit = decimal.NewFromInt(100)

// VerifyOrderInput is a gateway-paid checkout: the signature proves the
// payment callback, the lines describe what was bought.
type VerifyOrderInput struct {
	Actor                orders.Actor
	GatewayOrderID       string
	PaymentID            string
	Signature            string
	Lines                []orders.LineInput
	Phone                string
	Address              string
	DeliveryInstructions *string
	Remarks              *string
}

// Service verifies gateway payments and places the matching cash order.
type Service interface {
	VerifyOrder(ctx context.Context, input VerifyOrderInput) (*models.Order, error)
}

type service struct {
	gateway   Gateway
	orderSvc  orders.Service
	catalog   catalog.Repository
	keySecret string
}

func NewService(gateway Gateway, orderSvc orders.Service, catalogRepo catalog.Repository, cfg config.PaymentsConfig) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service is required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if cfg.KeySecret == "" {
		return nil, fmt.Errorf("payments key secret is required")
	}
	return &service{
		gateway:   gateway,
		orderSvc:  orderSvc,
		catalog:   catalogRepo,
		keySecret: cfg.KeySecret,
	}, nil
}

func (s *service) VerifyOrder(ctx context.Context, input VerifyOrderInput) (*models.Order, error) {
	if input.GatewayOrderID == "" || input.PaymentID == "" || input.Signature == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order id, payment id and signature are required")
	}
	if !VerifySignature(s.keySecret, input.GatewayOrderID, input.PaymentID, input.Signature) {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "payment signature mismatch")
	}

	payment, err := s.gateway.FetchPayment(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Captured() {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("payment not captured, status %q", payment.Status))
	}

	total, err := s.computeTotal(ctx, input.Lines)
	if err != nil {
		return nil, err
	}
	expectedPaise := decimal.NewFromInt(total).Mul(paisePerCredit)
	if !expectedPaise.Equal(decimal.NewFromInt(payment.Amount)) {
		return nil, apperrors.New(apperrors.CodeValidation,
			fmt.Sprintf("captured amount %d paise does not match order total %d credits", payment.Amount, total))
	}

	paymentID := input.PaymentID
	order, err := s.orderSvc.Place(ctx, orders.PlaceInput{
		Actor:                input.Actor,
		Lines:                input.Lines,
		Phone:                input.Phone,
		Address:              input.Address,
		DeliveryInstructions: input.DeliveryInstructions,
		Remarks:              input.Remarks,
		IsCashPayment:        true,
		GatewayPaymentID:     &paymentID,
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("payment_id", paymentID).
		Int64("amount_paise", payment.Amount).
		Msg("gateway payment verified")
	return order, nil
}

func (s *service) computeTotal(ctx context.Context, lines []orders.LineInput) (int64, error) {
	if len(lines) == 0 {
		return 0, apperrors.New(apperrors.CodeValidation, "order must contain at least one item")
	}
	var total int64
	for _, line := range lines {
		if line.Quantity <= 0 {
			return 0, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
		variant, err := s.catalog.GetVariant(ctx, line.VariantID)
		if err != nil {
			return 0, err
		}
		product, err := s.catalog.GetProduct(ctx, variant.ProductID)
		if err != nil {
			return 0, err
		}
		total += catalog.LineTotal(catalog.VariantPrice(product, variant), line.Quantity)
	}
	return total, nil
}
