package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitplay-hq/fitplay-backend/internal/catalog"
	"github.com/fitplay-hq/fitplay-backend/internal/users"
	"github.com/fitplay-hq/fitplay-backend/internal/wallets"
	"github.com/fitplay-hq/fitplay-backend/pkg/db"
	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

// maxCodeRetries bounds retries when two checkouts race for the same order
// code. The unique index on orders.code makes the collision loud.
const maxCodeRetries = 3

// Actor identifies the authenticated caller for scoping decisions.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Role      enums.UserRole
}

func (a Actor) ref() *outbox.ActorRef {
	companyID := a.CompanyID
	return &outbox.ActorRef{UserID: a.UserID, CompanyID: &companyID, Role: string(a.Role)}
}

// LineInput is one requested order line.
type LineInput struct {
	VariantID uuid.UUID
	Quantity  int
}

// PlaceInput carries everything needed to place an order. ForUserID lets
// HR/Admin place on behalf of another user.
type PlaceInput struct {
	Actor                Actor
	ForUserID            *uuid.UUID
	Lines                []LineInput
	Phone                string
	Address              string
	DeliveryInstructions *string
	Remarks              *string
	IsCashPayment        bool
	GatewayPaymentID     *string
}

// Service implements checkout, the status state machine, and scoped reads.
type Service interface {
	Place(ctx context.Context, input PlaceInput) (*models.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, action enums.OrderAction, actor Actor) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error)
	Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, actor Actor) ([]models.Order, error)
}

type service struct {
	repo      Repository
	catalog   catalog.Repository
	users     users.Repository
	walletSvc wallets.Service
	client    *db.Client
	outboxSvc *outbox.Service
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	userRepo users.Repository,
	walletSvc wallets.Service,
	client *db.Client,
	outboxSvc *outbox.Service,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required")
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
	return &service{
		repo:      repo,
		catalog:   catalogRepo,
		users:     userRepo,
		walletSvc: walletSvc,
		client:    client,
		outboxSvc: outboxSvc,
	}, nil
}

// resolvedLine is a priced, snapshotted order line ready for insertion.
type resolvedLine struct {
	variant   *models.Variant
	name      string
	unitPrice int64
	quantity  int
}

func (s *service) Place(ctx context.Context, input PlaceInput) (*models.Order, error) {
	if len(input.Lines) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order must contain at least one item")
	}
	if input.Phone == "" || input.Address == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "phone and address are required")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
	}

	owner, err := s.resolveOwner(ctx, input.Actor, input.ForUserID)
	if err != nil {
		return nil, err
	}

	lines, total, err := s.resolveLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	mode := enums.PaymentModeCredits
	if input.IsCashPayment {
		mode = enums.PaymentModeCash
	}

	var placed *models.Order
	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		placed = nil
		err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
			order, txErr := s.placeTx(ctx, tx, owner, input, lines, total, mode, attempt)
			if txErr != nil {
				return txErr
			}
			placed = order
			return nil
		})
		if err != nil && db.IsUniqueViolation(err, "ux_orders_code", "orders.code") {
			continue
		}
		break
	}
	if err != nil {
		if db.IsUniqueViolation(err, "ux_orders_code", "orders.code") {
			return nil, apperrors.New(apperrors.CodeConflict, "could not allocate order code, retry the request")
		}
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("order_id", placed.ID.String()).
		Str("code", placed.Code).
		Str("user_id", owner.ID.String()).
		Int64("amount", placed.Amount).
		Bool("cash", placed.IsCashPayment).
		Msg("order placed")
	return placed, nil
}

func (s *service) placeTx(
	ctx context.Context,
	tx *gorm.DB,
	owner *models.User,
	input PlaceInput,
	lines []resolvedLine,
	total int64,
	mode enums.PaymentMode,
	attempt int,
) (*models.Order, error) {
	repo := s.repo.WithTx(tx)
	catalogRepo := s.catalog.WithTx(tx)

	for _, line := range lines {
		if err := catalogRepo.DecrementStock(ctx, line.variant.ID, line.quantity); err != nil {
			return nil, err
		}
	}

	count, err := repo.CountByUser(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("counting user orders: %w", err)
	}
	now := time.Now()

	// Codes from concurrent users can collide on the same sequence number,
	// so each retry skips ahead instead of recomputing the same code.
	order := &models.Order{
		ID:                   uuid.New(),
		Code:                 BuildCode(now, count+1+int64(attempt)),
		UserID:               owner.ID,
		CompanyID:            owner.CompanyID,
		Amount:               total,
		Status:               enums.OrderStatusPending,
		IsCashPayment:        input.IsCashPayment,
		Phone:                input.Phone,
		Address:              input.Address,
		DeliveryInstructions: input.DeliveryInstructions,
		Remarks:              input.Remarks,
		GatewayPaymentID:     input.GatewayPaymentID,
	}
	if err := repo.Create(ctx, order); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.variant.ProductID,
			VariantID: line.variant.ID,
			Name:      line.name,
			Quantity:  line.quantity,
			Price:     line.unitPrice,
		})
	}
	if err := repo.CreateItems(ctx, items); err != nil {
		return nil, fmt.Errorf("creating order items: %w", err)
	}
	order.Items = items

	remark := fmt.Sprintf("Order %s", order.Code)
	txn, err := s.walletSvc.Debit(ctx, tx, wallets.DebitInput{
		UserID:      owner.ID,
		Amount:      total,
		PaymentMode: mode,
		OrderID:     &order.ID,
		Remark:      &remark,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.SetTransactionID(ctx, order.ID, txn.ID); err != nil {
		return nil, fmt.Errorf("linking wallet transaction: %w", err)
	}
	order.TransactionID = &txn.ID

	err = s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         input.Actor.ref(),
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			Code:          order.Code,
			UserID:        owner.ID,
			CompanyID:     owner.CompanyID,
			Amount:        total,
			IsCashPayment: order.IsCashPayment,
			ItemCount:     len(items),
		},
	})
	if err != nil {
		return nil, err
	}

	if order.IsCashPayment {
		if err := s.emitFulfillment(ctx, tx, order, input.Actor); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// resolveLines prices every requested line against the live catalog. Stock is
// pre-checked here for a readable error, then enforced again by the guarded
// decrement inside the transaction.
func (s *service) resolveLines(ctx context.Context, inputs []LineInput) ([]resolvedLine, int64, error) {
	lines := make([]resolvedLine, 0, len(inputs))
	var total int64
	for _, in := range inputs {
		variant, err := s.catalog.GetVariant(ctx, in.VariantID)
		if err != nil {
			return nil, 0, err
		}
		if variant.AvailableStock < in.Quantity {
			return nil, 0, apperrors.New(apperrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for variant %s", variant.ID))
		}
		product, err := s.catalog.GetProduct(ctx, variant.ProductID)
		if err != nil {
			return nil, 0, err
		}
		if !product.IsActive {
			return nil, 0, apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("product %s is not available", product.ID))
		}
		unitPrice := catalog.VariantPrice(product, variant)
		name := product.Name
		if variant.Label != "" {
			name = fmt.Sprintf("%s (%s)", product.Name, variant.Label)
		}
		lines = append(lines, resolvedLine{
			variant:   variant,
			name:      name,
			unitPrice: unitPrice,
			quantity:  in.Quantity,
		})
		total += catalog.LineTotal(unitPrice, in.Quantity)
	}
	return lines, total, nil
}

func (s *service) resolveOwner(ctx context.Context, actor Actor, forUserID *uuid.UUID) (*models.User, error) {
	ownerID := actor.UserID
	if forUserID != nil && *forUserID != actor.UserID {
		if !actor.Role.IsElevated() {
			return nil, apperrors.New(apperrors.CodeForbidden, "cannot place orders for another user")
		}
		ownerID = *forUserID
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsActive {
		return nil, apperrors.New(apperrors.CodeForbidden, "user account is inactive")
	}
	if actor.Role == enums.UserRoleHR && owner.CompanyID != actor.CompanyID {
		return nil, apperrors.New(apperrors.CodeForbidden, "user belongs to another company")
	}
	return owner, nil
}

// transitionSources lists the statuses an order may move to the target from.
// reject is handled separately since it runs the cancellation flow.
var transitionSources = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusApproved},
	enums.OrderStatusApproved:   {enums.OrderStatusPending},
	enums.OrderStatusDispatched: {enums.OrderStatusApproved},
	enums.OrderStatusDelivered:  {enums.OrderStatusDispatched},
}

func (s *service) Transition(ctx context.Context, orderID uuid.UUID, action enums.OrderAction, actor Actor) (*models.Order, error) {
	if !actor.Role.IsElevated() {
		return nil, apperrors.New(apperrors.CodeForbidden, "order status changes require HR or admin role")
	}
	target, err := action.TargetStatus()
	if err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, err.Error())
	}
	if action == enums.OrderActionReject {
		return s.Cancel(ctx, orderID, actor, "rejected")
	}

	sources, ok := transitionSources[target]
	if !ok {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unsupported order action %q", action))
	}

	var updated *models.Order
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, txErr := repo.GetByID(ctx, orderID)
		if txErr != nil {
			return txErr
		}
		if actor.Role == enums.UserRoleHR && order.CompanyID != actor.CompanyID {
			return apperrors.New(apperrors.CodeForbidden, "order belongs to another company")
		}
		from := order.Status

		matched, txErr := repo.UpdateStatus(ctx, orderID, sources, target)
		if txErr != nil {
			return txErr
		}
		if !matched {
			return apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("order cannot move from %s to %s", from, target))
		}

		if txErr = s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderStateChangedEvent{
				OrderID: order.ID,
				Code:    order.Code,
				UserID:  order.UserID,
				From:    from,
				To:      target,
			},
		}); txErr != nil {
			return txErr
		}

		if target == enums.OrderStatusApproved && !order.IsCashPayment {
			if txErr = s.emitFulfillment(ctx, tx, order, actor); txErr != nil {
				return txErr
			}
		}

		order.Status = target
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("order_id", orderID.String()).
		Str("status", string(target)).
		Msg("order status changed")
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.Order, error) {
	var cancelled *models.Order
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)

		order, txErr := repo.GetByID(ctx, orderID)
		if txErr != nil {
			return txErr
		}
		if order.Status == enums.OrderStatusCancelled {
			return apperrors.New(apperrors.CodeStateConflict, "order already cancelled")
		}

		if actor.Role == enums.UserRoleEmployee && order.UserID != actor.UserID {
			return apperrors.New(apperrors.CodeForbidden, "order belongs to another user")
		}
		if actor.Role == enums.UserRoleHR && order.CompanyID != actor.CompanyID {
			return apperrors.New(apperrors.CodeForbidden, "order belongs to another company")
		}

		matched, txErr := repo.UpdateStatus(ctx, orderID,
			[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusApproved},
			enums.OrderStatusCancelled)
		if txErr != nil {
			return txErr
		}
		if !matched {
			return apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be cancelled", order.Status))
		}

		for _, item := range order.Items {
			if txErr = catalogRepo.IncrementStock(ctx, item.VariantID, item.Quantity); txErr != nil {
				return txErr
			}
		}

		var refund int64
		if !order.IsCashPayment {
			refund = order.Amount
			remark := fmt.Sprintf("Refund for order %s", order.Code)
			if _, txErr = s.walletSvc.Credit(ctx, tx, wallets.CreditInput{
				UserID:  order.UserID,
				Amount:  order.Amount,
				Type:    enums.TxnTypeRefund,
				OrderID: &order.ID,
				Remark:  &remark,
				Source:  "refund",
			}); txErr != nil {
				return txErr
			}
		}

		now := time.Now()
		if txErr = s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.ref(),
			Data: payloads.OrderCancelledEvent{
				OrderID:      order.ID,
				Code:         order.Code,
				UserID:       order.UserID,
				RefundAmount: refund,
				CancelledAt:  now,
				Reason:       reason,
			},
		}); txErr != nil {
			return txErr
		}

		order.Status = enums.OrderStatusCancelled
		order.CancelledAt = &now
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().
		Str("order_id", orderID.String()).
		Str("reason", reason).
		Msg("order cancelled")
	return cancelled, nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	if actor.Role != enums.UserRoleAdmin {
		return apperrors.New(apperrors.CodeForbidden, "only admins can delete orders")
	}
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.IsTerminal() {
		return apperrors.New(apperrors.CodeStateConflict, "only delivered or cancelled orders can be deleted")
	}
	return s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItems(ctx, orderID); err != nil {
			return err
		}
		return repo.Delete(ctx, orderID)
	})
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleHR:
		if order.CompanyID != actor.CompanyID {
			return nil, apperrors.New(apperrors.CodeForbidden, "order belongs to another company")
		}
	default:
		if order.UserID != actor.UserID {
			return nil, apperrors.New(apperrors.CodeForbidden, "order belongs to another user")
		}
	}
	if actor.Role != enums.UserRoleAdmin {
		order.Remarks = nil
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, actor Actor) ([]models.Order, error) {
	switch actor.Role {
	case enums.UserRoleAdmin:
	case enums.UserRoleHR:
		filter.CompanyID = &actor.CompanyID
	default:
		filter.UserID = &actor.UserID
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if actor.Role != enums.UserRoleAdmin {
		for i := range rows {
			rows[i].Remarks = nil
		}
	}
	return rows, nil
}

func (s *service) emitFulfillment(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	items := make([]payloads.FulfillmentItem, 0, len(order.Items))
	for _, item := range order.Items {
		variant, err := s.catalog.WithTx(tx).GetVariant(ctx, item.VariantID)
		if err != nil {
			return err
		}
		items = append(items, payloads.FulfillmentItem{
			SKU:      variant.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
		})
	}
	instructions := ""
	if order.DeliveryInstructions != nil {
		instructions = *order.DeliveryInstructions
	}
	return s.outboxSvc.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventFulfillmentRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		Data: payloads.FulfillmentRequestedEvent{
			OrderID:              order.ID,
			Code:                 order.Code,
			UserID:               order.UserID,
			Phone:                order.Phone,
			Address:              order.Address,
			DeliveryInstructions: instructions,
			Items:                items,
		},
	})
}
