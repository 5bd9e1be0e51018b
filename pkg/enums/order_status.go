package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusApproved   OrderStatus = "APPROVED"
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusApproved,
	OrderStatusDispatched,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValid reports whether the value matches the canonical order status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderAction is the operator-facing action code applied to an order.
type OrderAction string

const (
	OrderActionPending   OrderAction = "pending"
	OrderActionApprove   OrderAction = "approve"
	OrderActionReject    OrderAction = "reject"
	OrderActionDispatch  OrderAction = "dispatch"
	OrderActionDelivered OrderAction = "delivered"
)

var orderActionTargets = map[OrderAction]OrderStatus{
	OrderActionPending:   OrderStatusPending,
	OrderActionApprove:   OrderStatusApproved,
	OrderActionReject:    OrderStatusCancelled,
	OrderActionDispatch:  OrderStatusDispatched,
	OrderActionDelivered: OrderStatusDelivered,
}

// ParseOrderAction converts raw input into an OrderAction.
func ParseOrderAction(value string) (OrderAction, error) {
	action := OrderAction(value)
	if _, ok := orderActionTargets[action]; !ok {
		return "", fmt.Errorf("invalid order action %q", value)
	}
	return action, nil
}

// TargetStatus returns the status an action transitions the order into.
func (a OrderAction) TargetStatus() (OrderStatus, error) {
	status, ok := orderActionTargets[a]
	if !ok {
		return "", fmt.Errorf("invalid order action %q", a)
	}
	return status, nil
}
