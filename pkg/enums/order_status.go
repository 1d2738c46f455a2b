package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusPendingApproval OrderStatus = "pending_approval"
	OrderStatusWaitingPayment  OrderStatus = "waiting_payment"
	OrderStatusProcessing      OrderStatus = "processing"
	OrderStatusReady           OrderStatus = "ready"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusCanceled        OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingApproval,
	OrderStatusWaitingPayment,
	OrderStatusProcessing,
	OrderStatusReady,
	OrderStatusCompleted,
	OrderStatusRejected,
	OrderStatusCanceled,
}

// orderStatusRank orders the forward stages. Rejected/Canceled are
// side exits and carry no rank.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPendingApproval: 0,
	OrderStatusWaitingPayment:  1,
	OrderStatusProcessing:      2,
	OrderStatusReady:           3,
	OrderStatusCompleted:       4,
}

// IsValid checks whether the given status matches the canonical enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusRejected || s == OrderStatusCanceled
}

// CanAdvanceTo reports whether target is the immediate forward successor
// of the current stage. Side exits are handled by their own operations.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	current, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	next, ok := orderStatusRank[target]
	if !ok {
		return false
	}
	return next == current+1
}

// ForwardRank exposes the stage rank for mirror-write guards. The second
// return is false for side-exit statuses.
func (s OrderStatus) ForwardRank() (int, bool) {
	rank, ok := orderStatusRank[s]
	return rank, ok
}

// ParseOrderStatus converts raw strings into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
