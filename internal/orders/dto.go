package orders

import (
	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// AdvanceInput captures a staff request to move an order forward.
type AdvanceInput struct {
	OrderID     uuid.UUID
	Target      enums.OrderStatus
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// RejectInput captures a staff rejection with its mandatory reason.
type RejectInput struct {
	OrderID     uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// OrderFilters narrows admin list queries.
type OrderFilters struct {
	Status     *enums.OrderStatus
	CustomerID *uuid.UUID
}

// OrderList is a cursor page of orders.
type OrderList struct {
	Orders     []OrderSummary
	NextCursor *string
}

// OrderSummary is the list-view projection of an order.
type OrderSummary struct {
	ID             uuid.UUID            `json:"id"`
	OrderNumber    int64                `json:"order_number"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	Status         enums.OrderStatus    `json:"status"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	Amount         string               `json:"amount"`
	CreatedAt      string               `json:"created_at"`
}

// OrderStatusChangedEvent is emitted when a status transition commits.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	OrderNumber    int64                `json:"order_number"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	From           enums.OrderStatus    `json:"from"`
	To             enums.OrderStatus    `json:"to"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
}

// OrderRejectedEvent is emitted when staff reject an order.
type OrderRejectedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}
