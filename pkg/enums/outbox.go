package enums

// OutboxEventType enumerates the domain events written to outbox_events.
type OutboxEventType string

const (
	EventOrderStatusChanged    OutboxEventType = "order.status_changed"
	EventOrderRejected         OutboxEventType = "order.rejected"
	EventPaymentProofSubmitted OutboxEventType = "payment.proof_submitted"
	EventPaymentProofRejected  OutboxEventType = "payment.proof_rejected"
	EventDeliveryStatusChanged OutboxEventType = "delivery.status_changed"
	EventDeliveryCanceled      OutboxEventType = "delivery.canceled"
	EventDeliveryAssigned      OutboxEventType = "delivery.assignment_changed"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateDelivery OutboxAggregateType = "delivery"
)
