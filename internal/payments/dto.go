package payments

import (
	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// SelectMethodInput is a customer choosing how to pay, optionally
// attaching a proof-of-payment reference.
type SelectMethodInput struct {
	OrderID     uuid.UUID
	Method      enums.PaymentMethod
	ProofRef    *string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// RejectProofInput is a staff rejection of an uploaded proof.
type RejectProofInput struct {
	OrderID     uuid.UUID
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// ProofSubmittedEvent is emitted when a customer submits or re-submits
// a proof of payment.
type ProofSubmittedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber int64               `json:"order_number"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	Method      enums.PaymentMethod `json:"method"`
	Paid        bool                `json:"paid"`
}

// ProofRejectedEvent is emitted when staff reject a proof of payment.
type ProofRejectedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}
