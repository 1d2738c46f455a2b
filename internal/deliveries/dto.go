package deliveries

import (
	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/pkg/enums"
)

// AdvanceInput moves a delivery forward along its successor chain.
type AdvanceInput struct {
	OrderID     uuid.UUID
	Target      enums.DeliveryStatus
	ProofRef    *string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// AssignDriversInput replaces the full driver set on the order's
// delivery. An empty set unassigns everyone.
type AssignDriversInput struct {
	OrderID     uuid.UUID
	DriverIDs   []uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// AssignVehiclesInput replaces the full vehicle set on the order's
// delivery.
type AssignVehiclesInput struct {
	OrderID     uuid.UUID
	VehicleIDs  []uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// CancelInput cancels a delivery and its order together.
type CancelInput struct {
	OrderID     uuid.UUID
	Reason      string
	Notes       *string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// CancelResult tells the caller whether the truck was already on the
// road, so a driver heads-up can be arranged separately.
type CancelResult struct {
	WasInProgress bool
}

// StatusChangedEvent is emitted when a delivery transition commits.
type StatusChangedEvent struct {
	DeliveryID uuid.UUID            `json:"delivery_id"`
	OrderID    uuid.UUID            `json:"order_id"`
	From       enums.DeliveryStatus `json:"from"`
	To         enums.DeliveryStatus `json:"to"`
	ProofRef   *string              `json:"proof_ref,omitempty"`
}

// CanceledEvent is emitted when a delivery is canceled.
type CanceledEvent struct {
	DeliveryID    uuid.UUID `json:"delivery_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Reason        string    `json:"reason"`
	Notes         *string   `json:"notes,omitempty"`
	WasInProgress bool      `json:"was_in_progress"`
}

// AssignmentChangedEvent is emitted when the driver or vehicle set on a
// delivery is replaced.
type AssignmentChangedEvent struct {
	DeliveryID uuid.UUID   `json:"delivery_id"`
	OrderID    uuid.UUID   `json:"order_id"`
	DriverIDs  []uuid.UUID `json:"driver_ids"`
	VehicleIDs []uuid.UUID `json:"vehicle_ids"`
}
