package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/api/responses"
	"github.com/rcmanalo/buildmart-backend/api/validators"
	"github.com/rcmanalo/buildmart-backend/internal/deliveries"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
)

type advanceDeliveryRequest struct {
	Target   string  `json:"target" validate:"required"`
	ProofRef *string `json:"proof_ref,omitempty" validate:"omitempty,min=1"`
}

type assignDriversRequest struct {
	DriverIDs []string `json:"driver_ids"`
}

type assignVehiclesRequest struct {
	VehicleIDs []string `json:"vehicle_ids"`
}

type cancelDeliveryRequest struct {
	Reason string  `json:"reason" validate:"required,min=3"`
	Notes  *string `json:"notes,omitempty"`
}

// AdvanceDeliveryStatus moves a delivery one step forward.
func AdvanceDeliveryStatus(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body advanceDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseDeliveryStatus(body.Target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		input := deliveries.AdvanceInput{
			OrderID:     orderID,
			Target:      target,
			ProofRef:    body.ProofRef,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if err := svc.AdvanceStatus(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(target)})
	}
}

// AssignDeliveryDrivers replaces the driver set on the order's delivery.
func AssignDeliveryDrivers(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignDriversRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		driverIDs, err := parseUUIDs(body.DriverIDs, "driver_ids")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := deliveries.AssignDriversInput{
			OrderID:     orderID,
			DriverIDs:   driverIDs,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if err := svc.AssignDrivers(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"drivers": len(driverIDs)})
	}
}

// AssignDeliveryVehicles replaces the vehicle set on the order's delivery.
func AssignDeliveryVehicles(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignVehiclesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicleIDs, err := parseUUIDs(body.VehicleIDs, "vehicle_ids")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := deliveries.AssignVehiclesInput{
			OrderID:     orderID,
			VehicleIDs:  vehicleIDs,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if err := svc.AssignVehicles(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"vehicles": len(vehicleIDs)})
	}
}

// CancelDelivery cancels a delivery and its order together.
func CancelDelivery(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelDeliveryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := deliveries.CancelInput{
			OrderID:     orderID,
			Reason:      strings.TrimSpace(body.Reason),
			Notes:       body.Notes,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		result, err := svc.Cancel(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{
			"canceled":        true,
			"was_in_progress": result.WasInProgress,
		})
	}
}

func parseUUIDs(raw []string, field string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").
				WithDetails(map[string]any{"field": field, "value": value})
		}
		ids = append(ids, id)
	}
	return ids, nil
}
