package controllers

import (
	"net/http"

	"github.com/rcmanalo/buildmart-backend/api/responses"
	"github.com/rcmanalo/buildmart-backend/api/validators"
	"github.com/rcmanalo/buildmart-backend/internal/fleet"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
)

type setVehicleStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListFleetVehicles returns the whole fleet roster.
func ListFleetVehicles(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vehicles, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"vehicles": vehicles})
	}
}

// SetFleetVehicleStatus parks or frees a vehicle manually.
func SetFleetVehicleStatus(svc fleet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vehicleID, err := pathUUID(r, "vehicleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setVehicleStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseVehicleStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle status"))
			return
		}

		input := fleet.SetStatusInput{
			VehicleID:   vehicleID,
			Status:      status,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		if err := svc.SetStatus(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": string(status)})
	}
}
