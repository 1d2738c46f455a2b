package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rcmanalo/buildmart-backend/api/middleware"
	"github.com/rcmanalo/buildmart-backend/pkg/enums"
	pkgerrors "github.com/rcmanalo/buildmart-backend/pkg/errors"
)

// requestActor resolves the authenticated user and role seeded by the
// auth middleware.
func requestActor(r *http.Request) (uuid.UUID, enums.ActorRole, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseActorRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return userID, role, nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := routeParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}
