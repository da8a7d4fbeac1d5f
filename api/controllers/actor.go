package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/damilareakin/artmarket-backend/api/middleware"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
)

// identity is the caller identity resolved by the auth middleware.
type identity struct {
	UserID    uuid.UUID
	ProfileID uuid.UUID
	Role      enums.UserRole
}

func callerIdentity(r *http.Request) (identity, error) {
	ctx := r.Context()

	rawUser := middleware.UserIDFromContext(ctx)
	if rawUser == "" {
		return identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid role")
	}

	id := identity{UserID: userID, Role: role}
	if rawProfile := middleware.ProfileIDFromContext(ctx); rawProfile != "" {
		profileID, err := uuid.Parse(rawProfile)
		if err != nil {
			return identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid profile id")
		}
		id.ProfileID = profileID
	}
	return id, nil
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "missing "+name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
