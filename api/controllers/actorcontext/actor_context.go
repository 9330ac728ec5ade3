package actorcontext

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/bazaarlink-backend/api/middleware"
	"github.com/angelmondragon/bazaarlink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazaarlink-backend/pkg/errors"
)

// Actor is the authenticated caller. For vendors and couriers the user id is
// the party id.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// WalletOwnerType maps the actor to the wallet it may operate on.
func (a Actor) WalletOwnerType() (enums.WalletOwnerType, bool) {
	return a.Role.WalletOwnerType()
}

// Resolve extracts the caller identity seeded by the auth middleware.
func Resolve(r *http.Request) (Actor, error) {
	ctx := r.Context()
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return Actor{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid role")
	}
	return Actor{UserID: userID, Role: role}, nil
}

// ResolveRole is Resolve plus a role check.
func ResolveRole(r *http.Request, allowed ...enums.UserRole) (Actor, error) {
	actor, err := Resolve(r)
	if err != nil {
		return Actor{}, err
	}
	for _, role := range allowed {
		if actor.Role == role {
			return actor, nil
		}
	}
	return Actor{}, pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted")
}

// URLParamUUID parses a chi path parameter as a UUID.
func URLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
