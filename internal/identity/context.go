// Package identity carries the authenticated principal through request
// context. The core never reads ambient session state; every handler
// resolves the acting user from here and passes explicit IDs down.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Role names the three actor types known to the platform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Principal is the authenticated actor for one request.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

type ctxKey string

const principalKey ctxKey = "hospital.principal"

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext extracts the principal if present.
func FromContext(ctx context.Context) (Principal, bool) {
	val := ctx.Value(principalKey)
	if val == nil {
		return Principal{}, false
	}
	p, ok := val.(Principal)
	return p, ok && p.ID != uuid.Nil
}
