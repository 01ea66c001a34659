package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// WithPrincipal injects the authenticated caller into the context.
func WithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}

// PrincipalFromContext returns the caller seeded by Auth.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	if ctx == nil {
		return auth.Principal{}, false
	}
	principal, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	if !ok || !principal.Valid() {
		return auth.Principal{}, false
	}
	return principal, true
}

// SubjectFromContext returns the user or guest id of the caller, or "".
func SubjectFromContext(ctx context.Context) string {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return ""
	}
	switch {
	case principal.UserID != nil:
		return "user:" + principal.UserID.String()
	case principal.GuestID != nil:
		return "guest:" + principal.GuestID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return ""
	}
	return string(principal.Role)
}

// RequirePrincipal is PrincipalFromContext for handlers that must not run
// anonymously.
func RequirePrincipal(ctx context.Context) (auth.Principal, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return principal, nil
}

// RequireUserID returns the registered user behind the request. Guests are
// refused.
func RequireUserID(ctx context.Context) (uuid.UUID, error) {
	principal, err := RequirePrincipal(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if principal.UserID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "registered account required")
	}
	return *principal.UserID, nil
}
