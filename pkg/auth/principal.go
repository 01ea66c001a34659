package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Principal is the caller identity handed to services. Exactly one of UserID
// and GuestID is set.
type Principal struct {
	UserID  *uuid.UUID
	GuestID *uuid.UUID
	Role    enums.Role
}

func UserPrincipal(id uuid.UUID, role enums.Role) Principal {
	return Principal{UserID: &id, Role: role}
}

func GuestPrincipal(id uuid.UUID) Principal {
	return Principal{GuestID: &id, Role: enums.RoleGuest}
}

// Principal derives the caller identity from validated claims.
func (c *AccessTokenClaims) Principal() Principal {
	return Principal{UserID: c.UserID, GuestID: c.GuestID, Role: c.Role}
}

func (p Principal) IsGuest() bool {
	return p.UserID == nil && p.GuestID != nil
}

func (p Principal) IsAdmin() bool {
	return p.UserID != nil && p.Role == enums.RoleAdmin
}

func (p Principal) Valid() bool {
	return (p.UserID == nil) != (p.GuestID == nil)
}

// Owns reports whether the principal is the owner recorded as userID/guestID.
func (p Principal) Owns(userID, guestID *uuid.UUID) bool {
	switch {
	case p.UserID != nil:
		return userID != nil && *userID == *p.UserID
	case p.GuestID != nil:
		return guestID != nil && *guestID == *p.GuestID
	}
	return false
}
