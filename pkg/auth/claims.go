package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. Exactly
// one of UserID and GuestID is set.
type AccessTokenPayload struct {
	UserID  *uuid.UUID
	GuestID *uuid.UUID
	Role    enums.Role
	Email   string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	GuestID *uuid.UUID `json:"guest_id,omitempty"`
	Role    enums.Role `json:"role"`
	Email   string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IsGuest reports whether the token belongs to an anonymous checkout session.
func (c *AccessTokenClaims) IsGuest() bool {
	return c != nil && c.GuestID != nil && c.UserID == nil
}
