package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintAccessToken issues a signed JWT for a registered user.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if payload.UserID == nil || payload.GuestID != nil {
		return "", fmt.Errorf("user token requires a user id only")
	}
	if payload.Role == enums.RoleGuest {
		return "", fmt.Errorf("user token cannot carry the guest role")
	}
	return mint(cfg, now, time.Duration(cfg.ExpirationMinutes)*time.Minute, payload)
}

// MintGuestToken issues a signed JWT for an anonymous checkout session.
func MintGuestToken(cfg config.JWTConfig, now time.Time, guestID uuid.UUID) (string, error) {
	if guestID == uuid.Nil {
		return "", fmt.Errorf("guest id is required")
	}
	return mint(cfg, now, cfg.GuestTTL(), AccessTokenPayload{GuestID: &guestID, Role: enums.RoleGuest})
}

func mint(cfg config.JWTConfig, now time.Time, ttl time.Duration, payload AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}

	subject := ""
	switch {
	case payload.UserID != nil:
		subject = payload.UserID.String()
	case payload.GuestID != nil:
		subject = payload.GuestID.String()
	}

	claims := AccessTokenClaims{
		UserID:  payload.UserID,
		GuestID: payload.GuestID,
		Role:    payload.Role,
		Email:   payload.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", claims.Role)
	}
	if (claims.UserID == nil) == (claims.GuestID == nil) {
		return nil, fmt.Errorf("token must identify exactly one principal")
	}
	return claims, nil
}
