package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: 30,
		GuestTTLMinutes:   120,
	}
}

func TestMintAndParseUserToken(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: &userID, Role: enums.RoleAdmin, Email: "ops@example.com"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID == nil || *claims.UserID != userID {
		t.Fatalf("expected user id %s, got %v", userID, claims.UserID)
	}
	if claims.IsGuest() {
		t.Fatal("user token reported as guest")
	}
	if claims.Role != enums.RoleAdmin || claims.Email != "ops@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.Time)
	}
}

func TestMintGuestTokenUsesGuestTTL(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	guestID := uuid.New()

	token, err := MintGuestToken(cfg, now, guestID)
	if err != nil {
		t.Fatalf("mint guest token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse guest token: %v", err)
	}
	if !claims.IsGuest() || *claims.GuestID != guestID {
		t.Fatalf("expected guest claims, got %+v", claims)
	}
	if claims.Role != enums.RoleGuest {
		t.Fatalf("expected guest role, got %s", claims.Role)
	}
	if got := claims.ExpiresAt.Sub(now); got < 119*time.Minute || got > 121*time.Minute {
		t.Fatalf("expected guest ttl of 2h, got %v", got)
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: &userID, Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: &userID, Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintAccessTokenRejectsBadPayloads(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	guestID := uuid.New()

	cases := map[string]AccessTokenPayload{
		"missing role": {UserID: &userID},
		"no user":      {Role: enums.RoleCustomer},
		"both ids":     {UserID: &userID, GuestID: &guestID, Role: enums.RoleCustomer},
		"guest role":   {UserID: &userID, Role: enums.RoleGuest},
	}
	for name, payload := range cases {
		if _, err := MintAccessToken(cfg, time.Now(), payload); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := MintGuestToken(cfg, time.Now(), uuid.Nil); err == nil {
		t.Fatal("expected nil guest id to fail")
	}
}
