package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
	GuestTTLMinutes:   60,
}

func hasherWithMemory(kb int) *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    kb,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func newTestService(t *testing.T, hasher *security.Hasher) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Hasher:    hasher,
		JWTConfig: testJWT,
	})
	require.NoError(t, err)
	return svc, repo
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t, hasherWithMemory(1024))
	ctx := context.Background()
	cpf := "123.456.789-09"

	registered, err := svc.Register(ctx, RegisterRequest{
		Name:     " Ana ",
		Email:    "Ana@Example.com",
		Password: "correct-horse",
		CPF:      &cpf,
	})
	require.NoError(t, err)
	require.NotNil(t, registered.User)
	assert.Equal(t, "ana@example.com", registered.User.Email)
	assert.Equal(t, enums.RoleCustomer, registered.User.Role)
	require.NotNil(t, registered.User.CPF)
	assert.Equal(t, "12345678909", *registered.User.CPF)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "another-pass"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict), "duplicate email: %v", err)

	session, err := svc.Login(ctx, LoginRequest{Email: "ANA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := auth.ParseAccessToken(testJWT, session.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, claims.UserID)
	assert.Equal(t, registered.User.ID, *claims.UserID)
	assert.Equal(t, enums.RoleCustomer, claims.Role)

	stored, err := repo.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)

	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong-horse"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, hasherWithMemory(1024))
	_, err := svc.Register(context.Background(), RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "short"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "weak password: %v", err)
}

func TestLoginRehashesOutdatedHash(t *testing.T) {
	t.Parallel()

	oldSvc, repo := newTestService(t, hasherWithMemory(1024))
	ctx := context.Background()
	registered, err := oldSvc.Register(ctx, RegisterRequest{Name: "Cy", Email: "cy@example.com", Password: "password-one"})
	require.NoError(t, err)

	upgraded := hasherWithMemory(2048)
	svc, err := NewService(ServiceParams{Repo: repo, Hasher: upgraded, JWTConfig: testJWT})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "cy@example.com", Password: "password-one"})
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.False(t, upgraded.NeedsRehash(stored.PasswordHash))
}

func TestStartGuestSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, hasherWithMemory(1024))
	session, err := svc.StartGuestSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session.GuestID)
	assert.Nil(t, session.User)

	claims, err := auth.ParseAccessToken(testJWT, session.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsGuest())
	assert.Equal(t, *session.GuestID, *claims.GuestID)
	assert.Equal(t, enums.RoleGuest, claims.Role)
}
