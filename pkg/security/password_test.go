package security_test

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

func testHasher(memoryKB int) *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    memoryKB,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := testHasher(8 * 1024)

	hash, err := hasher.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := hasher.Verify("very-secure-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("Verify failed for the correct password")
	}

	ok, err = hasher.Verify("bogus-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
	if hasher.NeedsRehash(hash) {
		t.Fatal("fresh hash should not need rehash")
	}
}

func TestNeedsRehashAfterParamChange(t *testing.T) {
	hash, err := testHasher(8 * 1024).Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	stronger := testHasher(16 * 1024)
	if !stronger.NeedsRehash(hash) {
		t.Fatal("expected rehash when memory cost changes")
	}
	ok, err := stronger.Verify("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("old hash must still verify, ok=%v err=%v", ok, err)
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	if _, err := testHasher(8 * 1024).Hash("short"); err != security.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{"not-a-hash", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", "$bcrypt$v=19$m=8,t=1,p=1$c2FsdA$a2V5"} {
		if _, err := testHasher(8*1024).Verify("irrelevant", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}
