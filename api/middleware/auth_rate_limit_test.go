package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) RateLimitKey(scope string) string {
	return "sf:rl:" + scope
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func postAuth(handler http.Handler, path, remote, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitRestoresBodyForHandler(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 5, 5)
	var seen string
	handler := AuthRateLimit(policy, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"email":"ana@loja.com.br","password":"s3cret!"}`
	if rec := postAuth(handler, "/api/v1/auth/login", "10.0.0.1:4000", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != body {
		t.Fatalf("handler saw %q, want original body", seen)
	}
}

func TestAuthRateLimitEmailCounterIgnoresCaseAndIP(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	attempts := []struct {
		remote string
		email  string
		want   int
	}{
		{remote: "10.0.0.1:1", email: "Buyer@Example.com", want: http.StatusOK},
		{remote: "10.0.0.2:1", email: "buyer@example.com ", want: http.StatusOK},
		{remote: "10.0.0.3:1", email: "BUYER@example.com", want: http.StatusTooManyRequests},
	}
	for i, a := range attempts {
		rec := postAuth(handler, "/api/v1/auth/login", a.remote, `{"email":"`+a.email+`","password":"x"}`)
		if rec.Code != a.want {
			t.Fatalf("attempt %d: expected %d, got %d", i, a.want, rec.Code)
		}
		if a.want == http.StatusTooManyRequests && errorCode(t, rec) != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("expected rate limit code")
		}
	}
}

func TestAuthRateLimitGuestSessionsAreIPScoped(t *testing.T) {
	store := newFakeRateStore()
	policy := NewAuthRateLimitPolicy("guest", time.Minute, 1, 0)
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	if rec := postAuth(handler, "/api/v1/auth/guest", "192.168.1.9:5000", `{}`); rec.Code != http.StatusOK {
		t.Fatalf("first guest session: %d", rec.Code)
	}
	if rec := postAuth(handler, "/api/v1/auth/guest", "192.168.1.9:5001", `{}`); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second guest session from same ip: %d", rec.Code)
	}
	if rec := postAuth(handler, "/api/v1/auth/guest", "192.168.1.10:5000", `{}`); rec.Code != http.StatusOK {
		t.Fatalf("other ip must have its own counter: %d", rec.Code)
	}
	if _, ok := store.counts["sf:rl:ip:guest:192.168.1.9"]; !ok {
		t.Fatalf("expected prefixed ip key, got %v", store.counts)
	}
}

func TestAuthRateLimitStoreFailureIsDependencyError(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	policy := NewAuthRateLimitPolicy("register", time.Minute, 3, 0)
	handler := AuthRateLimit(policy, store, nil)(okHandler())

	rec := postAuth(handler, "/api/v1/auth/register", "10.1.1.1:80", `{"email":"a@b.com"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if errorCode(t, rec) != string(pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code")
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeRateStore()
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1, 1), store, nil)(okHandler())
	for i := 0; i < 3; i++ {
		if rec := postAuth(handler, "/api/v1/auth/login", "10.0.0.1:1", `{"email":"a@b.com"}`); rec.Code != http.StatusOK {
			t.Fatalf("disabled policy must not throttle, got %d", rec.Code)
		}
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store")
	}
}
