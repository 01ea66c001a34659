package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	gatewaywebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/gateway"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	hits map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, hits: map[string]int64{}}
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryCache) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key]++
	return m.hits[key], nil
}

func (m *memoryCache) RateLimitKey(scope string) string { return "rl:" + scope }

type stubWebhooks struct{}

func (stubWebhooks) Handle(context.Context, []byte, string) (*gatewaywebhook.Result, error) {
	return &gatewaywebhook.Result{Outcome: gatewaywebhook.OutcomeDuplicate}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "storefront", ExpirationMinutes: 60, GuestTTLMinutes: 60},
		AuthRateLimit: config.AuthRateLimitConfig{
			LoginWindow:        time.Minute,
			LoginEmailLimit:    5,
			LoginIPLimit:       20,
			RegisterWindow:     time.Minute,
			RegisterEmailLimit: 3,
			RegisterIPLimit:    2,
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total"}))
	handler := NewRouter(Params{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard}),
		DB:       stubPinger{},
		Cache:    newMemoryCache(),
		Gatherer: reg,
		Webhooks: stubWebhooks{},
	})
	return handler, cfg
}

func bearer(t *testing.T, cfg *config.Config, principal auth.Principal) string {
	t.Helper()
	var (
		token string
		err   error
	)
	if principal.GuestID != nil {
		token, err = auth.MintGuestToken(cfg.JWT, time.Now(), *principal.GuestID)
	} else {
		token, err = auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: principal.UserID, Role: principal.Role})
	}
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestRouterAccessRules(t *testing.T) {
	handler, cfg := newTestRouter(t)
	guest := bearer(t, cfg, auth.GuestPrincipal(uuid.New()))
	customer := bearer(t, cfg, auth.UserPrincipal(uuid.New(), enums.RoleCustomer))

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"liveness is public", http.MethodGet, "/health/live", "", "", http.StatusOK},
		{"readiness is public", http.MethodGet, "/health/ready", "", "", http.StatusOK},
		{"metrics exposed", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"cart needs a token", http.MethodGet, "/api/v1/cart", "", "", http.StatusUnauthorized},
		{"guests have no wishlist", http.MethodGet, "/api/v1/wishlist", guest, "", http.StatusForbidden},
		{"guests have no saved addresses", http.MethodGet, "/api/v1/addresses", guest, "", http.StatusForbidden},
		{"customers are not admins", http.MethodPost, "/api/admin/products", customer, `{}`, http.StatusForbidden},
		{"refunds need admin", http.MethodPost, "/api/admin/transactions/" + uuid.NewString() + "/refunds", guest, `{}`, http.StatusForbidden},
		{"order creation needs an idempotency key", http.MethodPost, "/api/v1/orders", guest, `{"shipping_service":"PAC"}`, http.StatusBadRequest},
		{"payments need an idempotency key", http.MethodPost, "/api/v1/orders/" + uuid.NewString() + "/payments/pix", guest, "", http.StatusBadRequest},
		{"webhook skips bearer auth", http.MethodPost, "/api/v1/webhooks/gateway", "", `{}`, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.token != "" {
				req.Header.Set("Authorization", tc.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouterThrottlesGuestSessions(t *testing.T) {
	handler, _ := newTestRouter(t)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/guest", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected third guest session to be throttled, got %d", last)
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	handler, _ := newTestRouter(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}
