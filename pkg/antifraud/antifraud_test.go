package antifraud

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/providerhttp"
)

func TestSimulatorVerdicts(t *testing.T) {
	sim, err := NewSimulator(config.AntifraudConfig{ReviewThreshold: "5000.00", DeniedCPFPrefix: "000"})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	cases := []struct {
		name   string
		req    Request
		status enums.AntifraudStatus
	}{
		{"accepted", Request{AmountCents: 2500, CustomerCPF: "123.456.789-09"}, enums.AntifraudAccepted},
		{"threshold is inclusive", Request{AmountCents: 500000, CustomerCPF: "12345678909"}, enums.AntifraudAccepted},
		{"high amount", Request{AmountCents: 500001, CustomerCPF: "12345678909"}, enums.AntifraudPendingReview},
		{"denied prefix", Request{AmountCents: 100, CustomerCPF: "000.111.222-33"}, enums.AntifraudDenied},
		{"deny wins over review", Request{AmountCents: 900000, CustomerCPF: "00011122233"}, enums.AntifraudDenied},
		{"missing cpf", Request{AmountCents: 100}, enums.AntifraudAccepted},
	}
	for _, tc := range cases {
		verdict, err := sim.Analyze(context.Background(), tc.req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if verdict.Status != tc.status {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.status, verdict.Status)
		}
	}
}

func TestNewSimulatorRejectsBadThreshold(t *testing.T) {
	if _, err := NewSimulator(config.AntifraudConfig{ReviewThreshold: "lots"}); err == nil {
		t.Fatal("expected invalid threshold to fail")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClientAnalyze(t *testing.T) {
	var payload map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/v1/analyses" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		_ = json.NewDecoder(req.Body).Decode(&payload)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"status":"pending_review","reason":"velocity"}`)),
			Header:     http.Header{},
		}, nil
	})
	client, err := NewClient(config.AntifraudConfig{BaseURL: "http://fraud.test", APIKey: "k", Timeout: time.Second},
		providerhttp.WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	verdict, err := client.Analyze(context.Background(), Request{
		OrderID:       uuid.New(),
		AmountCents:   1999,
		CustomerEmail: "a@b.com",
		CustomerCPF:   "123.456.789-09",
		PaymentMethod: enums.PaymentMethodCreditCard,
		Card:          &CardDetails{HolderName: "A B", Installments: 2},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if verdict.Status != enums.AntifraudPendingReview || verdict.Reason != "velocity" {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
	if payload["customer_cpf"] != "12345678909" || payload["amount"] != "19.99" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload["card"] == nil {
		t.Fatal("expected card details in payload")
	}
}

func TestClientRejectsUnknownVerdict(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(`{"status":"maybe"}`)), Header: http.Header{}}, nil
	})
	client, err := NewClient(config.AntifraudConfig{BaseURL: "http://fraud.test"}, providerhttp.WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Analyze(context.Background(), Request{}); !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
