package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Card tokens with special meaning to the Simulator.
const (
	SimTokenPending  = "tok_pending"
	SimTokenDeclined = "tok_declined"
	SimTokenFailure  = "tok_failure"
)

type simCharge struct {
	status   string
	amount   int64
	refunded int64
}

// Simulator is an in-memory Provider. PIX and redirect charges start pending
// and card charges are paid unless a special token is used. SetStatus lets
// tests and local tooling move a charge as the real provider would.
type Simulator struct {
	mu         sync.Mutex
	charges    map[string]*simCharge
	publicURL  string
	pixExpiry  time.Duration
	now        func() time.Time
	failNextOp string
}

func NewSimulator(publicURL string, pixExpiry time.Duration) *Simulator {
	if pixExpiry <= 0 {
		pixExpiry = 30 * time.Minute
	}
	return &Simulator{
		charges:   map[string]*simCharge{},
		publicURL: strings.TrimRight(publicURL, "/"),
		pixExpiry: pixExpiry,
		now:       time.Now,
	}
}

// SetStatus overrides the provider status reported for a charge.
func (s *Simulator) SetStatus(providerTransactionID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if charge, ok := s.charges[providerTransactionID]; ok {
		charge.status = status
		return
	}
	s.charges[providerTransactionID] = &simCharge{status: status}
}

// FailNext makes the next call of the named operation return a provider error.
func (s *Simulator) FailNext(operation string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextOp = operation
}

func (s *Simulator) shouldFail(operation string) bool {
	if s.failNextOp == operation {
		s.failNextOp = ""
		return true
	}
	return false
}

func simFailure(operation string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("simulated %s failure", operation), "gateway "+operation+" request failed")
}

func (s *Simulator) register(prefix string, status string, amount int64) string {
	id := prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	s.charges[id] = &simCharge{status: status, amount: amount}
	return id
}

func (s *Simulator) CreatePixCharge(_ context.Context, req ChargeRequest) (*PixCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("create_pix") {
		return nil, simFailure("create_pix")
	}
	id := s.register("sim_pix_", "pending", req.AmountCents)
	return &PixCharge{
		ProviderTransactionID: id,
		Status:                "pending",
		BRCode:                fmt.Sprintf("00020126SIMPIX%s5204000053039865406%d", id, req.AmountCents),
		QRCodeImageURL:        s.publicURL + "/simulated/pix/" + id + ".png",
		ExpiresAt:             s.now().Add(s.pixExpiry).UTC(),
	}, nil
}

func (s *Simulator) CreateCardCharge(_ context.Context, req CardChargeRequest) (*CardCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("create_card") || req.CardToken == SimTokenFailure {
		return nil, simFailure("create_card")
	}
	status := "paid"
	switch req.CardToken {
	case SimTokenPending:
		status = "in_analysis"
	case SimTokenDeclined:
		status = "canceled"
	}
	id := s.register("sim_card_", status, req.AmountCents)
	return &CardCharge{
		ProviderTransactionID: id,
		Status:                status,
		TransactionRef:        "AUTH-" + strings.ToUpper(id[len(id)-8:]),
	}, nil
}

func (s *Simulator) CreateRedirectCheckout(_ context.Context, req ChargeRequest) (*RedirectCheckout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("create_checkout") {
		return nil, simFailure("create_checkout")
	}
	id := s.register("sim_chk_", "pending", req.AmountCents)
	return &RedirectCheckout{CheckoutID: id, RedirectURL: s.publicURL + "/simulated/checkout/" + id}, nil
}

func (s *Simulator) GetChargeDetails(_ context.Context, providerTransactionID string) (*ChargeDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("get_charge") {
		return nil, simFailure("get_charge")
	}
	charge, ok := s.charges[providerTransactionID]
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status 404: unknown charge %s", providerTransactionID), "gateway get_charge request failed")
	}
	return &ChargeDetails{ProviderTransactionID: providerTransactionID, Status: charge.status, AmountCents: charge.amount}, nil
}

func (s *Simulator) Refund(_ context.Context, providerTransactionID string, amountCents *int64) (*Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shouldFail("refund") {
		return nil, simFailure("refund")
	}
	charge, ok := s.charges[providerTransactionID]
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status 404: unknown charge %s", providerTransactionID), "gateway refund request failed")
	}
	amount := charge.amount - charge.refunded
	if amountCents != nil {
		amount = *amountCents
	}
	if amount <= 0 || (charge.amount > 0 && charge.refunded+amount > charge.amount) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status 422: refund exceeds charge"), "gateway refund request failed")
	}
	charge.refunded += amount
	id := s.register("sim_ref_", "processing", amount)
	return &Refund{RefundID: id, Status: "processing"}, nil
}
