package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeDeclined, status: http.StatusPaymentRequired, publicMsg: "transaction declined"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "processing failed, try again", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestReasonSurvivesWrapping(t *testing.T) {
	const reason Reason = "INSUFFICIENT_STOCK"
	inner := New(CodeConflict, "not enough stock").WithReason(reason)
	outer := fmt.Errorf("create order: %w", inner)

	if !HasReason(outer, reason) {
		t.Fatalf("expected reason %s to be found through fmt wrapping", reason)
	}
	if HasReason(outer, "OTHER") {
		t.Fatalf("unexpected reason match")
	}
	if !HasCode(outer, CodeConflict) {
		t.Fatalf("expected conflict code")
	}

	rewrapped := Wrap(CodeInternal, inner, "tx failed")
	if !HasReason(rewrapped, reason) {
		t.Fatalf("expected reason to be visible through Wrap cause chain")
	}
	if HasReason(nil, reason) {
		t.Fatalf("nil error must not carry a reason")
	}
}

func TestDumpCapturesPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "transactions_gateway_transaction_id_key",
		TableName:      "transactions",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeConflict, fmt.Errorf("insert transaction: %w", pgErr), "duplicate gateway transaction").
		WithReason(ReasonTransactionNotFound)

	d := Dump(err)
	if d.Code != CodeConflict || d.Reason != ReasonTransactionNotFound {
		t.Fatalf("unexpected code/reason: %s/%s", d.Code, d.Reason)
	}
	if d.PGCode != "23505" || d.PGTable != "transactions" {
		t.Fatalf("expected pg diagnostics, got %+v", d)
	}
	if len(d.Chain) < 2 {
		t.Fatalf("expected wrapped chain, got %v", d.Chain)
	}

	fields := d.Fields()
	if fields["pg_constraint"] != "transactions_gateway_transaction_id_key" {
		t.Fatalf("pg_constraint missing from fields: %v", fields)
	}
	if fields["error_reason"] != string(ReasonTransactionNotFound) {
		t.Fatalf("error_reason missing from fields: %v", fields)
	}
}

func TestDumpFieldsOmitPostgresForPlainErrors(t *testing.T) {
	fields := Dump(stdErrors.New("boom")).Fields()
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("unexpected pg fields: %v", fields)
	}
	if fields["error"] != "boom" {
		t.Fatalf("unexpected top message: %v", fields["error"])
	}
}
