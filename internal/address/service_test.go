package address

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func validInput() CreateAddressInput {
	return CreateAddressInput{
		Recipient:  "Ana Souza",
		Street:     "Av. Paulista",
		Number:     "1000",
		District:   "Bela Vista",
		City:       "São Paulo",
		State:      "sp",
		PostalCode: "01310-100",
	}
}

func TestNormalize(t *testing.T) {
	snapshot, err := Normalize(validInput())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if snapshot.PostalCode != "01310100" {
		t.Fatalf("unexpected postal code %q", snapshot.PostalCode)
	}
	if snapshot.State != "SP" {
		t.Fatalf("unexpected state %q", snapshot.State)
	}
	if snapshot.Country != "BR" {
		t.Fatalf("unexpected country %q", snapshot.Country)
	}
}

func TestNormalizeRejectsBadFields(t *testing.T) {
	cases := map[string]func(*CreateAddressInput){
		"missing city":   func(in *CreateAddressInput) { in.City = " " },
		"short postal":   func(in *CreateAddressInput) { in.PostalCode = "1234" },
		"long state":     func(in *CreateAddressInput) { in.State = "SPX" },
		"missing number": func(in *CreateAddressInput) { in.Number = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := Normalize(input)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceScopesAddressesToOwner(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	created, err := svc.Create(ctx, owner, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := repo.FindOwned(ctx, stranger, created.ID); err == nil {
		t.Fatal("expected stranger lookup to fail")
	}
	if err := svc.Delete(ctx, stranger, created.ID); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for stranger delete, got %v", err)
	}

	list, err := svc.List(ctx, owner)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one address, got %d (%v)", len(list), err)
	}
	if err := svc.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = svc.List(ctx, owner)
	if len(list) != 0 {
		t.Fatalf("expected no addresses after delete, got %d", len(list))
	}
}
