package types

import (
	"testing"
)

func TestAddressSnapshotRoundTripThroughDriver(t *testing.T) {
	complement := "apt 12"
	addr := AddressSnapshot{
		Recipient:  "Ana",
		Street:     "Rua A",
		Number:     "10",
		Complement: &complement,
		District:   "Centro",
		City:       "Sao Paulo",
		State:      "SP",
		PostalCode: "01001000",
	}

	value, err := addr.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded AddressSnapshot
	if err := decoded.Scan([]byte(value.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if decoded.Country != "BR" {
		t.Fatalf("expected default country BR, got %q", decoded.Country)
	}
	if decoded.Complement == nil || *decoded.Complement != complement {
		t.Fatalf("complement lost: %+v", decoded.Complement)
	}
}

func TestAddressSnapshotValidate(t *testing.T) {
	if err := (AddressSnapshot{Street: "Rua A", City: "SP", State: "SP"}).Validate(); err == nil {
		t.Fatal("expected missing postal code to fail")
	}
	if err := (AddressSnapshot{Street: "Rua A", City: "SP", State: "SP", PostalCode: "01001-000"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("123.456.789-09"); got != "12345678909" {
		t.Fatalf("unexpected digits %q", got)
	}
}

func TestStringListContains(t *testing.T) {
	list := StringList{"P", "M"}
	if !list.Contains("M") || list.Contains("G") {
		t.Fatalf("unexpected contains result for %v", list)
	}
	var empty StringList
	value, err := empty.Value()
	if err != nil || value != "[]" {
		t.Fatalf("expected empty list to serialize as [], got %v %v", value, err)
	}
}
