package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "25.00", want: 2500},
		{in: "10", want: 1000},
		{in: " 0.5 ", want: 50},
		{in: "15.001", wantErr: true},
		{in: "15.100", want: 1510},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("Parse(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Parse(%q): expected %d got %d", tc.in, tc.want, got)
		}
	}
}

func TestFormatAndAmount(t *testing.T) {
	if got := Format(2500); got != "25.00" {
		t.Fatalf("expected 25.00, got %s", got)
	}
	if got := Format(5); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
	amount := NewAmount(1999)
	if amount.Cents != 1999 || amount.Decimal != "19.99" {
		t.Fatalf("unexpected amount %+v", amount)
	}
}

func TestToCentsRounds(t *testing.T) {
	if got := ToCents(decimal.RequireFromString("10.005")); got != 1001 {
		t.Fatalf("expected half-up rounding to 1001, got %d", got)
	}
	if got := ToCents(FromCents(12345)); got != 12345 {
		t.Fatalf("expected round trip, got %d", got)
	}
}
