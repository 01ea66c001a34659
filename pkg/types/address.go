package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSnapshot is the denormalized shipping address copied onto an order.
// It is stored as JSON so later edits or deletion of the saved address do not
// reach the order.
type AddressSnapshot struct {
	Recipient  string  `json:"recipient"`
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	Complement *string `json:"complement,omitempty"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Validate reports the first missing required field.
func (a AddressSnapshot) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("address: missing %s", field.name)
		}
	}
	return nil
}

// Value serializes the snapshot to JSON.
func (a AddressSnapshot) Value() (driver.Value, error) {
	if a.Country == "" {
		a.Country = "BR"
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSON snapshot.
func (a *AddressSnapshot) Scan(value interface{}) error {
	if value == nil {
		*a = AddressSnapshot{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	return json.Unmarshal(raw, a)
}

// DigitsOnly strips everything but 0-9, used for postal codes and CPFs.
func DigitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
