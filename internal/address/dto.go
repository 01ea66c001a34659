package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

type AddressDTO struct {
	ID         uuid.UUID `json:"id"`
	Label      *string   `json:"label,omitempty"`
	Recipient  string    `json:"recipient"`
	Street     string    `json:"street"`
	Number     string    `json:"number"`
	Complement *string   `json:"complement,omitempty"`
	District   string    `json:"district"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	CreatedAt  time.Time `json:"created_at"`
}

func FromModel(a models.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		Label:      a.Label,
		Recipient:  a.Recipient,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		CreatedAt:  a.CreatedAt,
	}
}

// CreateAddressInput is also accepted inline on guest checkouts.
type CreateAddressInput struct {
	Label      *string `json:"label,omitempty" validate:"omitempty,max=60"`
	Recipient  string  `json:"recipient" validate:"required,max=120"`
	Street     string  `json:"street" validate:"required,max=200"`
	Number     string  `json:"number" validate:"required,max=20"`
	Complement *string `json:"complement,omitempty" validate:"omitempty,max=120"`
	District   string  `json:"district" validate:"required,max=120"`
	City       string  `json:"city" validate:"required,max=120"`
	State      string  `json:"state" validate:"required,len=2"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country,omitempty" validate:"omitempty,len=2"`
}
