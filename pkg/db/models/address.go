package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Address is a saved shipping address owned by a registered user.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:addresses_user_id_idx"`
	Label      *string   `gorm:"column:label"`
	Recipient  string    `gorm:"column:recipient;not null"`
	Street     string    `gorm:"column:street;not null"`
	Number     string    `gorm:"column:number;not null"`
	Complement *string   `gorm:"column:complement"`
	District   string    `gorm:"column:district;not null"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	PostalCode string    `gorm:"column:postal_code;not null"`
	Country    string    `gorm:"column:country;not null;default:'BR'"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Snapshot copies the address into the value stored on an order.
func (a Address) Snapshot() types.AddressSnapshot {
	return types.AddressSnapshot{
		Recipient:  a.Recipient,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
