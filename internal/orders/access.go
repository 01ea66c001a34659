package orders

import (
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CheckAccess allows admins and the order's owner. Guest orders match on the
// guest session id carried by the token.
func CheckAccess(principal auth.Principal, order *models.Order) error {
	if principal.IsAdmin() {
		return nil
	}
	if !principal.Valid() || !principal.Owns(order.UserID, order.GuestID) {
		return ErrUnauthorizedOrderAccess()
	}
	return nil
}

// Contact is the customer contact used for provider calls and email.
type Contact struct {
	Name  string
	Email string
	CPF   string
	Phone string
}

// ResolveContact prefers the registered user's fields, then the guest
// snapshot on the order, then empty.
func ResolveContact(order *models.Order, user *models.User) Contact {
	pick := func(fromUser *string, fromGuest *string) string {
		if fromUser != nil && *fromUser != "" {
			return *fromUser
		}
		if fromGuest != nil {
			return *fromGuest
		}
		return ""
	}
	var name, email, cpf, phone *string
	if user != nil {
		name, email, cpf, phone = &user.Name, &user.Email, user.CPF, user.Phone
	}
	return Contact{
		Name:  pick(name, order.GuestName),
		Email: pick(email, order.GuestEmail),
		CPF:   pick(cpf, order.GuestCPF),
		Phone: pick(phone, order.GuestPhone),
	}
}
