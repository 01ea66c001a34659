package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error) {
	snapshot, err := Normalize(input)
	if err != nil {
		return nil, err
	}
	row := &models.Address{
		UserID:     userID,
		Label:      trimmed(input.Label),
		Recipient:  snapshot.Recipient,
		Street:     snapshot.Street,
		Number:     snapshot.Number,
		Complement: snapshot.Complement,
		District:   snapshot.District,
		City:       snapshot.City,
		State:      snapshot.State,
		PostalCode: snapshot.PostalCode,
		Country:    snapshot.Country,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	dto := FromModel(*row)
	return &dto, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	return nil
}

// Normalize trims the input, checks required fields and returns the snapshot
// form stored on orders. Postal codes keep digits only and must have eight.
func Normalize(input CreateAddressInput) (types.AddressSnapshot, error) {
	snapshot := types.AddressSnapshot{
		Recipient:  strings.TrimSpace(input.Recipient),
		Street:     strings.TrimSpace(input.Street),
		Number:     strings.TrimSpace(input.Number),
		Complement: trimmed(input.Complement),
		District:   strings.TrimSpace(input.District),
		City:       strings.TrimSpace(input.City),
		State:      strings.ToUpper(strings.TrimSpace(input.State)),
		PostalCode: types.DigitsOnly(input.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(input.Country)),
	}
	if snapshot.Country == "" {
		snapshot.Country = "BR"
	}
	if err := snapshot.Validate(); err != nil {
		return types.AddressSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if snapshot.Recipient == "" || snapshot.Number == "" {
		return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "recipient and number are required")
	}
	if len(snapshot.PostalCode) != 8 {
		return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "postal_code must have 8 digits")
	}
	if len(snapshot.State) != 2 {
		return types.AddressSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "state must be a 2-letter code")
	}
	return snapshot, nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	if out == "" {
		return nil
	}
	return &out
}
