package transactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository persists payment ledger rows. Rows are only ever inserted; the
// status and antifraud columns are the only ones updated afterwards.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TransactionStatus) error
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus) (bool, error)
	UpdateAntifraud(ctx context.Context, id uuid.UUID, status enums.AntifraudStatus, reason *string) error
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: r.Base.Tx(tx)}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.DB(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.DB(ctx).Where("id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByGatewayID(ctx context.Context, gatewayID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.DB(ctx).Where("gateway_transaction_id = ?", gatewayID).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TransactionStatus) error {
	res := r.DB(ctx).Model(&models.Transaction{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateStatusFrom moves the row to `to` only while it still holds `from`.
// It returns false when another writer got there first.
func (r *repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.TransactionStatus) (bool, error) {
	res := r.DB(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateAntifraud(ctx context.Context, id uuid.UUID, status enums.AntifraudStatus, reason *string) error {
	res := r.DB(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"antifraud_status": status,
			"antifraud_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
