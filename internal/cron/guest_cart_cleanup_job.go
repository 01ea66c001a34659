package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const guestCartRetentionDays = 14

type GuestCartCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository guestCartCleanupRepo
	Retention  int
}

type guestCartCleanupRepo interface {
	DeleteStaleGuestCarts(tx *gorm.DB, cutoff time.Time) (int64, error)
}

// NewGuestCartCleanupJob drops guest carts nobody has touched for Retention
// days. Guest tokens expire long before that, so the carts are unreachable.
func NewGuestCartCleanupJob(params GuestCartCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = guestCartRetentionDays
	}
	return &guestCartCleanupJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type guestCartCleanupJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      guestCartCleanupRepo
	retention int
	now       func() time.Time
}

func (j *guestCartCleanupJob) Name() string { return "guest-cart-cleanup" }

func (j *guestCartCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeleteStaleGuestCarts(tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("guest cart cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"carts_deleted":  deleted,
	})
	j.logg.Info(logCtx, "guest cart cleanup complete")
	return nil
}
