package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/persistence/models"
)

// GormSessionRepository implements variation.SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormSessionRepository) WithTx(tx *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: tx}
}

// FindByProductID loads the session of a product
func (r *GormSessionRepository) FindByProductID(ctx context.Context, productID int64) (*variation.Session, error) {
	var model models.VariationSessionModel
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, variation.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find variation session: %w", err)
	}
	return model.ToDomain()
}

// Save upserts the session on product_id. The last writer wins; the stored
// row takes the incoming id, version and content.
func (r *GormSessionRepository) Save(ctx context.Context, session *variation.Session) error {
	model, err := models.VariationSessionModelFromDomain(session)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"id", "product_name", "is_new_product",
				"attributes", "defaults", "variations", "persisted",
				"version", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("save variation session: %w", err)
	}
	return nil
}

// DeleteByProductID removes the session of a product. Deleting a missing
// session is not an error.
func (r *GormSessionRepository) DeleteByProductID(ctx context.Context, productID int64) error {
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.VariationSessionModel{}).Error
	if err != nil {
		return fmt.Errorf("delete variation session: %w", err)
	}
	return nil
}

// DeleteIdleBefore removes sessions last saved before cutoff
func (r *GormSessionRepository) DeleteIdleBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var productIDs []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VariationSessionModel{}).
			Where("updated_at < ?", cutoff).
			Pluck("product_id", &productIDs).Error; err != nil {
			return err
		}
		if len(productIDs) == 0 {
			return nil
		}
		return tx.Where("product_id IN ? AND updated_at < ?", productIDs, cutoff).
			Delete(&models.VariationSessionModel{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete idle variation sessions: %w", err)
	}
	return productIDs, nil
}

var (
	_ variation.SessionRepository = (*GormSessionRepository)(nil)
	_ variation.IdleSessionPurger = (*GormSessionRepository)(nil)
)
