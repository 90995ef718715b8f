package repository

import (
	"context"
	"fmt"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"

	"gorm.io/gorm"
)

type DeliveryRepository struct {
	DB *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) *DeliveryRepository {
	return &DeliveryRepository{DB: db}
}

func (r *DeliveryRepository) CreateDelivery(ctx context.Context, d *model.Delivery) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *DeliveryRepository) FindDelivery(ctx context.Context, id string) (*model.Delivery, error) {
	var d model.Delivery
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "delivery", id)
	}
	return &d, nil
}

func (r *DeliveryRepository) ListDeliveries(ctx context.Context, filter model.DeliveryFilter) ([]model.Delivery, error) {
	var deliveries []model.Delivery
	query := r.DB.WithContext(ctx).Model(&model.Delivery{})
	if filter.DefinitionID != "" {
		query = query.Where("definition_id = ?", filter.DefinitionID)
	}
	if filter.Kind != "" {
		query = query.Where("definition_kind = ?", filter.Kind)
	}
	err := query.Order("created_at desc").Find(&deliveries).Error
	return deliveries, err
}

// UpdateDelivery is a compare-and-swap on the revision column.
func (r *DeliveryRepository) UpdateDelivery(ctx context.Context, d *model.Delivery, expectedRevision int) error {
	db := r.DB.WithContext(ctx)
	res := db.Model(&model.Delivery{}).
		Where("id = ? AND revision = ?", d.ID, expectedRevision).
		UpdateColumns(map[string]interface{}{
			"target_description":     d.TargetDescription,
			"targets":                d.Targets,
			"end_date":               d.EndDate,
			"status":                 d.Status,
			"completed_participants": d.CompletedParticipants,
			"updated_at":             d.UpdatedAt,
			"revision":               expectedRevision + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.Delivery{}).Where("id = ?", d.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("delivery %s: %w", d.ID, util.ErrNotFound)
		}
		return fmt.Errorf("delivery %s changed since revision %d: %w", d.ID, expectedRevision, util.ErrConflict)
	}
	d.Revision = expectedRevision + 1
	return nil
}

func (r *DeliveryRepository) DeleteDelivery(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.Delivery{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delivery %s: %w", id, util.ErrNotFound)
	}
	return nil
}
