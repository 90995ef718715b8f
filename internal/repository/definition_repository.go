package repository

import (
	"context"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"

	"gorm.io/gorm"
)

type DefinitionRepository struct {
	DB *gorm.DB
}

func NewDefinitionRepository(db *gorm.DB) *DefinitionRepository {
	return &DefinitionRepository{DB: db}
}

func (r *DefinitionRepository) CreateDefinition(ctx context.Context, d *model.Definition) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *DefinitionRepository) FindDefinition(ctx context.Context, id string) (*model.Definition, error) {
	var d model.Definition
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "definition", id)
	}
	return &d, nil
}

func (r *DefinitionRepository) ListDefinitions(ctx context.Context, kind model.ContentKind, page, limit int) ([]model.Definition, int64, error) {
	var (
		defs  []model.Definition
		total int64
	)
	query := r.DB.WithContext(ctx).Model(&model.Definition{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at desc").Offset(util.PageOffset(page, limit)).Limit(limit).Find(&defs).Error
	return defs, total, err
}

func (r *DefinitionRepository) UpdateDefinition(ctx context.Context, d *model.Definition) error {
	return r.DB.WithContext(ctx).Model(d).Select(
		"title", "description", "type", "difficulty", "target_levels",
		"estimated_minutes", "current_questions_count", "updated_at",
	).Updates(d).Error
}

// TouchDefinitions bumps updatedAt of several definitions at once.
func (r *DefinitionRepository) TouchDefinitions(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.Definition{}).
		Where("id IN ?", ids).
		UpdateColumn("updated_at", at).Error
}
