package repository

import (
	"context"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/versioning"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VersionRepository struct {
	DB *gorm.DB
}

func NewVersionRepository(db *gorm.DB) *VersionRepository {
	return &VersionRepository{DB: db}
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func orderedEntries(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// CreateNextVersion allocates the number under a row lock on the definition, so two
// concurrent calls never pick the same number.
func (r *VersionRepository) CreateNextVersion(ctx context.Context, v *model.Version, copyForward bool, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var def model.Definition
		if err := forUpdate(tx).First(&def, "id = ?", v.DefinitionID).Error; err != nil {
			return notFound(err, "definition", v.DefinitionID)
		}

		var existing []model.Version
		if err := tx.Where("definition_id = ?", def.ID).Find(&existing).Error; err != nil {
			return err
		}
		v.VersionNumber = versioning.Next(existing, def.LastVersionNumber)

		v.Questions = nil
		if latest, ok := versioning.Latest(existing); ok && copyForward {
			if err := tx.Preload("QuestionVersion").Scopes(orderedEntries).
				Where("version_id = ?", latest.ID).
				Find(&latest.Questions).Error; err != nil {
				return err
			}
			v.Questions = latest.BranchEntries()
		}
		v.SyncQuestionCount()

		if err := tx.Omit(clause.Associations).Create(v).Error; err != nil {
			return err
		}
		for i := range v.Questions {
			v.Questions[i].VersionID = v.ID
		}
		if len(v.Questions) > 0 {
			if err := tx.Omit("QuestionVersion").Create(&v.Questions).Error; err != nil {
				return err
			}
		}

		return tx.Model(&def).UpdateColumns(map[string]interface{}{
			"updated_at":          at,
			"last_version_number": v.VersionNumber,
		}).Error
	})
}

func (r *VersionRepository) FindVersion(ctx context.Context, definitionID, versionID string) (*model.Version, error) {
	var v model.Version
	err := r.DB.WithContext(ctx).
		Preload("Questions", orderedEntries).
		Preload("Questions.QuestionVersion").
		First(&v, "id = ? AND definition_id = ?", versionID, definitionID).Error
	if err != nil {
		return nil, notFound(err, "version", versionID)
	}
	return &v, nil
}

// ListVersions returns version headers without their entries.
func (r *VersionRepository) ListVersions(ctx context.Context, definitionID string) ([]model.Version, error) {
	var versions []model.Version
	err := r.DB.WithContext(ctx).
		Where("definition_id = ?", definitionID).
		Order("version_number desc").
		Find(&versions).Error
	return versions, err
}

func (r *VersionRepository) UpdateVersionStatus(ctx context.Context, v *model.Version) error {
	return r.DB.WithContext(ctx).Model(&model.Version{}).
		Where("id = ?", v.ID).
		UpdateColumns(map[string]interface{}{
			"status":       v.Status,
			"published_at": v.PublishedAt,
			"updated_at":   v.UpdatedAt,
		}).Error
}

func (r *VersionRepository) AddVersionEntry(ctx context.Context, v *model.Version, qv *model.QuestionVersion) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked model.Version
		if err := forUpdate(tx).First(&locked, "id = ?", v.ID).Error; err != nil {
			return notFound(err, "version", v.ID)
		}

		var count int64
		if err := tx.Model(&model.VersionQuestion{}).Where("version_id = ?", v.ID).Count(&count).Error; err != nil {
			return err
		}

		if err := tx.Create(qv).Error; err != nil {
			return err
		}
		entry := model.VersionQuestion{
			VersionID:         v.ID,
			QuestionVersionID: qv.ID,
			Position:          int(count) + 1,
		}
		if err := tx.Omit("QuestionVersion").Create(&entry).Error; err != nil {
			return err
		}
		if err := tx.Model(&locked).UpdateColumns(map[string]interface{}{
			"question_count": count + 1,
			"updated_at":     qv.CreatedAt,
		}).Error; err != nil {
			return err
		}

		entry.QuestionVersion = qv
		v.Questions = append(v.Questions, entry)
		v.SyncQuestionCount()
		return nil
	})
}

func (r *VersionRepository) RemoveVersionEntry(ctx context.Context, v *model.Version, questionVersionID string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked model.Version
		if err := forUpdate(tx).First(&locked, "id = ?", v.ID).Error; err != nil {
			return notFound(err, "version", v.ID)
		}

		res := tx.Where("version_id = ? AND question_version_id = ?", v.ID, questionVersionID).
			Delete(&model.VersionQuestion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "version entry", questionVersionID)
		}

		var entries []model.VersionQuestion
		if err := tx.Preload("QuestionVersion").Scopes(orderedEntries).
			Where("version_id = ?", v.ID).
			Find(&entries).Error; err != nil {
			return err
		}
		for i := range entries {
			if entries[i].Position == i+1 {
				continue
			}
			if err := tx.Model(&entries[i]).UpdateColumn("position", i+1).Error; err != nil {
				return err
			}
		}

		v.Questions = entries
		v.SyncQuestionCount()
		return tx.Model(&locked).UpdateColumn("question_count", v.QuestionCount).Error
	})
}
