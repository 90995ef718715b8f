package repository

import (
	"context"
	"fmt"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) FindQuestionVersion(ctx context.Context, id string) (*model.QuestionVersion, error) {
	var qv model.QuestionVersion
	if err := r.DB.WithContext(ctx).First(&qv, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "question version", id)
	}
	return &qv, nil
}

func (r *QuestionRepository) ListQuestionHistory(ctx context.Context, questionID string) ([]model.QuestionVersion, error) {
	var history []model.QuestionVersion
	err := r.DB.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("version_number desc").
		Find(&history).Error
	return history, err
}

// SupersedeQuestionVersion re-checks the old row under lock, so of two concurrent edits
// of the same question version only the first wins.
func (r *QuestionRepository) SupersedeQuestionVersion(ctx context.Context, oldID string, next *model.QuestionVersion) ([]string, error) {
	var drafts []string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old model.QuestionVersion
		if err := forUpdate(tx).First(&old, "id = ?", oldID).Error; err != nil {
			return notFound(err, "question version", oldID)
		}
		if old.Superseded() {
			return fmt.Errorf("question version %s already superseded: %w", oldID, util.ErrConflict)
		}

		if err := tx.Create(next).Error; err != nil {
			return err
		}
		if err := tx.Model(&old).UpdateColumns(map[string]interface{}{
			"status":        model.QuestionVersionSuperseded,
			"superseded_by": next.ID,
			"updated_at":    next.CreatedAt,
		}).Error; err != nil {
			return err
		}

		if err := tx.Table("version_questions").
			Joins("JOIN versions ON versions.id = version_questions.version_id").
			Where("version_questions.question_version_id = ? AND versions.status = ?", oldID, model.VersionDraft).
			Distinct().
			Pluck("version_questions.version_id", &drafts).Error; err != nil {
			return err
		}
		if len(drafts) == 0 {
			return nil
		}

		if err := tx.Model(&model.VersionQuestion{}).
			Where("question_version_id = ? AND version_id IN ?", oldID, drafts).
			UpdateColumn("question_version_id", next.ID).Error; err != nil {
			return err
		}
		return tx.Model(&model.Version{}).
			Where("id IN ?", drafts).
			UpdateColumn("updated_at", next.CreatedAt).Error
	})
	if err != nil {
		return nil, err
	}
	return drafts, nil
}

func (r *QuestionRepository) DefinitionsOfVersions(ctx context.Context, versionIDs []string) ([]string, error) {
	if len(versionIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.DB.WithContext(ctx).Model(&model.Version{}).
		Where("id IN ?", versionIDs).
		Distinct().
		Pluck("definition_id", &ids).Error
	return ids, err
}
