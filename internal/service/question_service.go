package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/internal/versioning"
	"edu_admin_backend/pkg/logger"
	"edu_admin_backend/pkg/monitoring"
	"edu_admin_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// QuestionVersionService edits question content. Every edit appends a new
// QuestionVersion; existing snapshots are never rewritten.
type QuestionVersionService struct {
	Questions   QuestionRepository
	Definitions DefinitionRepository
	Clock       func() time.Time
}

func NewQuestionVersionService(questions QuestionRepository, defs DefinitionRepository) *QuestionVersionService {
	return &QuestionVersionService{Questions: questions, Definitions: defs, Clock: time.Now}
}

// QuestionContentPatch carries the fields to merge. Nil means "leave unchanged".
type QuestionContentPatch struct {
	Text          *string           `json:"text"`
	Category      *string           `json:"category"`
	Points        *int              `json:"points"`
	Difficulty    *model.Difficulty `json:"difficulty"`
	Options       *[]string         `json:"options"`
	CorrectAnswer *[]string         `json:"correctAnswer"`
	ChangeLog     string            `json:"changeLog"`
}

func (p QuestionContentPatch) apply(q model.Question) (model.Question, error) {
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Category != nil {
		q.Category = *p.Category
	}
	if p.Points != nil {
		q.Points = *p.Points
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
	if p.Options != nil {
		if !q.Type.IsChoice() {
			return q, util.NewValidationError("options", fmt.Sprintf("cannot be set on %s questions", q.Type))
		}
		q.Options = slices.Clone(*p.Options)
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = slices.Clone(*p.CorrectAnswer)
	}
	return q, validateQuestion(q)
}

func validateQuestion(q model.Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return util.NewValidationError("text", "must not be empty")
	}
	if !q.Type.Valid() {
		return util.NewValidationError("type", "must be multiple-choice, single-choice, free-text or code")
	}
	if !q.Difficulty.Valid() {
		return util.NewValidationError("difficulty", "must be easy, medium or hard")
	}
	if q.Points < 0 {
		return util.NewValidationError("points", "must not be negative")
	}
	if !q.Type.IsChoice() {
		return nil
	}
	if len(q.Options) < 2 {
		return util.NewValidationError("options", "choice questions need at least two options")
	}
	for _, a := range q.CorrectAnswer {
		if !slices.Contains(q.Options, a) {
			return util.NewValidationError("correctAnswer", fmt.Sprintf("%q is not one of the options", a))
		}
	}
	if q.Type == model.QuestionSingleChoice && len(q.CorrectAnswer) > 1 {
		return util.NewValidationError("correctAnswer", "single-choice questions have one correct answer")
	}
	return nil
}

// UpdateQuestionContent records an edit as a new QuestionVersion superseding id. Draft
// versions that listed id now list the new version; published and archived versions keep
// the old snapshot.
func (s *QuestionVersionService) UpdateQuestionContent(ctx context.Context, id string, patch QuestionContentPatch, createdBy string) (*model.QuestionVersion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuestionVersionService.UpdateQuestionContent")
	defer span.End()
	span.SetAttributes(attribute.String("questionVersion.id", id))

	if strings.TrimSpace(patch.ChangeLog) == "" {
		return nil, util.NewValidationError("changeLog", "must describe the change")
	}

	old, err := s.Questions.FindQuestionVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Superseded() {
		return nil, fmt.Errorf("question version %s already superseded by %s: %w", old.ID, old.SupersededBy, util.ErrConflict)
	}

	content, err := patch.apply(old.Content())
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	next := &model.QuestionVersion{
		DefinitionID:  old.DefinitionID,
		QuestionID:    old.QuestionID,
		VersionNumber: old.VersionNumber + 1,
		QuestionData:  datatypes.NewJSONType(content),
		Status:        model.QuestionVersionCurrent,
		ChangeLog:     strings.TrimSpace(patch.ChangeLog),
		Supersedes:    old.ID,
		CreatedBy:     createdBy,
	}
	next.CreatedAt = now
	next.UpdatedAt = now

	affected, err := s.Questions.SupersedeQuestionVersion(ctx, old.ID, next)
	if err != nil {
		return nil, err
	}

	defIDs, err := s.Questions.DefinitionsOfVersions(ctx, affected)
	if err != nil {
		return nil, err
	}
	if old.DefinitionID != "" && !slices.Contains(defIDs, old.DefinitionID) {
		defIDs = append(defIDs, old.DefinitionID)
	}
	if err := s.Definitions.TouchDefinitions(ctx, defIDs, now); err != nil {
		return nil, err
	}

	monitoring.QuestionVersionsSuperseded.Inc()
	logger.Log.Info("question version superseded",
		zap.String("questionId", next.QuestionID),
		zap.String("from", old.ID),
		zap.String("to", next.ID),
		zap.Int("draftVersionsUpdated", len(affected)),
	)
	return next, nil
}

func (s *QuestionVersionService) GetQuestionVersion(ctx context.Context, id string) (*model.QuestionVersion, error) {
	return s.Questions.FindQuestionVersion(ctx, id)
}

// QuestionHistory lists every version of a logical question, newest first.
func (s *QuestionVersionService) QuestionHistory(ctx context.Context, questionID string) ([]model.QuestionVersion, error) {
	history, err := s.Questions.ListQuestionHistory(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("question %s: %w", questionID, util.ErrNotFound)
	}
	versioning.SortDesc(history)
	return history, nil
}
