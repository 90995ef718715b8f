package service

import (
	"context"
	"fmt"
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

// VersionService manages the version history of assessments and surveys.
type VersionService struct {
	Definitions DefinitionRepository
	Versions    VersionRepository
	Policies    *Policies
	Clock       func() time.Time
}

func NewVersionService(defs DefinitionRepository, versions VersionRepository, policies *Policies) *VersionService {
	return &VersionService{
		Definitions: defs,
		Versions:    versions,
		Policies:    policies,
		Clock:       time.Now,
	}
}

type CreateVersionRequest struct {
	Description string `json:"description"`
}

// CreateVersion appends a draft version numbered one past the highest number the
// definition has ever used. Whether the new draft starts from the latest version's
// questions or empty is decided by the kind's copy_forward policy.
func (s *VersionService) CreateVersion(ctx context.Context, definitionID, description, createdBy string) (*model.Version, error) {
	ctx, span := tracing.Tracer.Start(ctx, "VersionService.CreateVersion")
	defer span.End()
	span.SetAttributes(attribute.String("definition.id", definitionID))

	def, err := s.Definitions.FindDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}

	now := s.Clock()
	v := &model.Version{
		DefinitionID: def.ID,
		Description:  description,
		Status:       model.VersionDraft,
		CreatedBy:    createdBy,
	}
	v.CreatedAt = now
	v.UpdatedAt = now

	copyForward := s.Policies.CopyForward(def.Kind)
	if err := s.Versions.CreateNextVersion(ctx, v, copyForward, now); err != nil {
		return nil, err
	}
	// the new draft may have become the current version
	if err := s.refreshDefinition(ctx, def.ID); err != nil {
		return nil, err
	}

	monitoring.VersionsCreated.WithLabelValues(string(def.Kind)).Inc()
	logger.Log.Info("version created",
		zap.String("definitionId", def.ID),
		zap.Int("versionNumber", v.VersionNumber),
		zap.Int("questionCount", v.QuestionCount),
		zap.Bool("copyForward", copyForward),
	)
	return v, nil
}

// GetVersionsForDefinition lists versions newest first.
func (s *VersionService) GetVersionsForDefinition(ctx context.Context, definitionID string) ([]model.Version, error) {
	if _, err := s.Definitions.FindDefinition(ctx, definitionID); err != nil {
		return nil, err
	}
	versions, err := s.Versions.ListVersions(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	versioning.SortDesc(versions)
	return versions, nil
}

func (s *VersionService) GetVersion(ctx context.Context, definitionID, versionID string) (*model.Version, error) {
	return s.Versions.FindVersion(ctx, definitionID, versionID)
}

// CurrentVersion is the newest published version, or the newest version when none is published.
func (s *VersionService) CurrentVersion(ctx context.Context, definitionID string) (*model.Version, error) {
	versions, err := s.GetVersionsForDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	cur, ok := versioning.Current(versions, model.Version.IsPublished)
	if !ok {
		return nil, fmt.Errorf("definition %s has no versions: %w", definitionID, util.ErrNotFound)
	}
	return s.Versions.FindVersion(ctx, definitionID, cur.ID)
}

func (s *VersionService) PublishVersion(ctx context.Context, definitionID, versionID string) (*model.Version, error) {
	return s.transition(ctx, definitionID, versionID, model.VersionDraft, model.VersionPublished)
}

func (s *VersionService) ArchiveVersion(ctx context.Context, definitionID, versionID string) (*model.Version, error) {
	return s.transition(ctx, definitionID, versionID, model.VersionPublished, model.VersionArchived)
}

func (s *VersionService) transition(ctx context.Context, definitionID, versionID string, from, to model.VersionStatus) (*model.Version, error) {
	v, err := s.Versions.FindVersion(ctx, definitionID, versionID)
	if err != nil {
		return nil, err
	}
	if v.Status != from {
		return nil, fmt.Errorf("version %d is %s, cannot become %s: %w", v.VersionNumber, v.Status, to, util.ErrInvalidTransition)
	}

	now := s.Clock()
	v.Status = to
	if to == model.VersionPublished {
		v.PublishedAt = &now
	}
	v.UpdatedAt = now

	if err := s.Versions.UpdateVersionStatus(ctx, v); err != nil {
		return nil, err
	}
	if err := s.refreshDefinition(ctx, definitionID); err != nil {
		return nil, err
	}

	logger.Log.Info("version status changed",
		zap.String("definitionId", definitionID),
		zap.Int("versionNumber", v.VersionNumber),
		zap.String("status", string(to)),
	)
	return v, nil
}

type QuestionRequest struct {
	Text          string             `json:"text"`
	Type          model.QuestionType `json:"type"`
	Options       []string           `json:"options"`
	CorrectAnswer []string           `json:"correctAnswer"`
	Points        int                `json:"points"`
	Category      string             `json:"category"`
	Difficulty    model.Difficulty   `json:"difficulty"`
}

// AddQuestion creates a new logical question in a draft version.
func (s *VersionService) AddQuestion(ctx context.Context, definitionID, versionID string, req QuestionRequest, createdBy string) (*model.QuestionVersion, error) {
	ctx, span := tracing.Tracer.Start(ctx, "VersionService.AddQuestion")
	defer span.End()

	q := model.Question{
		ID:            model.GenerateUUID(),
		Text:          req.Text,
		Type:          req.Type,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
	}
	if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	if err := validateQuestion(q); err != nil {
		return nil, err
	}

	v, err := s.Versions.FindVersion(ctx, definitionID, versionID)
	if err != nil {
		return nil, err
	}
	if !v.Editable() {
		return nil, fmt.Errorf("version %d is %s: %w", v.VersionNumber, v.Status, util.ErrInvalidTransition)
	}

	now := s.Clock()
	qv := &model.QuestionVersion{
		DefinitionID:  definitionID,
		QuestionID:    q.ID,
		VersionNumber: 1,
		QuestionData:  datatypes.NewJSONType(q),
		Status:        model.QuestionVersionCurrent,
		ChangeLog:     "created",
		CreatedBy:     createdBy,
	}
	qv.CreatedAt = now
	qv.UpdatedAt = now

	if err := s.Versions.AddVersionEntry(ctx, v, qv); err != nil {
		return nil, err
	}
	if err := s.refreshDefinition(ctx, definitionID); err != nil {
		return nil, err
	}
	return qv, nil
}

// RemoveQuestion drops a question from a draft version. The question version itself is kept.
func (s *VersionService) RemoveQuestion(ctx context.Context, definitionID, versionID, questionVersionID string) (*model.Version, error) {
	v, err := s.Versions.FindVersion(ctx, definitionID, versionID)
	if err != nil {
		return nil, err
	}
	if !v.Editable() {
		return nil, fmt.Errorf("version %d is %s: %w", v.VersionNumber, v.Status, util.ErrInvalidTransition)
	}

	found := false
	for _, e := range v.Questions {
		if e.QuestionVersionID == questionVersionID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("question version %s not in version %d: %w", questionVersionID, v.VersionNumber, util.ErrNotFound)
	}

	if err := s.Versions.RemoveVersionEntry(ctx, v, questionVersionID); err != nil {
		return nil, err
	}
	if err := s.refreshDefinition(ctx, definitionID); err != nil {
		return nil, err
	}
	return v, nil
}

// refreshDefinition re-derives currentQuestionsCount and bumps updatedAt.
func (s *VersionService) refreshDefinition(ctx context.Context, definitionID string) error {
	def, err := s.Definitions.FindDefinition(ctx, definitionID)
	if err != nil {
		return err
	}
	versions, err := s.Versions.ListVersions(ctx, definitionID)
	if err != nil {
		return err
	}
	if cur, ok := versioning.Current(versions, model.Version.IsPublished); ok {
		def.CurrentQuestionsCount = cur.QuestionCount
	}
	def.UpdatedAt = s.Clock()
	return s.Definitions.UpdateDefinition(ctx, def)
}
