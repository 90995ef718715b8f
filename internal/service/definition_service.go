package service

import (
	"context"
	"strings"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/pkg/logger"

	"go.uber.org/zap"
)

type DefinitionService struct {
	Repo  DefinitionRepository
	Clock func() time.Time
}

func NewDefinitionService(repo DefinitionRepository) *DefinitionService {
	return &DefinitionService{Repo: repo, Clock: time.Now}
}

type DefinitionRequest struct {
	Kind             model.ContentKind `json:"kind"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Type             string            `json:"type"`
	Difficulty       string            `json:"difficulty"`
	TargetLevels     []string          `json:"targetLevels"`
	EstimatedMinutes int               `json:"estimatedMinutes"`
}

func (r DefinitionRequest) validate() error {
	if !r.Kind.Valid() {
		return util.NewValidationError("kind", "must be assessment or survey")
	}
	if strings.TrimSpace(r.Title) == "" {
		return util.NewValidationError("title", "must not be empty")
	}
	if r.EstimatedMinutes < 0 {
		return util.NewValidationError("estimatedMinutes", "must not be negative")
	}
	return nil
}

func (s *DefinitionService) CreateDefinition(ctx context.Context, req DefinitionRequest) (*model.Definition, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.Clock()
	d := &model.Definition{
		Kind:             req.Kind,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Type:             req.Type,
		Difficulty:       req.Difficulty,
		TargetLevels:     req.TargetLevels,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.Repo.CreateDefinition(ctx, d); err != nil {
		return nil, err
	}

	logger.Log.Info("definition created",
		zap.String("definitionId", d.ID),
		zap.String("kind", string(d.Kind)),
	)
	return d, nil
}

func (s *DefinitionService) GetDefinition(ctx context.Context, id string) (*model.Definition, error) {
	return s.Repo.FindDefinition(ctx, id)
}

func (s *DefinitionService) ListDefinitions(ctx context.Context, kind model.ContentKind, page, limit int) ([]model.Definition, int64, error) {
	if kind != "" && !kind.Valid() {
		return nil, 0, util.NewValidationError("kind", "must be assessment or survey")
	}
	return s.Repo.ListDefinitions(ctx, kind, page, limit)
}

// UpdateDefinition edits descriptive fields. The kind is fixed at creation.
func (s *DefinitionService) UpdateDefinition(ctx context.Context, id string, req DefinitionRequest) (*model.Definition, error) {
	d, err := s.Repo.FindDefinition(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Kind == "" {
		req.Kind = d.Kind
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Kind != d.Kind {
		return nil, util.NewValidationError("kind", "cannot be changed")
	}

	d.Title = strings.TrimSpace(req.Title)
	d.Description = req.Description
	d.Type = req.Type
	d.Difficulty = req.Difficulty
	d.TargetLevels = req.TargetLevels
	d.EstimatedMinutes = req.EstimatedMinutes
	d.UpdatedAt = s.Clock()

	if err := s.Repo.UpdateDefinition(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
