package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"
	"edu_admin_backend/pkg/logger"

	"go.uber.org/zap"
)

// DirectoryService answers the headcount and naming questions deliveries ask of the
// externally maintained group, company and user directories.
type DirectoryService struct {
	Repo     DirectoryRepository
	Policies *Policies
	Clock    func() time.Time
}

func NewDirectoryService(repo DirectoryRepository, policies *Policies) *DirectoryService {
	return &DirectoryService{Repo: repo, Policies: policies, Clock: time.Now}
}

// GroupMemberCount falls back to the configured default group size for unknown groups.
func (s *DirectoryService) GroupMemberCount(ctx context.Context, id string) (int, error) {
	g, err := s.Repo.FindGroup(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return s.Policies.Delivery().DefaultGroupSize, nil
	}
	if err != nil {
		return 0, err
	}
	return g.MemberCount, nil
}

// CompanyEmployeeCount falls back to the configured default company size for unknown companies.
func (s *DirectoryService) CompanyEmployeeCount(ctx context.Context, id string) (int, error) {
	c, err := s.Repo.FindCompany(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return s.Policies.Delivery().DefaultCompanySize, nil
	}
	if err != nil {
		return 0, err
	}
	return c.EmployeeCount, nil
}

// ResolveUserName returns the directory name, or the id itself when the user is unknown.
func (s *DirectoryService) ResolveUserName(ctx context.Context, id string) (string, error) {
	u, err := s.Repo.FindUser(ctx, id)
	if errors.Is(err, util.ErrNotFound) {
		return id, nil
	}
	if err != nil {
		return "", err
	}
	return u.Name, nil
}

// ResolveTarget returns the participant count a target contributes and fills in its
// display name when the caller left it blank.
func (s *DirectoryService) ResolveTarget(ctx context.Context, t model.Target) (model.Target, int, error) {
	switch t.Type {
	case model.TargetUser:
		if t.Name == "" {
			name, err := s.ResolveUserName(ctx, t.ID)
			if err != nil {
				return t, 0, err
			}
			t.Name = name
		}
		return t, 1, nil

	case model.TargetGroup:
		g, err := s.Repo.FindGroup(ctx, t.ID)
		switch {
		case errors.Is(err, util.ErrNotFound):
			return withName(t, t.ID), s.Policies.Delivery().DefaultGroupSize, nil
		case err != nil:
			return t, 0, err
		}
		return withName(t, g.Name), g.MemberCount, nil

	case model.TargetCompany:
		c, err := s.Repo.FindCompany(ctx, t.ID)
		switch {
		case errors.Is(err, util.ErrNotFound):
			return withName(t, t.ID), s.Policies.Delivery().DefaultCompanySize, nil
		case err != nil:
			return t, 0, err
		}
		return withName(t, c.Name), c.EmployeeCount, nil
	}
	return t, 0, util.NewValidationError("targets", "unknown target type "+string(t.Type))
}

func withName(t model.Target, name string) model.Target {
	if t.Name == "" {
		t.Name = name
	}
	return t
}

type GroupRequest struct {
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

type CompanyRequest struct {
	Name          string `json:"name"`
	EmployeeCount int    `json:"employeeCount"`
}

type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *DirectoryService) UpsertGroup(ctx context.Context, id string, req GroupRequest) (*model.DirectoryGroup, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, util.NewValidationError("name", "must not be empty")
	}
	if req.MemberCount < 0 {
		return nil, util.NewValidationError("memberCount", "must not be negative")
	}
	g := &model.DirectoryGroup{ID: id, Name: req.Name, MemberCount: req.MemberCount, UpdatedAt: s.Clock()}
	if err := s.Repo.SaveGroup(ctx, g); err != nil {
		return nil, err
	}
	logger.Log.Info("directory group saved", zap.String("groupId", id), zap.Int("memberCount", g.MemberCount))
	return g, nil
}

func (s *DirectoryService) UpsertCompany(ctx context.Context, id string, req CompanyRequest) (*model.DirectoryCompany, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, util.NewValidationError("name", "must not be empty")
	}
	if req.EmployeeCount < 0 {
		return nil, util.NewValidationError("employeeCount", "must not be negative")
	}
	c := &model.DirectoryCompany{ID: id, Name: req.Name, EmployeeCount: req.EmployeeCount, UpdatedAt: s.Clock()}
	if err := s.Repo.SaveCompany(ctx, c); err != nil {
		return nil, err
	}
	logger.Log.Info("directory company saved", zap.String("companyId", id), zap.Int("employeeCount", c.EmployeeCount))
	return c, nil
}

func (s *DirectoryService) UpsertUser(ctx context.Context, id string, req UserRequest) (*model.DirectoryUser, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, util.NewValidationError("name", "must not be empty")
	}
	u := &model.DirectoryUser{ID: id, Name: req.Name, Email: req.Email, UpdatedAt: s.Clock()}
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	logger.Log.Info("directory user saved", zap.String("userId", id))
	return u, nil
}
