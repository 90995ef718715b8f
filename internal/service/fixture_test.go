package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository/memory"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
)

type fixture struct {
	store      *memory.Store
	policies   *service.Policies
	defs       *service.DefinitionService
	versions   *service.VersionService
	questions  *service.QuestionVersionService
	directory  *service.DirectoryService
	deliveries *service.DeliveryService
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	policies := service.DefaultPolicies()

	f := &fixture{
		store:    store,
		policies: policies,
		now:      time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	f.defs = service.NewDefinitionService(store)
	f.versions = service.NewVersionService(store, store, policies)
	f.questions = service.NewQuestionVersionService(store, store)
	f.directory = service.NewDirectoryService(store, policies)
	f.deliveries = service.NewDeliveryService(store, store, store, f.directory, policies, nil)

	f.defs.Clock = f.clock
	f.versions.Clock = f.clock
	f.questions.Clock = f.clock
	f.directory.Clock = f.clock
	f.deliveries.Clock = f.clock
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) definition(t *testing.T, kind model.ContentKind) *model.Definition {
	t.Helper()
	d, err := f.defs.CreateDefinition(context.Background(), service.DefinitionRequest{
		Kind:  kind,
		Title: "Go fundamentals",
	})
	if err != nil {
		t.Fatalf("CreateDefinition: %v", err)
	}
	return d
}

func (f *fixture) version(t *testing.T, defID string) *model.Version {
	t.Helper()
	v, err := f.versions.CreateVersion(context.Background(), defID, "", "tester")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	return v
}

func (f *fixture) question(t *testing.T, defID, versionID, text string) *model.QuestionVersion {
	t.Helper()
	qv, err := f.versions.AddQuestion(context.Background(), defID, versionID, service.QuestionRequest{
		Text:          text,
		Type:          model.QuestionSingleChoice,
		Options:       []string{"yes", "no"},
		CorrectAnswer: []string{"yes"},
		Points:        5,
	}, "tester")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	return qv
}

func expectField(t *testing.T, err error, field string) {
	t.Helper()
	ve, ok := util.IsValidation(err)
	if !ok {
		t.Fatalf("expected validation error on %q, got %v", field, err)
	}
	if ve.Field != field {
		t.Fatalf("expected validation error on %q, got %q (%s)", field, ve.Field, ve.Message)
	}
}

func expectIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

func ptr[T any](v T) *T { return &v }
