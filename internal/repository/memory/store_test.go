package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/util"

	"gorm.io/datatypes"
)

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	d := &model.Delivery{DeliveryName: "a", Targets: []model.Target{{Type: model.TargetUser, ID: "u"}}}
	if err := s.CreateDelivery(ctx, d); err != nil {
		t.Fatalf("CreateDelivery: %v", err)
	}
	d.Targets[0].ID = "changed"

	got, err := s.FindDelivery(ctx, d.ID)
	if err != nil {
		t.Fatalf("FindDelivery: %v", err)
	}
	got.Targets[0].Name = "mutated"

	again, _ := s.FindDelivery(ctx, d.ID)
	if again.Targets[0].ID != "u" || again.Targets[0].Name != "" {
		t.Fatalf("stored delivery shares memory with callers: %+v", again.Targets[0])
	}
}

func TestQuestionVersionContentIsCopied(t *testing.T) {
	s := New()
	ctx := context.Background()

	def := &model.Definition{Kind: model.KindAssessment, Title: "t"}
	if err := s.CreateDefinition(ctx, def); err != nil {
		t.Fatalf("CreateDefinition: %v", err)
	}
	v := &model.Version{DefinitionID: def.ID, Status: model.VersionDraft}
	if err := s.CreateNextVersion(ctx, v, true, time.Now()); err != nil {
		t.Fatalf("CreateNextVersion: %v", err)
	}

	qv := &model.QuestionVersion{
		QuestionID:    "q",
		VersionNumber: 1,
		QuestionData:  datatypes.NewJSONType(model.Question{Text: "x", Options: []string{"a", "b"}}),
	}
	if err := s.AddVersionEntry(ctx, v, qv); err != nil {
		t.Fatalf("AddVersionEntry: %v", err)
	}
	v.Questions[0].QuestionVersion.QuestionData.Data().Options[0] = "z"

	got, _ := s.FindQuestionVersion(ctx, qv.ID)
	if got.Content().Options[0] != "a" {
		t.Fatalf("stored options mutated: %v", got.Content().Options)
	}
}

func TestUpdateDeliveryChecksRevision(t *testing.T) {
	s := New()
	ctx := context.Background()

	d := &model.Delivery{DeliveryName: "a"}
	if err := s.CreateDelivery(ctx, d); err != nil {
		t.Fatalf("CreateDelivery: %v", err)
	}
	if d.Revision != 1 {
		t.Fatalf("initial revision = %d", d.Revision)
	}

	d.Status = model.DeliveryCancelled
	if err := s.UpdateDelivery(ctx, d, 1); err != nil {
		t.Fatalf("UpdateDelivery: %v", err)
	}
	if d.Revision != 2 {
		t.Fatalf("revision = %d, want 2", d.Revision)
	}
	if err := s.UpdateDelivery(ctx, d, 1); !errors.Is(err, util.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := s.UpdateDelivery(ctx, &model.Delivery{UUIDBase: model.UUIDBase{ID: "nope"}}, 1); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVersionNumbersUseHighWaterMark(t *testing.T) {
	s := New()
	ctx := context.Background()

	def := &model.Definition{Kind: model.KindSurvey, Title: "t", LastVersionNumber: 4}
	if err := s.CreateDefinition(ctx, def); err != nil {
		t.Fatalf("CreateDefinition: %v", err)
	}
	v := &model.Version{DefinitionID: def.ID}
	if err := s.CreateNextVersion(ctx, v, false, time.Now()); err != nil {
		t.Fatalf("CreateNextVersion: %v", err)
	}
	if v.VersionNumber != 5 {
		t.Fatalf("version number = %d, want 5", v.VersionNumber)
	}
}

func TestListDefinitionsPageBeyondRange(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		if err := s.CreateDefinition(ctx, &model.Definition{Kind: model.KindSurvey, Title: title}); err != nil {
			t.Fatalf("CreateDefinition: %v", err)
		}
	}

	got, total, err := s.ListDefinitions(ctx, "", 2, 2)
	if err != nil || total != 3 || len(got) != 1 {
		t.Fatalf("page 2: len=%d total=%d err=%v", len(got), total, err)
	}
	got, total, err = s.ListDefinitions(ctx, "", math.MaxInt/100, 200)
	if err != nil || total != 3 || len(got) != 0 {
		t.Fatalf("huge page: len=%d total=%d err=%v", len(got), total, err)
	}
}
