package service_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"
)

func TestCreateVersionNumbersSequentially(t *testing.T) {
	f := newFixture(t)
	d := f.definition(t, model.KindAssessment)

	for want := 1; want <= 3; want++ {
		v := f.version(t, d.ID)
		if v.VersionNumber != want {
			t.Fatalf("expected version %d, got %d", want, v.VersionNumber)
		}
		if v.Status != model.VersionDraft || v.PublishedAt != nil {
			t.Fatalf("new version should be an unpublished draft: %+v", v)
		}
	}

	versions, err := f.versions.GetVersionsForDefinition(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetVersionsForDefinition: %v", err)
	}
	var numbers []int
	for _, v := range versions {
		numbers = append(numbers, v.VersionNumber)
	}
	if !slices.Equal(numbers, []int{3, 2, 1}) {
		t.Fatalf("expected newest first, got %v", numbers)
	}
}

func TestCreateVersionConcurrentNumbersAreUnique(t *testing.T) {
	f := newFixture(t)
	d := f.definition(t, model.KindSurvey)

	const n = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.versions.CreateVersion(context.Background(), d.ID, "", "tester")
			if err != nil {
				t.Errorf("CreateVersion: %v", err)
				return
			}
			mu.Lock()
			numbers = append(numbers, v.VersionNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()

	slices.Sort(numbers)
	for i, got := range numbers {
		if got != i+1 {
			t.Fatalf("expected gapless unique numbers 1..%d, got %v", n, numbers)
		}
	}
}

func TestCreateVersionBumpsOnlyUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindAssessment)

	f.advance(time.Hour)
	f.version(t, d.ID)

	after, err := f.defs.GetDefinition(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if !after.UpdatedAt.Equal(f.now) {
		t.Fatalf("updatedAt = %v, want %v", after.UpdatedAt, f.now)
	}
	if after.Title != d.Title || after.CurrentQuestionsCount != d.CurrentQuestionsCount || !after.CreatedAt.Equal(d.CreatedAt) {
		t.Fatalf("definition fields changed: before %+v after %+v", d, after)
	}
}

func TestCreateVersionUnknownDefinition(t *testing.T) {
	f := newFixture(t)
	_, err := f.versions.CreateVersion(context.Background(), "nope", "", "tester")
	expectIs(t, err, util.ErrNotFound)
}

func TestCreateVersionCopiesForwardIntoOwnEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindSurvey)

	v1 := f.version(t, d.ID)
	q1 := f.question(t, d.ID, v1.ID, "Do you like Go?")
	q2 := f.question(t, d.ID, v1.ID, "Do you like gin?")

	v2 := f.version(t, d.ID)
	if v2.QuestionCount != 2 || len(v2.Questions) != 2 {
		t.Fatalf("expected two copied questions, got count=%d len=%d", v2.QuestionCount, len(v2.Questions))
	}
	if v2.Questions[0].QuestionVersionID != q1.ID || v2.Questions[1].QuestionVersionID != q2.ID {
		t.Fatalf("copied entries out of order: %+v", v2.Questions)
	}

	got1, err := f.versions.GetVersion(ctx, d.ID, v1.ID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	for i := range v2.Questions {
		if v2.Questions[i].ID == got1.Questions[i].ID {
			t.Fatalf("entry %d is shared between versions", i)
		}
	}

	if _, err := f.versions.RemoveQuestion(ctx, d.ID, v2.ID, q1.ID); err != nil {
		t.Fatalf("RemoveQuestion: %v", err)
	}
	got1, _ = f.versions.GetVersion(ctx, d.ID, v1.ID)
	if got1.QuestionCount != 2 || len(got1.Questions) != 2 {
		t.Fatalf("removing from v2 changed v1: %+v", got1.Questions)
	}
}

func TestCreateVersionStartsEmptyWithoutCopyForward(t *testing.T) {
	f := newFixture(t)
	f.policies.Update(&config.Config{
		Content: config.ContentConfig{
			Assessment: config.KindPolicy{CopyForward: false, ExpiredState: true},
			Survey:     config.KindPolicy{CopyForward: true, ExpiredState: true},
		},
		Delivery: f.policies.Delivery(),
	})
	d := f.definition(t, model.KindAssessment)

	v1 := f.version(t, d.ID)
	f.question(t, d.ID, v1.ID, "What is a goroutine?")

	v2 := f.version(t, d.ID)
	if v2.QuestionCount != 0 || len(v2.Questions) != 0 {
		t.Fatalf("expected empty version, got %d questions", len(v2.Questions))
	}

	// nothing is published, so the empty draft is now current
	def, err := f.defs.GetDefinition(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if def.CurrentQuestionsCount != 0 {
		t.Fatalf("currentQuestionsCount = %d, want 0 after empty draft", def.CurrentQuestionsCount)
	}
}

func TestCreateVersionKeepsPublishedCount(t *testing.T) {
	f := newFixture(t)
	f.policies.Update(&config.Config{
		Content: config.ContentConfig{
			Assessment: config.KindPolicy{CopyForward: false, ExpiredState: true},
			Survey:     config.KindPolicy{CopyForward: true, ExpiredState: true},
		},
		Delivery: f.policies.Delivery(),
	})
	ctx := context.Background()
	d := f.definition(t, model.KindAssessment)

	v1 := f.version(t, d.ID)
	f.question(t, d.ID, v1.ID, "one")
	f.question(t, d.ID, v1.ID, "two")
	if _, err := f.versions.PublishVersion(ctx, d.ID, v1.ID); err != nil {
		t.Fatalf("PublishVersion: %v", err)
	}
	f.version(t, d.ID)

	def, err := f.defs.GetDefinition(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetDefinition: %v", err)
	}
	if def.CurrentQuestionsCount != 2 {
		t.Fatalf("currentQuestionsCount = %d, want published count 2", def.CurrentQuestionsCount)
	}
	if def.LastVersionNumber != 2 {
		t.Fatalf("lastVersionNumber = %d, want 2", def.LastVersionNumber)
	}
}

func TestQuestionCountMatchesEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindAssessment)
	v := f.version(t, d.ID)

	qs := []*model.QuestionVersion{
		f.question(t, d.ID, v.ID, "one"),
		f.question(t, d.ID, v.ID, "two"),
		f.question(t, d.ID, v.ID, "three"),
	}
	if _, err := f.versions.RemoveQuestion(ctx, d.ID, v.ID, qs[1].ID); err != nil {
		t.Fatalf("RemoveQuestion: %v", err)
	}

	got, err := f.versions.GetVersion(ctx, d.ID, v.ID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if got.QuestionCount != len(got.Questions) || got.QuestionCount != 2 {
		t.Fatalf("questionCount=%d len=%d", got.QuestionCount, len(got.Questions))
	}
	for i, e := range got.Questions {
		if e.Position != i+1 {
			t.Fatalf("entry %d has position %d", i, e.Position)
		}
	}
	if got.Questions[1].QuestionVersion.Content().Text != "three" {
		t.Fatalf("unexpected remaining order: %+v", got.Questions)
	}

	_, err = f.versions.RemoveQuestion(ctx, d.ID, v.ID, qs[1].ID)
	expectIs(t, err, util.ErrNotFound)
}

func TestGetVersionScopedToDefinition(t *testing.T) {
	f := newFixture(t)
	a := f.definition(t, model.KindAssessment)
	b := f.definition(t, model.KindAssessment)
	v := f.version(t, a.ID)

	_, err := f.versions.GetVersion(context.Background(), b.ID, v.ID)
	expectIs(t, err, util.ErrNotFound)
}

func TestPublishAndArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindAssessment)
	v := f.version(t, d.ID)
	f.question(t, d.ID, v.ID, "q")

	_, err := f.versions.ArchiveVersion(ctx, d.ID, v.ID)
	expectIs(t, err, util.ErrInvalidTransition)

	f.advance(time.Minute)
	published, err := f.versions.PublishVersion(ctx, d.ID, v.ID)
	if err != nil {
		t.Fatalf("PublishVersion: %v", err)
	}
	if published.Status != model.VersionPublished || published.PublishedAt == nil || !published.PublishedAt.Equal(f.now) {
		t.Fatalf("unexpected published version: %+v", published)
	}

	def, _ := f.defs.GetDefinition(ctx, d.ID)
	if def.CurrentQuestionsCount != 1 {
		t.Fatalf("currentQuestionsCount = %d, want 1", def.CurrentQuestionsCount)
	}

	_, err = f.versions.AddQuestion(ctx, d.ID, v.ID, service.QuestionRequest{Text: "late", Type: model.QuestionFreeText}, "tester")
	expectIs(t, err, util.ErrInvalidTransition)

	_, err = f.versions.PublishVersion(ctx, d.ID, v.ID)
	expectIs(t, err, util.ErrInvalidTransition)

	archived, err := f.versions.ArchiveVersion(ctx, d.ID, v.ID)
	if err != nil {
		t.Fatalf("ArchiveVersion: %v", err)
	}
	if archived.Status != model.VersionArchived {
		t.Fatalf("status = %s", archived.Status)
	}
}

func TestCurrentVersionPrefersPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindSurvey)

	_, err := f.versions.CurrentVersion(ctx, d.ID)
	expectIs(t, err, util.ErrNotFound)

	v1 := f.version(t, d.ID)
	v2 := f.version(t, d.ID)

	cur, err := f.versions.CurrentVersion(ctx, d.ID)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if cur.ID != v2.ID {
		t.Fatalf("expected newest version without any published, got %d", cur.VersionNumber)
	}

	if _, err := f.versions.PublishVersion(ctx, d.ID, v1.ID); err != nil {
		t.Fatalf("PublishVersion: %v", err)
	}
	f.version(t, d.ID)

	cur, err = f.versions.CurrentVersion(ctx, d.ID)
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if cur.ID != v1.ID {
		t.Fatalf("expected published version 1, got %d", cur.VersionNumber)
	}
}

func TestAddQuestionValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindAssessment)
	v := f.version(t, d.ID)

	cases := []struct {
		req   service.QuestionRequest
		field string
	}{
		{service.QuestionRequest{Type: model.QuestionFreeText}, "text"},
		{service.QuestionRequest{Text: "q", Type: "essay"}, "type"},
		{service.QuestionRequest{Text: "q", Type: model.QuestionFreeText, Difficulty: "insane"}, "difficulty"},
		{service.QuestionRequest{Text: "q", Type: model.QuestionFreeText, Points: -1}, "points"},
		{service.QuestionRequest{Text: "q", Type: model.QuestionMultipleChoice, Options: []string{"a"}}, "options"},
		{service.QuestionRequest{Text: "q", Type: model.QuestionSingleChoice, Options: []string{"a", "b"}, CorrectAnswer: []string{"c"}}, "correctAnswer"},
		{service.QuestionRequest{Text: "q", Type: model.QuestionSingleChoice, Options: []string{"a", "b"}, CorrectAnswer: []string{"a", "b"}}, "correctAnswer"},
	}
	for _, tc := range cases {
		_, err := f.versions.AddQuestion(ctx, d.ID, v.ID, tc.req, "tester")
		expectField(t, err, tc.field)
	}

	got, _ := f.versions.GetVersion(ctx, d.ID, v.ID)
	if got.QuestionCount != 0 {
		t.Fatalf("rejected questions were stored: %d", got.QuestionCount)
	}
}

func TestRemoveQuestionFromDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.definition(t, model.KindSurvey)
	v := f.version(t, d.ID)
	first := f.question(t, d.ID, v.ID, "first")
	second := f.question(t, d.ID, v.ID, "second")

	_, err := f.versions.RemoveQuestion(ctx, d.ID, v.ID, "missing")
	expectIs(t, err, util.ErrNotFound)

	got, err := f.versions.RemoveQuestion(ctx, d.ID, v.ID, first.ID)
	if err != nil {
		t.Fatalf("RemoveQuestion: %v", err)
	}
	if got.QuestionCount != 1 || got.Questions[0].QuestionVersionID != second.ID {
		t.Fatalf("remaining entries = %+v", got.Questions)
	}

	if _, err := f.versions.PublishVersion(ctx, d.ID, v.ID); err != nil {
		t.Fatalf("PublishVersion: %v", err)
	}
	_, err = f.versions.RemoveQuestion(ctx, d.ID, v.ID, second.ID)
	expectIs(t, err, util.ErrInvalidTransition)
}
