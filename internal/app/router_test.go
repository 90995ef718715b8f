package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"edu_admin_backend/internal/config"
	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/repository/memory"
	"edu_admin_backend/internal/service"
	"edu_admin_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const testSecret = "router-test-secret-router-test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		JWT:     config.JWTConfig{Secret: testSecret},
		Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: t.TempDir()},
		Content: config.ContentConfig{
			Assessment: config.KindPolicy{CopyForward: true, ExpiredState: true},
			Survey:     config.KindPolicy{CopyForward: true, ExpiredState: false},
		},
		Delivery: config.DeliveryConfig{NearExpiryDays: 3, DefaultGroupSize: 10, DefaultCompanySize: 100},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	repos := &repositories{
		definition: store,
		version:    store,
		question:   store,
		delivery:   store,
		directory:  store,
	}
	policies := service.NewPolicies(cfg.Content, cfg.Delivery)
	a := &App{Config: cfg, Policies: policies}
	a.services = initServices(repos, cfg, policies)

	router := gin.New()
	a.registerRoutes(router, initControllers(a.services, nil, nil), cfg)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func createDefinition(t *testing.T, router *gin.Engine, kind model.ContentKind) model.Definition {
	t.Helper()
	w, env := do(t, router, http.MethodPost, "/api/definitions", service.DefinitionRequest{
		Kind:  kind,
		Title: "Onboarding check",
	}, nil)
	mustStatus(t, w, http.StatusCreated)
	var def model.Definition
	decode(t, env, &def)
	return def
}

func TestVersionAndQuestionFlow(t *testing.T) {
	router := newTestRouter(t, testConfig(t))
	def := createDefinition(t, router, model.KindAssessment)

	w, env := do(t, router, http.MethodPost, "/api/definitions/"+def.ID+"/versions", gin.H{"description": "first"}, nil)
	mustStatus(t, w, http.StatusCreated)
	var v1 model.Version
	decode(t, env, &v1)
	if v1.VersionNumber != 1 || v1.Status != model.VersionDraft {
		t.Fatalf("v1 = #%d %s, want #1 draft", v1.VersionNumber, v1.Status)
	}

	w, env = do(t, router, http.MethodPost, "/api/definitions/"+def.ID+"/versions/"+v1.ID+"/questions", service.QuestionRequest{
		Text:          "2 + 2?",
		Type:          model.QuestionSingleChoice,
		Options:       []string{"3", "4"},
		CorrectAnswer: []string{"4"},
		Points:        5,
	}, nil)
	mustStatus(t, w, http.StatusCreated)
	var qv model.QuestionVersion
	decode(t, env, &qv)

	w, _ = do(t, router, http.MethodPost, "/api/definitions/"+def.ID+"/versions/"+v1.ID+"/publish", nil, nil)
	mustStatus(t, w, http.StatusOK)

	// copy-forward puts the published question into the next draft
	w, env = do(t, router, http.MethodPost, "/api/definitions/"+def.ID+"/versions", nil, nil)
	mustStatus(t, w, http.StatusCreated)
	var v2 model.Version
	decode(t, env, &v2)
	if v2.VersionNumber != 2 || v2.QuestionCount != 1 {
		t.Fatalf("v2 = #%d with %d questions, want #2 with 1", v2.VersionNumber, v2.QuestionCount)
	}

	w, _ = do(t, router, http.MethodPatch, "/api/question-versions/"+qv.ID, gin.H{"text": "2 + 3?"}, nil)
	mustStatus(t, w, http.StatusBadRequest)

	w, env = do(t, router, http.MethodPatch, "/api/question-versions/"+qv.ID, gin.H{
		"text":          "2 + 3?",
		"options":       []string{"5", "6"},
		"correctAnswer": []string{"5"},
		"changeLog":     "new numbers",
	}, nil)
	mustStatus(t, w, http.StatusOK)
	var edited model.QuestionVersion
	decode(t, env, &edited)
	if edited.Supersedes != qv.ID || edited.VersionNumber != 2 {
		t.Fatalf("edited = %+v, want version 2 superseding %s", edited, qv.ID)
	}

	// editing the superseded version again is a conflict
	w, _ = do(t, router, http.MethodPatch, "/api/question-versions/"+qv.ID, gin.H{"points": 1, "changeLog": "late"}, nil)
	mustStatus(t, w, http.StatusConflict)

	w, env = do(t, router, http.MethodGet, "/api/definitions/"+def.ID+"/versions/"+v1.ID, nil, nil)
	mustStatus(t, w, http.StatusOK)
	var published model.Version
	decode(t, env, &published)
	if got := published.Questions[0].QuestionVersionID; got != qv.ID {
		t.Fatalf("published version lists %s, want original %s", got, qv.ID)
	}

	w, env = do(t, router, http.MethodGet, "/api/definitions/"+def.ID+"/versions", nil, nil)
	mustStatus(t, w, http.StatusOK)
	var list []model.Version
	decode(t, env, &list)
	if len(list) != 2 || list[0].VersionNumber != 2 {
		t.Fatalf("versions not listed newest first: %+v", list)
	}

	w, env = do(t, router, http.MethodGet, "/api/questions/"+qv.QuestionID+"/history", nil, nil)
	mustStatus(t, w, http.StatusOK)
	var history []model.QuestionVersion
	decode(t, env, &history)
	if len(history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(history))
	}
}

func TestDeliveryEndpoints(t *testing.T) {
	router := newTestRouter(t, testConfig(t))
	def := createDefinition(t, router, model.KindAssessment)

	w, _ := do(t, router, http.MethodPut, "/api/directory/groups/g1", service.GroupRequest{Name: "Sales", MemberCount: 4}, nil)
	mustStatus(t, w, http.StatusOK)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -1)
	end := today.AddDate(0, 0, 30)

	w, env := do(t, router, http.MethodPost, "/api/deliveries", gin.H{
		"definitionId": def.ID,
		"deliveryName": "Monthly round",
		"targets":      []model.Target{{Type: model.TargetGroup, ID: "g1"}, {Type: model.TargetUser, ID: "u1"}},
		"startDate":    start.Format(util.DateFormat),
		"endDate":      end.Format(util.DateFormat),
	}, nil)
	mustStatus(t, w, http.StatusCreated)
	var created service.DeliveryView
	decode(t, env, &created)
	if created.TotalParticipants != 5 {
		t.Fatalf("total = %d, want 5", created.TotalParticipants)
	}
	if created.Targets[0].Name != "Sales" {
		t.Fatalf("group name = %q, want Sales", created.Targets[0].Name)
	}

	at := "?at=" + end.AddDate(0, 0, -1).Format(time.RFC3339)
	w, env = do(t, router, http.MethodGet, "/api/deliveries/"+created.ID+at, nil, nil)
	mustStatus(t, w, http.StatusOK)
	var view service.DeliveryView
	decode(t, env, &view)
	if view.Status != model.DeliveryInProgress || !view.IsNearExpiry {
		t.Fatalf("view = %s near=%v, want in-progress and near expiry", view.Status, view.IsNearExpiry)
	}

	w, env = do(t, router, http.MethodGet, "/api/deliveries?status=expired&at="+end.AddDate(0, 0, 2).Format(time.RFC3339), nil, nil)
	mustStatus(t, w, http.StatusOK)
	var page struct {
		List  []service.DeliveryView `json:"list"`
		Total int64                  `json:"total"`
	}
	decode(t, env, &page)
	if page.Total != 1 || page.List[0].ID != created.ID {
		t.Fatalf("expired filter returned %+v", page)
	}

	w, _ = do(t, router, http.MethodGet, "/api/deliveries/"+created.ID+"?at=yesterday", nil, nil)
	mustStatus(t, w, http.StatusBadRequest)

	newEnd := end.AddDate(0, 0, 15)
	w, _ = do(t, router, http.MethodPatch, "/api/deliveries/"+created.ID, gin.H{"endDate": newEnd.Format(util.DateFormat), "revision": 7}, nil)
	mustStatus(t, w, http.StatusConflict)

	w, env = do(t, router, http.MethodPatch, "/api/deliveries/"+created.ID, gin.H{"endDate": newEnd.Format(util.DateFormat), "revision": created.Revision}, nil)
	mustStatus(t, w, http.StatusOK)
	var updated service.DeliveryView
	decode(t, env, &updated)
	if !updated.EndDate.Equal(newEnd) || updated.Revision != created.Revision+1 {
		t.Fatalf("updated = end %v rev %d", updated.EndDate, updated.Revision)
	}

	w, env = do(t, router, http.MethodPost, "/api/deliveries/"+created.ID+"/report", nil, nil)
	mustStatus(t, w, http.StatusOK)
	var report map[string]string
	decode(t, env, &report)
	if report["url"] == "" {
		t.Fatal("report url is empty")
	}

	w, _ = do(t, router, http.MethodDelete, "/api/deliveries/"+created.ID, nil, nil)
	mustStatus(t, w, http.StatusNoContent)
	w, _ = do(t, router, http.MethodDelete, "/api/deliveries/"+created.ID, nil, nil)
	mustStatus(t, w, http.StatusNotFound)
}

func TestCreateDeliveryValidationError(t *testing.T) {
	router := newTestRouter(t, testConfig(t))
	def := createDefinition(t, router, model.KindSurvey)

	w, env := do(t, router, http.MethodPost, "/api/deliveries", gin.H{
		"definitionId": def.ID,
		"deliveryName": "Pulse",
		"targets":      []model.Target{{Type: model.TargetUser, ID: "u1"}},
		"startDate":    "2024-02-01",
		"endDate":      "2024-01-01",
	}, nil)
	mustStatus(t, w, http.StatusBadRequest)
	var data map[string]string
	decode(t, env, &data)
	if data["field"] != "endDate" {
		t.Fatalf("field = %q, want endDate", data["field"])
	}
}

func TestAuthGuardsAPIButNotHealth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Enabled = true
	router := newTestRouter(t, cfg)

	w, _ := do(t, router, http.MethodGet, "/api/definitions", nil, nil)
	mustStatus(t, w, http.StatusUnauthorized)

	token, err := util.GenerateJWT("a1", "Hanako", "hanako@example.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	auth := http.Header{"Authorization": []string{"Bearer " + token}}

	def := model.Definition{}
	w, env := do(t, router, http.MethodPost, "/api/definitions", service.DefinitionRequest{Kind: model.KindSurvey, Title: "Pulse"}, auth)
	mustStatus(t, w, http.StatusCreated)
	decode(t, env, &def)

	w, env = do(t, router, http.MethodPost, "/api/definitions/"+def.ID+"/versions", nil, auth)
	mustStatus(t, w, http.StatusCreated)
	var v model.Version
	decode(t, env, &v)
	if v.CreatedBy != "Hanako" {
		t.Fatalf("createdBy = %q, want Hanako", v.CreatedBy)
	}
}
