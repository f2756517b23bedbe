package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"friendship-court/backend/internal/judge"
	"friendship-court/backend/internal/session"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server, err := NewServer(Config{
		DBPath:    filepath.Join(t.TempDir(), "cases.db"),
		SilentDB:  true,
		DisableAI: true,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = server.Close() })

	router, err := server.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return server, router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rec
}

func waitForResults(t *testing.T, router *gin.Engine, caseID string) CaseDTO {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var dto CaseDTO
		rec := doJSON(t, router, http.MethodGet, "/api/cases/"+caseID, "", &dto)
		if rec.Code != http.StatusOK {
			t.Fatalf("get case: status %d body %s", rec.Code, rec.Body.String())
		}
		if dto.Phase == "results" {
			return dto
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("case %s never reached results phase", caseID)
	return CaseDTO{}
}

func TestSubmitRequiresBothStories(t *testing.T) {
	_, router := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing a", `{"story_b":"they never called back","tone":"Gentle"}`},
		{"missing b", `{"story_a":"I waited for an hour","tone":"Gentle"}`},
		{"whitespace only", `{"story_a":"   ","story_b":"they never called back"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/cases", tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), "both perspectives") {
				t.Fatalf("expected actionable validation message, got %s", rec.Body.String())
			}
		})
	}
}

func TestCaseLifecycle(t *testing.T) {
	_, router := newTestServer(t)

	var submitted SubmitCaseResponse
	rec := doJSON(t, router, http.MethodPost, "/api/cases",
		`{"story_a":"We agreed to meet at 6 but they never showed up.","story_b":"I got stuck at work and forgot to text.","tone":"Neutral"}`,
		&submitted)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit: status %d body %s", rec.Code, rec.Body.String())
	}
	if submitted.CaseID == "" || submitted.Phase != "thinking" {
		t.Fatalf("unexpected submit response: %+v", submitted)
	}

	dto := waitForResults(t, router, submitted.CaseID)
	if dto.Step != 1 {
		t.Fatalf("results must open on step 1, got %d", dto.Step)
	}
	if dto.Judgment == nil {
		t.Fatalf("results phase without judgment")
	}
	// AI is disabled, so the heuristic split applies.
	if dto.Judgment.AResponsibility != 55 || dto.Judgment.BResponsibility != 45 {
		t.Fatalf("expected heuristic 55/45, got %d/%d", dto.Judgment.AResponsibility, dto.Judgment.BResponsibility)
	}
	if dto.Tone != "Neutral" {
		t.Fatalf("expected tone Neutral, got %q", dto.Tone)
	}

	var stepped CaseDTO
	for i := 0; i < 4; i++ {
		doJSON(t, router, http.MethodPost, "/api/cases/"+submitted.CaseID+"/next", "", &stepped)
	}
	if stepped.Step != 3 {
		t.Fatalf("next must clamp at step 3, got %d", stepped.Step)
	}
	doJSON(t, router, http.MethodPost, "/api/cases/"+submitted.CaseID+"/prev", "", &stepped)
	if stepped.Step != 2 {
		t.Fatalf("expected step 2 after prev, got %d", stepped.Step)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/cases/"+submitted.CaseID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/cases/"+submitted.CaseID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after reset, got %d", rec.Code)
	}
}

// A reset that lands while the judgment job is running must win: the job
// holds a pre-delete copy of the case and its completion write has to be
// discarded rather than recreate the row.
func TestResetDuringThinkingDiscardsVerdict(t *testing.T) {
	server, router := newTestServer(t)
	ctx := context.Background()

	input := judge.CaseInput{
		StoryA: "they cancelled on me twice in one week",
		StoryB: "work has been brutal lately",
		Tone:   judge.ToneGentle,
	}
	active := session.NewCase("case-reset-race", input)
	if err := server.cases.Save(ctx, active); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := doJSON(t, router, http.MethodDelete, "/api/cases/"+active.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d", rec.Code)
	}

	// The judgment job finishing after the reset must not bring the case back.
	server.runJudgment(active.ID, input)

	rec = doJSON(t, router, http.MethodGet, "/api/cases/"+active.ID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("reset case resurfaced with status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestStepNavigationUnknownCase(t *testing.T) {
	_, router := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/cases/nope/next", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown case, got %d", rec.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	_, router := newTestServer(t)

	var cfg struct {
		Tones           []string `json:"tones"`
		AIEnabled       bool     `json:"ai_enabled"`
		ThinkingSeconds int      `json:"thinking_seconds"`
	}
	rec := doJSON(t, router, http.MethodGet, "/api/config", "", &cfg)
	if rec.Code != http.StatusOK {
		t.Fatalf("config: status %d", rec.Code)
	}
	if cfg.AIEnabled {
		t.Fatalf("ai must report disabled")
	}
	if len(cfg.Tones) != 3 || cfg.Tones[0] != "Gentle" {
		t.Fatalf("unexpected tones %v", cfg.Tones)
	}
}
