package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture, *Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	registry := NewRegistry()
	handler := NewHandler(f.machine, registry)

	r := gin.New()
	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)
	return r, f, registry
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/api/v1/sessions", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		SessionID string `json:"sessionId"`
		Stage     string `json:"stage"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if payload.Stage != "start" {
		t.Fatalf("new session must be in start, got %q", payload.Stage)
	}
	return payload.SessionID
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	r, f, _ := newTestRouter(t)
	seedUser(t, f, "alice")
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/identity", gin.H{
		"identity": "alice",
		"confirm":  true,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("identity: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "waiting_job_description") {
		t.Fatalf("expected waiting_job_description, got %s", resp.Body.String())
	}

	resp = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/jobs", gin.H{
		"description": "backend engineer role",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create job: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/process", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("process: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "job_exploration") {
		t.Fatalf("expected job_exploration, got %s", resp.Body.String())
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/sessions/"+id+"/document", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("document: expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type: %q", ct)
	}

	resp = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/chat", gin.H{
		"message": "How should I open my summary?",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("chat: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "Focus on your Go experience.") {
		t.Fatalf("unexpected chat answer: %s", resp.Body.String())
	}

	resp = doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/menu", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("menu: expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"start"`) {
		t.Fatalf("expected start after menu, got %s", resp.Body.String())
	}
}

func TestInvalidTriggerReturnsConflict(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/process", nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "invalid_trigger") {
		t.Fatalf("expected invalid_trigger code, got %s", resp.Body.String())
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)
	resp := doJSON(t, r, http.MethodPost, "/api/v1/sessions/nope/process", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestValidationErrorReturnsBadRequest(t *testing.T) {
	r, f, _ := newTestRouter(t)
	seedUser(t, f, "alice")
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/identity", gin.H{
		"identity": "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "validation_error") {
		t.Fatalf("expected validation_error code, got %s", resp.Body.String())
	}
}

func TestViewExposesVisibleTranscript(t *testing.T) {
	r, f, registry := newTestRouter(t)
	seedUser(t, f, "alice")
	id := createSession(t, r)

	s, ok := registry.Get(id)
	if !ok {
		t.Fatal("session missing from registry")
	}
	ctx := context.Background()
	err := s.Do(func(st *State) error {
		if _, err := f.machine.ResolveIdentity(ctx, st, "alice"); err != nil {
			return err
		}
		if err := f.machine.ConfirmExistingUser(ctx, st); err != nil {
			return err
		}
		if _, err := f.machine.CreateJob(ctx, st, "backend engineer role"); err != nil {
			return err
		}
		if err := f.machine.Process(ctx, st); err != nil {
			return err
		}
		_, err := f.machine.Chat(ctx, st, "hello")
		return err
	})
	if err != nil {
		t.Fatalf("advance session: %v", err)
	}

	resp := doJSON(t, r, http.MethodGet, "/api/v1/sessions/"+id, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	if strings.Contains(body, "career assistance") {
		t.Fatal("view must not expose the system prompt")
	}
	if !strings.Contains(body, "hello") || !strings.Contains(body, "Focus on your Go experience.") {
		t.Fatalf("view missing visible turns: %s", body)
	}
}
