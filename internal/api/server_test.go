package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/gates"
	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
	"github.com/agentruntime/runtime/internal/runtime"
)

func newTestServer(t *testing.T) (*Server, *runtime.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := events.New(0, 0)
	memStore := memory.NewStore(0, nil)
	manager := runtime.NewManager(engine, memStore)

	agent := models.Agent{ID: "agent-1", DisplayName: "Nova", Active: true}
	provider := llmprovider.NewFakeProvider("a test post")
	client := microblog.NewFakeClient("agent-1")
	manager.RegisterAgent(agent, runtime.Deps{
		Provider:  provider,
		Client:    client,
		TradeGate: gates.NewTradingSafetyGate(nil, nil, nil),
	})

	return NewServer(manager, engine, memStore, "test"), manager
}

func newTestRouter(s *Server) *gin.Engine {
	r := gin.New()
	s.RegisterRoutes(r)
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleStatusReportsRegisteredAgents(t *testing.T) {
	srv, _ := newTestServer(t)
	r := newTestRouter(srv)

	w := doRequest(r, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AgentCount != 1 || resp.ActiveAgents != 1 {
		t.Fatalf("expected 1 registered active agent, got %+v", resp)
	}
}

func TestHandleGetAgentNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	r := newTestRouter(srv)

	w := doRequest(r, http.MethodGet, "/api/v1/agents/does-not-exist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != ErrAgentNotFound {
		t.Fatalf("expected %s, got %s", ErrAgentNotFound, resp.Code)
	}
}

func TestHandlePostEnqueuesManualPostEvent(t *testing.T) {
	srv, _ := newTestServer(t)
	r := newTestRouter(srv)

	w := doRequest(r, http.MethodPost, "/api/v1/agents/agent-1/post", PostRequest{Context: "say hi"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp PostResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Enqueued || resp.EventID == "" {
		t.Fatalf("expected enqueued event with an id, got %+v", resp)
	}
}

func TestHandleAddMemoryAndListMemory(t *testing.T) {
	srv, _ := newTestServer(t)
	r := newTestRouter(srv)

	w := doRequest(r, http.MethodPost, "/api/v1/agents/agent-1/memories", AddMemoryRequest{
		Content: "met a new friend", Type: "general", Importance: 0.6,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/v1/agents/agent-1/memory?kind=general", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var items []models.MemoryItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode memory list: %v", err)
	}
	if len(items) != 1 || items[0].Content != "met a new friend" {
		t.Fatalf("expected the seeded memory item back, got %+v", items)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.OperatorPassphraseHash = "$2a$dummy$notarealbcrypthash"
	r := newTestRouter(srv)

	w := doRequest(r, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a bearer token, got %d", w.Code)
	}
}

func TestHandleInjectEventSchedulesDelayed(t *testing.T) {
	srv, _ := newTestServer(t)
	r := newTestRouter(srv)

	w := doRequest(r, http.MethodPost, "/api/v1/events", InjectEventRequest{
		Type:           "custom.debug",
		TargetAgentIDs: []string{"agent-1"},
		DelaySeconds:   0.01,
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	stats := srv.Engine.Stats()
	if stats.TimerDepth == 0 && stats.QueueDepth == 0 {
		t.Fatalf("expected the injected event to land in the timer heap or queue, got %+v", stats)
	}
}
