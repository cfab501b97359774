package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agentruntime/runtime/internal/auth"
	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/models"
	"github.com/agentruntime/runtime/internal/runtime"
)

// Server bundles the in-process collaborators the Control API
// commands against: the agent registry, the shared event engine (for
// direct event injection), and the memory store (for the debug
// memory/relationship/context views).
type Server struct {
	Manager     *runtime.Manager
	Engine      *events.Engine
	MemStore    *memory.Store
	Environment string

	// OperatorPassphraseHash, if set, enables POST /auth/login. Empty
	// disables authentication entirely (useful for local/dev runs with
	// the fake microblog/LLM providers).
	OperatorPassphraseHash string
}

// NewServer constructs a Server. Callers still need to call
// RegisterRoutes on a *gin.Engine.
func NewServer(manager *runtime.Manager, engine *events.Engine, memStore *memory.Store, environment string) *Server {
	return &Server{Manager: manager, Engine: engine, MemStore: memStore, Environment: environment}
}

// RegisterRoutes wires every §6 Control API endpoint onto r, under
// CORS and (when OperatorPassphraseHash is set) bearer-JWT auth.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if s.OperatorPassphraseHash != "" {
		r.POST("/auth/login", s.handleLogin)
	}

	api := r.Group("/api/v1")
	if s.OperatorPassphraseHash != "" {
		api.Use(AuthMiddleware())
	}
	{
		api.GET("/status", s.handleStatus)
		api.GET("/agents", s.handleListAgents)
		api.GET("/agents/:id", s.handleGetAgent)
		api.POST("/agents/:id/post", s.handlePost)
		api.POST("/agents/:id/reply", s.handleReply)
		api.POST("/agents/:id/mood", s.handleMoodShift)
		api.POST("/agents/:id/memories", s.handleAddMemory)
		api.GET("/agents/:id/memory", s.handleListMemory)
		api.GET("/agents/:id/relationships", s.handleListRelationships)
		api.GET("/agents/:id/context", s.handleContextDebug)
		api.POST("/events", s.handleInjectEvent)
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, ErrInvalidRequest, err.Error(), nil)
		return
	}
	access, refresh, err := auth.Login(s.OperatorPassphraseHash, req.Passphrase)
	if err != nil {
		writeError(c, http.StatusUnauthorized, ErrInvalidRequest, "invalid passphrase", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "refresh_token": refresh})
}

func (s *Server) handleStatus(c *gin.Context) {
	actors := s.Manager.Actors()
	active := 0
	for _, a := range actors {
		if a.Agent.Active {
			active++
		}
	}
	stats := s.Engine.Stats()
	c.JSON(http.StatusOK, StatusResponse{
		AgentCount:   len(actors),
		ActiveAgents: active,
		EventStats: map[string]int{
			"queue_depth": stats.QueueDepth,
			"timer_depth": stats.TimerDepth,
			"dropped_low": int(stats.DroppedLowPrio),
			"dispatched":  int(stats.Dispatched),
		},
		Environment: s.Environment,
	})
}

func (s *Server) handleListAgents(c *gin.Context) {
	actors := s.Manager.Actors()
	summaries := make([]models.Summary, 0, len(actors))
	for _, a := range actors {
		agent := a.Agent
		agent.Mood = a.Mood()
		summaries = append(summaries, agent.ToSummary())
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleGetAgent(c *gin.Context) {
	a, ok := s.Manager.Actor(c.Param("id"))
	if !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	agent := a.Agent
	agent.Mood = a.Mood()
	c.JSON(http.StatusOK, agent.ToSummary())
}

func (s *Server) handlePost(c *gin.Context) {
	agentID := c.Param("id")
	a, ok := s.Manager.Actor(agentID)
	if !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	if !a.Agent.Active {
		fail(c, ErrAgentInactive, "agent is inactive", nil)
		return
	}
	var req PostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, ErrInvalidRequest, err.Error(), nil)
			return
		}
	}
	payload := models.JSONB{"force": req.Force}
	if req.Context != "" {
		payload["context"] = req.Context
	}
	ev := s.Engine.Enqueue(models.NewEvent(models.EventManualPost, payload, models.PriorityHigh, agentID))
	c.JSON(http.StatusAccepted, PostResponse{Enqueued: true, EventID: ev.ID.String()})
}

func (s *Server) handleReply(c *gin.Context) {
	agentID := c.Param("id")
	a, ok := s.Manager.Actor(agentID)
	if !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	if !a.Agent.Active {
		fail(c, ErrAgentInactive, "agent is inactive", nil)
		return
	}
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, ErrInvalidRequest, err.Error(), nil)
		return
	}
	if req.TweetID == "" {
		fail(c, ErrInvalidRequest, "tweetId is required", nil)
		return
	}
	payload := models.JSONB{"tweet_id": req.TweetID}
	if req.Content != "" {
		payload["content"] = req.Content
	}
	ev := s.Engine.Enqueue(models.NewEvent(models.EventManualReply, payload, models.PriorityHigh, agentID))
	c.JSON(http.StatusAccepted, PostResponse{Enqueued: true, EventID: ev.ID.String()})
}

func (s *Server) handleMoodShift(c *gin.Context) {
	agentID := c.Param("id")
	if _, ok := s.Manager.Actor(agentID); !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	var req MoodShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, ErrInvalidRequest, err.Error(), nil)
		return
	}
	payload := models.JSONB{
		"valence_shift":   req.ValenceShift,
		"arousal_shift":   req.ArousalShift,
		"dominance_shift": req.DominanceShift,
	}
	s.Engine.Enqueue(models.NewEvent(models.EventMoodShift, payload, models.PriorityNormal, agentID))
	c.JSON(http.StatusAccepted, gin.H{"enqueued": true})
}

func (s *Server) handleAddMemory(c *gin.Context) {
	agentID := c.Param("id")
	if _, ok := s.Manager.Actor(agentID); !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	var req AddMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, ErrInvalidRequest, err.Error(), nil)
		return
	}
	if req.Content == "" {
		fail(c, ErrInvalidRequest, "content is required", nil)
		return
	}
	kind := models.MemoryKindGeneral
	if req.Type != "" {
		kind = models.MemoryKind(req.Type)
	}
	item := models.NewMemoryItem(agentID, req.Content, kind, req.Importance, 0)
	item = s.MemStore.Insert(c.Request.Context(), item)
	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleListMemory(c *gin.Context) {
	agentID := c.Param("id")
	if _, ok := s.Manager.Actor(agentID); !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	kind := models.MemoryKind(c.Query("kind"))
	offset := queryInt(c, "offset", 0)
	limit := queryInt(c, "limit", 50)
	items := s.MemStore.ListByAgentAndKind(c.Request.Context(), agentID, kind, offset, limit)
	c.JSON(http.StatusOK, items)
}

func (s *Server) handleListRelationships(c *gin.Context) {
	agentID := c.Param("id")
	if _, ok := s.Manager.Actor(agentID); !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	rels := s.MemStore.TopRelationshipsByAbsSentiment(agentID, 0)
	c.JSON(http.StatusOK, rels)
}

func (s *Server) handleContextDebug(c *gin.Context) {
	agentID := c.Param("id")
	a, ok := s.Manager.Actor(agentID)
	if !ok {
		fail(c, ErrAgentNotFound, "agent not found", nil)
		return
	}
	core := s.MemStore.ListByAgentAndKind(c.Request.Context(), agentID, models.MemoryKindCore, 0, 5)
	rels := s.MemStore.TopRelationshipsByAbsSentiment(agentID, 5)
	c.JSON(http.StatusOK, ContextDebugResponse{
		Mood:          a.Mood(),
		CoreMemories:  core,
		Relationships: rels,
		State:         string(a.State()),
		TradingState:  a.TradingState(),
	})
}

func (s *Server) handleInjectEvent(c *gin.Context) {
	var req InjectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, ErrInvalidRequest, err.Error(), nil)
		return
	}
	if req.Type == "" {
		fail(c, ErrInvalidRequest, "type is required", nil)
		return
	}
	payload := models.JSONB{}
	for k, v := range req.Data {
		payload[k] = v
	}
	ev := models.NewEvent(req.Type, payload, priorityFromString(req.Priority), req.TargetAgentIDs...)
	if req.DelaySeconds > 0 {
		ev = s.Engine.Schedule(ev, time.Duration(req.DelaySeconds*float64(time.Second)))
	} else {
		ev = s.Engine.Enqueue(ev)
	}
	c.JSON(http.StatusAccepted, gin.H{"event_id": ev.ID.String()})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
