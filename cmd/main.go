// Command runtime boots the Agent Runtime: it loads every agent
// configuration document, wires each agent's collaborators (LLM
// provider, microblog client, trading gate, chain client), hydrates
// durable state, starts the Event Engine and Manager, and serves the
// Control API until an OS signal requests shutdown.
//
// Grounded on main.go's load-config/migrate/wire-services/start-server
// shape, adapted from a single ares_api service process onto a fleet
// of agent actors plus the shared runtime collaborators they need.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/agentruntime/runtime/internal/api"
	"github.com/agentruntime/runtime/internal/auth"
	"github.com/agentruntime/runtime/internal/chain"
	"github.com/agentruntime/runtime/internal/config"
	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/gates"
	"github.com/agentruntime/runtime/internal/llmprovider"
	"github.com/agentruntime/runtime/internal/logger"
	"github.com/agentruntime/runtime/internal/memory"
	"github.com/agentruntime/runtime/internal/mentions"
	"github.com/agentruntime/runtime/internal/microblog"
	"github.com/agentruntime/runtime/internal/models"
	"github.com/agentruntime/runtime/internal/observability"
	"github.com/agentruntime/runtime/internal/persistence"
	"github.com/agentruntime/runtime/internal/runtime"
)

const (
	eventHistorySize  = 500
	eventHighWater    = 1000
	memoryPerAgentCap = memory.DefaultPerAgentCap
	writeQueueMax     = 10000
	shutdownTimeout   = 15 * time.Second
)

func main() {
	_ = config.LoadDotEnv(".env")

	rtCfg := config.LoadRuntimeConfig()

	db, err := openDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[RUNTIME] fatal: open database: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger("runtime", db)
	logger.SetGlobalLogger(appLogger)
	logger.Info("starting agent runtime", "environment", rtCfg.Environment, "port", rtCfg.Port)

	shutdownOTel, err := observability.SetupOTelSDK(context.Background())
	if err != nil {
		logger.Warn("otel setup failed, continuing without tracing", "error", err.Error())
		shutdownOTel = func(context.Context) error { return nil }
	}

	store, err := persistence.NewStore(db)
	if err != nil {
		logger.Error("fatal: persistence store", err)
		os.Exit(1)
	}
	cursorStore, err := persistence.NewCursorStore(db)
	if err != nil {
		logger.Error("fatal: cursor store", err)
		os.Exit(1)
	}
	launchStore, err := persistence.NewFileLaunchStore(envOr("LAUNCH_STATE_DIR", "./data/launches"))
	if err != nil {
		logger.Error("fatal: launch store", err)
		os.Exit(1)
	}
	writeQueue := persistence.NewWriteQueue(db, writeQueueMax)

	memStore := memory.NewStore(memoryPerAgentCap, writeQueue)
	engine := events.New(eventHistorySize, eventHighWater)
	manager := runtime.NewManager(engine, memStore)
	mentionMgr := mentions.NewManager(engine, nil, cursorStore)

	agentsDir := envOr("AGENTS_DIR", "./agents")
	var docs []config.AgentDocument
	if _, statErr := os.Stat(agentsDir); statErr == nil {
		docs, err = config.LoadAgentDirectory(agentsDir)
		if err != nil {
			logger.Error("fatal: load agent directory", err)
			os.Exit(1)
		}
	}
	if len(docs) == 0 {
		logger.Warn("no agent configuration documents found; runtime will serve an empty fleet", "agents_dir", agentsDir)
	}

	trending := chain.NewTrendingTracker(chain.NewClient(envOr("JUPITER_API_KEY", "")), 5*time.Minute)

	for _, doc := range docs {
		if err := bootAgent(doc, manager, mentionMgr, memStore, store, launchStore, trending); err != nil {
			logger.Error("failed to boot agent, skipping", err, "agent_id", doc.ID)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	engine.Start(ctx)
	manager.Start(ctx)

	srv := api.NewServer(manager, engine, memStore, rtCfg.Environment)
	if passHash := envOr("OPERATOR_PASSPHRASE_HASH", ""); passHash != "" {
		srv.OperatorPassphraseHash = passHash
	} else if pass := envOr("OPERATOR_PASSPHRASE", ""); pass != "" {
		hash, err := auth.HashPassphrase(pass)
		if err != nil {
			logger.Error("failed to hash operator passphrase, auth disabled", err)
		} else {
			srv.OperatorPassphraseHash = hash
		}
	}

	if rtCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	srv.RegisterRoutes(router)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", rtCfg.Host, rtCfg.Port),
		Handler: router,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("control api server failed", err)
		}
	}()
	logger.Info("control api listening", "addr", httpSrv.Addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("control api shutdown error", "error", err.Error())
	}
	for _, doc := range docs {
		mentionMgr.Stop(doc.ID)
	}
	cancel()
	manager.Stop()
	engine.Stop()
	writeQueue.Shutdown(shutdownTimeout)
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Warn("otel shutdown error", "error", err.Error())
	}
	logger.Info("agent runtime stopped")
}

// bootAgent resolves credentials, builds the per-agent collaborators
// and Deps, registers the agent with manager, hydrates its durable
// memory/relationship/trading state, seeds any configured initial
// memory, and registers its mention-ingestion source.
func bootAgent(doc config.AgentDocument, manager *runtime.Manager, mentionMgr *mentions.Manager, memStore *memory.Store, store *persistence.Store, launchStore *persistence.FileLaunchStore, trending *chain.TrendingTracker) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid agent document: %w", err)
	}

	creds, err := config.ResolveCredentials(doc.ID, doc)
	if err != nil {
		return fmt.Errorf("resolve credentials: %w", err)
	}

	mode := models.MentionIngestionMode(doc.MentionIngestionMode)
	if mode == "" {
		mode = models.IngestionAuto
	}

	agent := models.Agent{
		ID:                    doc.ID,
		DisplayName:           doc.Name,
		Description:           doc.Description,
		Personality:           doc.Personality,
		Style:                 doc.StyleGuide,
		Behavior:              doc.Behavior,
		CustomSystemPrompt:    doc.CustomSystemPrompt,
		RotatingSystemPrompts: doc.RotatingSystemPrompts,
		LLMProvider:           doc.LLMProvider,
		MentionIngestionMode:  mode,
		Credentials:           creds,
		Active:                true,
	}

	provider := buildProvider(doc)
	client := microblog.NewFakeClient(doc.ID)

	chainCli := chain.NewClient(envOr("JUPITER_API_KEY", ""))
	var launcher *chain.Launcher
	if doc.SolanaIntegration != nil && doc.SolanaIntegration.Enabled {
		launcher = chain.NewLauncher(chainCli, launchStore)
	}

	tradeGate := gates.NewTradingSafetyGate(
		doc.Behavior.Trading.AllowedTokens,
		trending.Current(),
		doc.Behavior.Trading.BlacklistedTokens,
	)

	actor := manager.RegisterAgent(agent, runtime.Deps{
		Provider:  provider,
		Client:    client,
		TradeGate: tradeGate,
		ChainCli:  chainCli,
		Launcher:  launcher,
		Trending:  trending,
	})

	hydrateAgentState(context.Background(), doc.ID, store, memStore, actor, doc.Behavior.Trading.InitialWalletBalance)
	seedInitialMemory(context.Background(), doc, memStore)

	mentionMgr.Start(context.Background(), mentions.AgentSource{
		AgentID:      doc.ID,
		Client:       client,
		Mode:         mode,
		PollInterval: mentions.GlobalMinPollInterval,
	})

	return nil
}

// hydrateAgentState loads durable memory/relationships into memStore
// and loads (or seeds) the durable trading-safety row, including the
// tracked wallet balance the Trading Safety Gate's min-reserve check
// depends on, into the actor. internal/memory.Store is authoritative
// for reads once the process is running; a fresh process otherwise
// starts with amnesia.
func hydrateAgentState(ctx context.Context, agentID string, store *persistence.Store, memStore *memory.Store, actor *runtime.Actor, defaultWalletBalance float64) {
	items, err := store.LoadMemoryItems(agentID)
	if err != nil {
		logger.Warn("failed to load memory items", "agent_id", agentID, "error", err.Error())
	}
	for _, item := range items {
		memStore.Insert(ctx, item)
	}

	rels, err := store.LoadRelationships(agentID)
	if err != nil {
		logger.Warn("failed to load relationships", "agent_id", agentID, "error", err.Error())
	}
	for _, rel := range rels {
		memStore.SeedRelationship(rel)
	}

	state, err := store.TradingSafetyState(agentID, defaultWalletBalance)
	if err != nil {
		logger.Warn("failed to load trading safety state", "agent_id", agentID, "error", err.Error())
		return
	}
	actor.HydrateTradingState(state)
}

// seedInitialMemory inserts each configured InitialMemory entry as a
// memory item once at boot, giving a freshly-registered agent a
// backstory before its first real interaction.
func seedInitialMemory(ctx context.Context, doc config.AgentDocument, memStore *memory.Store) {
	for _, im := range doc.InitialMemory {
		kind := models.MemoryKindCore
		if im.Kind != "" {
			kind = models.MemoryKind(im.Kind)
		}
		memStore.Insert(ctx, models.NewMemoryItem(doc.ID, im.Content, kind, im.Importance, 0))
	}
}

// buildProvider selects FakeProvider (no LLM configured) or an
// HTTPProvider pointed at an OpenAI-compatible endpoint.
func buildProvider(doc config.AgentDocument) llmprovider.Provider {
	switch doc.LLMProvider {
	case "", "fake":
		return llmprovider.NewFakeProvider()
	default:
		return llmprovider.NewHTTPProvider(llmprovider.HTTPProviderConfig{
			Name:    doc.LLMProvider,
			BaseURL: doc.LLMConfig["base_url"],
			Model:   doc.LLMConfig["model"],
			APIKey:  resolveProviderKey(doc),
		})
	}
}

func resolveProviderKey(doc config.AgentDocument) string {
	if key, ok := doc.LLMConfig["api_key"]; ok && key != "" {
		return key
	}
	return os.Getenv("LLM_API_KEY")
}

// openDB opens the database configured by DATABASE_URL (postgres) or
// defaults to a local sqlite file.
func openDB() (*gorm.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := envOr("SQLITE_PATH", "./data/runtime.db")
	if dir := dirOf(path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
