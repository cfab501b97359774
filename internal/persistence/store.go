package persistence

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/agentruntime/runtime/internal/models"
)

// Store owns the durable GORM schema: AutoMigrate on startup, plus the
// "hydrate the in-memory store from durable storage" half of the
// read path (internal/memory.Store is authoritative once running, but
// a fresh process needs to reload its last-known state). If db is
// postgres, full-text similarity search can later be layered on with
// pg_trgm; with sqlite, that degrades to the lexical-overlap scorer
// internal/memory already provides.
type Store struct {
	db *gorm.DB
}

// NewStore runs AutoMigrate for every durable model and returns a Store.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&models.TradingSafetyState{},
		&models.MemoryItem{},
		&models.Relationship{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

// LoadMemoryItems returns every persisted memory item for agentID,
// newest first, used to repopulate internal/memory.Store on startup.
func (s *Store) LoadMemoryItems(agentID string) ([]models.MemoryItem, error) {
	var items []models.MemoryItem
	if err := s.db.Where("agent_id = ?", agentID).Order("timestamp desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load memory items: %w", err)
	}
	return items, nil
}

// LoadRelationships returns every persisted relationship edge owned by
// agentID.
func (s *Store) LoadRelationships(agentID string) ([]models.Relationship, error) {
	var rels []models.Relationship
	if err := s.db.Where("owner_agent_id = ?", agentID).Find(&rels).Error; err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	return rels, nil
}

// TradingSafetyState loads the per-agent trading counters, creating
// the row if absent and seeding its wallet balance from
// defaultWalletBalance (an existing row's balance is left untouched,
// mirroring the teacher's CreateUSDBalance seeding pattern).
func (s *Store) TradingSafetyState(agentID string, defaultWalletBalance float64) (models.TradingSafetyState, error) {
	var state models.TradingSafetyState
	err := s.db.Where(models.TradingSafetyState{AgentID: agentID}).
		Attrs(models.TradingSafetyState{WalletBalanceNative: defaultWalletBalance, TradingEnabled: true}).
		FirstOrCreate(&state).Error
	if err != nil {
		return models.TradingSafetyState{}, fmt.Errorf("load trading safety state: %w", err)
	}
	return state, nil
}

// SaveTradingSafetyState persists the post-reserve/rollback counters.
func (s *Store) SaveTradingSafetyState(state models.TradingSafetyState) error {
	if err := s.db.Save(&state).Error; err != nil {
		return fmt.Errorf("save trading safety state: %w", err)
	}
	return nil
}
