package persistence

import "gorm.io/gorm"

// mentionCursor is the durable row backing CursorStore: the last-seen
// mention id per agent, so a restart doesn't re-process already-seen
// mentions (§4.6, §4.7).
type mentionCursor struct {
	AgentID string `gorm:"primaryKey;size:64"`
	SinceID string
}

func (mentionCursor) TableName() string { return "mention_cursors" }

// CursorStore is a gorm-backed implementation of internal/mentions'
// CursorStore capability, giving the poll-mode since_id cursor the
// same durability as the other two persisted surfaces in §4.7.
type CursorStore struct {
	db *gorm.DB
}

// NewCursorStore runs AutoMigrate for the cursor table and returns a
// CursorStore. Pass an already-migrated *gorm.DB (e.g. the one used to
// build persistence.Store).
func NewCursorStore(db *gorm.DB) (*CursorStore, error) {
	if err := db.AutoMigrate(&mentionCursor{}); err != nil {
		return nil, err
	}
	return &CursorStore{db: db}, nil
}

// LoadCursor returns the last persisted since_id for agentID, or "" if
// none has been saved yet.
func (s *CursorStore) LoadCursor(agentID string) string {
	var row mentionCursor
	if err := s.db.First(&row, "agent_id = ?", agentID).Error; err != nil {
		return ""
	}
	return row.SinceID
}

// SaveCursor persists the new since_id for agentID.
func (s *CursorStore) SaveCursor(agentID, sinceID string) {
	row := mentionCursor{AgentID: agentID, SinceID: sinceID}
	s.db.Save(&row)
}
