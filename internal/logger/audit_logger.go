package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/agentruntime/runtime/internal/events"
	"github.com/agentruntime/runtime/internal/models"
)

// AuditLogger subscribes to the Event Engine's trade and error
// channels and writes a durable trail for each, matching §7's
// "agents surface failures only as memories, not as outbound posts" --
// this is the operator-facing side-channel instead.
type AuditLogger struct {
	db    *gorm.DB
	debug bool
}

// NewAuditLogger creates a new audit logger. db may be nil, in which
// case audit entries are only logged to stdout.
func NewAuditLogger(db *gorm.DB) *AuditLogger {
	return &AuditLogger{
		db:    db,
		debug: true,
	}
}

// Start subscribes to trade and failure event types on engine and
// begins logging. Safe to call once per process.
func (al *AuditLogger) Start(engine *events.Engine) {
	engine.Subscribe(models.EventTradeExecuted, al.handleTradeExecuted)
	engine.Subscribe(models.EventTradeDenied, al.handleTradeDenied)
	engine.Subscribe(models.EventCredentialError, al.handleCredentialError)
	engine.Subscribe(models.EventPostFailed, al.handlePostFailed)
	log.Println("[AUDIT] audit logger started, subscribed to trade/error events")
}

func (al *AuditLogger) handleTradeExecuted(_ context.Context, ev models.Event) {
	mint, _ := ev.Payload["token_mint"].(string)
	amount, _ := ev.Payload["amount"].(float64)
	agentID := firstTarget(ev)
	log.Printf("[AUDIT][TRADE] agent=%s mint=%s amount=%.4f", agentID, mint, amount)
	al.LogToDB("runtime", "INFO", fmt.Sprintf("trade executed: %s", mint), string(models.EventTradeExecuted), map[string]interface{}{
		"agent_id": agentID, "token_mint": mint, "amount": amount,
	})
}

func (al *AuditLogger) handleTradeDenied(_ context.Context, ev models.Event) {
	reason, _ := ev.Payload["reason"].(string)
	agentID := firstTarget(ev)
	log.Printf("[AUDIT][TRADE_DENIED] agent=%s reason=%s", agentID, reason)
	al.LogToDB("runtime", "INFO", fmt.Sprintf("trade denied: %s", reason), string(models.EventTradeDenied), map[string]interface{}{
		"agent_id": agentID, "reason": reason,
	})
}

func (al *AuditLogger) handleCredentialError(_ context.Context, ev models.Event) {
	detail, _ := ev.Payload["detail"].(string)
	agentID := firstTarget(ev)
	log.Printf("[AUDIT][CREDENTIAL_ERROR] agent=%s detail=%s", agentID, detail)
	al.LogToDB("runtime", "ERROR", fmt.Sprintf("credential error: %s", detail), string(models.EventCredentialError), map[string]interface{}{
		"agent_id": agentID,
	})
}

func (al *AuditLogger) handlePostFailed(_ context.Context, ev models.Event) {
	reason, _ := ev.Payload["reason"].(string)
	agentID := firstTarget(ev)
	log.Printf("[AUDIT][POST_FAILED] agent=%s reason=%s", agentID, reason)
	al.LogToDB("runtime", "WARN", fmt.Sprintf("post failed: %s", reason), string(models.EventPostFailed), map[string]interface{}{
		"agent_id": agentID, "reason": reason,
	})
}

func firstTarget(ev models.Event) string {
	if len(ev.TargetAgentIDs) > 0 {
		return ev.TargetAgentIDs[0]
	}
	return ""
}

// LogInfo logs informational messages with service context.
func (al *AuditLogger) LogInfo(service, message string) {
	log.Printf("[%s][INFO] %s", service, message)
}

// LogError logs errors with service context.
func (al *AuditLogger) LogError(service, message string, err error) {
	if err != nil {
		log.Printf("[%s][ERROR] %s: %v", service, message, err)
	} else {
		log.Printf("[%s][ERROR] %s", service, message)
	}
}

// LogWarn logs warnings with service context.
func (al *AuditLogger) LogWarn(service, message string) {
	log.Printf("[%s][WARN] %s", service, message)
}

// LogDebug logs debug messages with service context (only in debug mode).
func (al *AuditLogger) LogDebug(service, message string) {
	if al.debug {
		log.Printf("[%s][DEBUG] %s", service, message)
	}
}

// SystemLog is a durable audit/log entry.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey"`
	Service   string    `gorm:"size:50;index"`
	Level     string    `gorm:"size:20;index"`
	Message   string    `gorm:"type:text"`
	EventType string    `gorm:"size:50"`
	EventData string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

func (SystemLog) TableName() string { return "system_logs" }

// LogToDB persists a log entry; a nil db makes this a no-op beyond the
// stdout logging handlers already perform.
func (al *AuditLogger) LogToDB(service, level, message, eventType string, eventData map[string]interface{}) error {
	if al.db == nil {
		return nil
	}

	eventJSON := ""
	if eventData != nil {
		bytes, _ := json.Marshal(eventData)
		eventJSON = string(bytes)
	}

	logEntry := SystemLog{
		Service:   service,
		Level:     level,
		Message:   message,
		EventType: eventType,
		EventData: eventJSON,
		CreatedAt: time.Now(),
	}

	return al.db.Create(&logEntry).Error
}
