// Package config loads per-agent YAML configuration documents and
// resolves their credentials against the environment, following §6's
// schema and precedence rules.
//
// Grounded on internal/config/manager.go's cache-and-reload shape,
// generalized from a database-backed, hot-reloading config manager to
// a file-backed one: agent configs here are loaded once at startup
// and are neither polled nor reloaded, since the source
// spec has no hot-reload requirement.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/agentruntime/runtime/internal/models"
)

// AgentDocument is the on-disk schema for a single agent's
// configuration file.
type AgentDocument struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	Personality models.Personality `yaml:"personality"`
	StyleGuide  models.StyleGuide   `yaml:"style_guide"`
	Behavior    models.Behavior     `yaml:"behavior"`

	InitialMemory []InitialMemory `yaml:"initial_memory"`

	CustomSystemPrompt    string   `yaml:"custom_system_prompt"`
	RotatingSystemPrompts []string `yaml:"rotating_system_prompts"`

	LLMProvider string            `yaml:"llm_provider"`
	LLMConfig   map[string]string `yaml:"llm_config"`

	MentionIngestionMode string `yaml:"mention_ingestion_mode"`

	TwitterCredentials  *InlineTwitterCredentials `yaml:"twitter_credentials"`
	SolanaIntegration   *SolanaIntegration        `yaml:"solana_integration"`
	AgentKitIntegration *AgentKitIntegration      `yaml:"agent_kit_integration"`
}

// InitialMemory seeds a MemoryItem at agent-boot time.
type InitialMemory struct {
	Content    string  `yaml:"content"`
	Kind       string  `yaml:"type"`
	Importance float64 `yaml:"importance"`
}

// InlineTwitterCredentials lets an operator embed secrets directly in
// the agent document instead of relying on environment variables. This
// is the highest-precedence source in the resolution order.
type InlineTwitterCredentials struct {
	APIKey            string `yaml:"api_key"`
	APISecret         string `yaml:"api_secret"`
	AccessToken       string `yaml:"access_token"`
	AccessTokenSecret string `yaml:"access_token_secret"`
	BearerToken       string `yaml:"bearer_token"`
}

// SolanaIntegration configures the chain client for one agent.
type SolanaIntegration struct {
	Enabled       bool   `yaml:"enabled"`
	WalletAddress string `yaml:"wallet_address"`
	PrivateKey    string `yaml:"private_key"`
}

// AgentKitIntegration is an opaque extension point: the spec names it
// as an optional config section without further detail, so it is
// carried through as a free-form map for forward compatibility.
type AgentKitIntegration struct {
	Enabled bool              `yaml:"enabled"`
	Options map[string]string `yaml:"options"`
}

// LoadAgentDocument parses a single agent YAML file and validates its
// required fields.
func LoadAgentDocument(path string) (AgentDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AgentDocument{}, fmt.Errorf("read agent config %s: %w", path, err)
	}
	var doc AgentDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return AgentDocument{}, fmt.Errorf("parse agent config %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return AgentDocument{}, fmt.Errorf("invalid agent config %s: %w", path, err)
	}
	return doc, nil
}

// Validate enforces the required-field and bound checks from §6.
func (d AgentDocument) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(d.RotatingSystemPrompts) > 8 {
		return fmt.Errorf("rotating_system_prompts: at most 8 allowed, got %d", len(d.RotatingSystemPrompts))
	}
	return nil
}

// LoadAgentDirectory loads every *.yaml/*.yml file in dir as an
// AgentDocument.
func LoadAgentDirectory(dir string) ([]AgentDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read agent config directory %s: %w", dir, err)
	}

	var docs []AgentDocument
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		doc, err := LoadAgentDocument(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadDotEnv loads a .env file into the process environment if
// present; a missing file is not an error, matching godotenv's typical
// optional-local-override usage.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load dotenv %s: %w", path, err)
	}
	return nil
}

// RuntimeConfig holds the process-level settings from §6's "Runtime"
// environment variable group.
type RuntimeConfig struct {
	Host        string
	Port        int
	Workers     int
	LogLevel    string
	Environment string
}

// LoadRuntimeConfig reads HOST/PORT/WORKERS/LOG_LEVEL/ENVIRONMENT with
// sane defaults.
func LoadRuntimeConfig() RuntimeConfig {
	cfg := RuntimeConfig{
		Host:        envOr("HOST", "0.0.0.0"),
		Port:        envIntOr("PORT", 8080),
		Workers:     envIntOr("WORKERS", 4),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		Environment: envOr("ENVIRONMENT", "development"),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
