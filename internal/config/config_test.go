package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAgentDocumentParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	content := `
id: coby-agent
name: Coby
description: A test persona
personality:
  traits: [curious, direct]
  voice: first_person
  tone: casual
style_guide:
  emoji_frequency: rare
behavior:
  post_frequency:
    min_hours: 2
    max_hours: 6
rotating_system_prompts:
  - "prompt one"
  - "prompt two"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	doc, err := LoadAgentDocument(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != "coby-agent" || doc.Name != "Coby" {
		t.Fatalf("unexpected parse result: %+v", doc)
	}
	if len(doc.RotatingSystemPrompts) != 2 {
		t.Fatalf("expected 2 rotating prompts, got %d", len(doc.RotatingSystemPrompts))
	}
}

func TestLoadAgentDocumentRejectsMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	if err := os.WriteFile(path, []byte("id: only-id\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := LoadAgentDocument(path); err == nil {
		t.Fatalf("expected validation error for missing name/description")
	}
}

func TestLoadAgentDocumentRejectsTooManyRotatingPrompts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.yaml")
	content := "id: a\nname: A\ndescription: d\nrotating_system_prompts: [a,b,c,d,e,f,g,h,i]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := LoadAgentDocument(path); err == nil {
		t.Fatalf("expected validation error for >8 rotating prompts")
	}
}

func TestLoadRuntimeConfigDefaults(t *testing.T) {
	cfg := LoadRuntimeConfig()
	if cfg.Port == 0 {
		t.Fatalf("expected a non-zero default port")
	}
}

func TestLoadRuntimeConfigReadsEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	cfg := LoadRuntimeConfig()
	if cfg.Port != 9090 || cfg.LogLevel != "debug" {
		t.Fatalf("expected env overrides to apply, got %+v", cfg)
	}
}
