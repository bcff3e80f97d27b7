package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
channel: "durov"

settings:
  enabled: true
  fetch_limit: 20
  scout_limit: 200
  dispatch_batch: 2

scoring:
  tag: "Spam_Score"
  gap: 50
  max_tokens: 128

transfer:
  method: "reloading"
  remove_custom_emoji: true
`
	path := filepath.Join(tempDir, "durov.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader(tempDir)
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	if len(configs) != 1 {
		t.Fatalf("Expected 1 config, got %d", len(configs))
	}

	config := configs[path]
	if config == nil {
		t.Fatal("Config not found under its file path")
	}

	if config.Name != "durov" {
		t.Errorf("Expected name 'durov', got '%s'", config.Name)
	}
	if config.Channel != "durov" {
		t.Errorf("Expected channel 'durov', got '%s'", config.Channel)
	}
	if !config.Settings.Enabled {
		t.Error("Expected channel to be enabled")
	}
	if config.Settings.FetchLimit != 20 {
		t.Errorf("Expected fetch limit 20, got %d", config.Settings.FetchLimit)
	}
	if config.Settings.ScoutLimit != 200 {
		t.Errorf("Expected scout limit 200, got %d", config.Settings.ScoutLimit)
	}
	if config.Scoring.Tag != "Spam_Score" {
		t.Errorf("Expected tag 'Spam_Score', got '%s'", config.Scoring.Tag)
	}
	if config.Scoring.Gap != 50 {
		t.Errorf("Expected gap 50, got %d", config.Scoring.Gap)
	}
	if config.Transfer.Method != MethodReloading {
		t.Errorf("Expected method 'reloading', got '%s'", config.Transfer.Method)
	}
	if !config.Transfer.RemoveCustomEmoji {
		t.Error("Expected remove_custom_emoji to be set")
	}
	if config.Scoring.PromptTemplate != DefaultPromptTemplate {
		t.Error("Expected default prompt template to be applied")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
channel: "-1000000000000"
settings:
  enabled: true
`
	path := filepath.Join(tempDir, "target.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	loader := NewLoader(tempDir)
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	config := configs[path]
	if config == nil {
		t.Fatal("Config not found")
	}

	if config.Settings.FetchLimit != 10 {
		t.Errorf("Expected default fetch limit 10, got %d", config.Settings.FetchLimit)
	}
	if config.Settings.ScoutLimit != 100 {
		t.Errorf("Expected default scout limit 100, got %d", config.Settings.ScoutLimit)
	}
	if config.Settings.DispatchBatch != 1 {
		t.Errorf("Expected default dispatch batch 1, got %d", config.Settings.DispatchBatch)
	}
	if config.Scoring.Tag != "AD_Score" {
		t.Errorf("Expected default tag 'AD_Score', got '%s'", config.Scoring.Tag)
	}
	if config.Scoring.Gap != 75 {
		t.Errorf("Expected default gap 75, got %d", config.Scoring.Gap)
	}
	if config.Scoring.MaxTokens != 256 {
		t.Errorf("Expected default max tokens 256, got %d", config.Scoring.MaxTokens)
	}
	if config.Transfer.Method != MethodSmart {
		t.Errorf("Expected default method 'smart', got '%s'", config.Transfer.Method)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing channel",
			content: `
settings:
  enabled: true
`,
		},
		{
			name: "unknown transfer method",
			content: `
channel: "durov"
transfer:
  method: "teleport"
`,
		},
		{
			name: "scout smaller than fetch",
			content: `
channel: "durov"
settings:
  fetch_limit: 50
  scout_limit: 10
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			path := filepath.Join(tempDir, "bad.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			loader := NewLoader(tempDir)
			if _, err := loader.LoadAll(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	loader := NewLoader("/nonexistent/channels")
	configs, err := loader.LoadAll()
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got: %v", err)
	}
	if len(configs) != 0 {
		t.Errorf("Expected empty config map, got %d entries", len(configs))
	}
}
