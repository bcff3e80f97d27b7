package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of channel configurations
type Loader struct {
	channelsDir string
}

// NewLoader creates a new configuration loader
func NewLoader(channelsDir string) *Loader {
	return &Loader{channelsDir: channelsDir}
}

// LoadAll loads all YAML configuration files from the channels directory
func (l *Loader) LoadAll() (map[string]*Config, error) {
	configs := make(map[string]*Config)

	if _, err := os.Stat(l.channelsDir); os.IsNotExist(err) {
		return configs, nil // Return empty map if directory doesn't exist
	}

	files, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	// Also check for .yml extension
	ymlFiles, err := filepath.Glob(filepath.Join(l.channelsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs[file] = config
		slog.Debug("Loaded channel configuration", "file", file, "channel", config.Channel)
	}

	return configs, nil
}

// loadFile loads a single YAML configuration file
func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	config.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")

	l.setDefaults(&config)

	return &config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *Config) {
	if config.Settings.FetchLimit == 0 {
		config.Settings.FetchLimit = 10
	}
	if config.Settings.ScoutLimit == 0 {
		config.Settings.ScoutLimit = 100
	}
	if config.Settings.DispatchBatch == 0 {
		config.Settings.DispatchBatch = 1
	}
	if config.Scoring.Tag == "" {
		config.Scoring.Tag = "AD_Score"
	}
	if config.Scoring.Gap == 0 {
		config.Scoring.Gap = 75
	}
	if config.Scoring.MaxTokens == 0 {
		config.Scoring.MaxTokens = 256
	}
	if config.Scoring.PromptTemplate == "" {
		config.Scoring.PromptTemplate = DefaultPromptTemplate
	}
	if config.Transfer.Method == "" {
		config.Transfer.Method = MethodSmart
	}
}

// validate validates the configuration
func (l *Loader) validate(config *Config) error {
	if config.Channel == "" {
		return fmt.Errorf("channel is required")
	}

	if config.Settings.FetchLimit < 0 {
		return fmt.Errorf("fetch limit must be non-negative")
	}
	if config.Settings.ScoutLimit < config.Settings.FetchLimit {
		return fmt.Errorf("scout limit must not be smaller than fetch limit")
	}
	if config.Settings.DispatchBatch < 1 {
		return fmt.Errorf("dispatch batch must be positive")
	}

	if config.Scoring.Gap < 0 {
		return fmt.Errorf("scoring gap must be non-negative")
	}
	if config.Scoring.MaxTokens < 1 {
		return fmt.Errorf("max tokens must be positive")
	}

	switch config.Transfer.Method {
	case MethodForwarding, MethodReloading, MethodSmart:
	default:
		return fmt.Errorf("unknown transfer method: %s", config.Transfer.Method)
	}

	return nil
}
