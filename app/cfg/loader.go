package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./sentinel.db" description:"Path to the SQLite database file"`

	// Application configuration
	ChannelsDir   string `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel configuration files"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for task processing"`
	OwnerID       string `long:"owner-id" env:"OWNER_ID" required:"true" description:"Operator identity driving all channels"`
	TargetChannel string `long:"target-channel" env:"TARGET_CHANNEL" required:"true" description:"Channel ID messages are re-posted to"`
	MediaDir      string `long:"media-dir" env:"MEDIA_DIR" default:"./media" description:"Directory for downloaded media files"`

	// External services
	GatewayURL string `long:"gateway-url" env:"GATEWAY_URL" default:"http://127.0.0.1:8081" description:"Base URL of the message transport gateway"`
	OracleURL  string `long:"oracle-url" env:"ORACLE_URL" default:"http://127.0.0.1:5000" description:"Base URL of the scoring oracle"`

	// Scheduling intervals
	IngestInterval   int `long:"ingest-interval" env:"INGEST_INTERVAL" default:"300" description:"New message ingestion interval in seconds"`
	ScoutInterval    int `long:"scout-interval" env:"SCOUT_INTERVAL" default:"3600" description:"Edit scan interval in seconds"`
	DispatchInterval int `long:"dispatch-interval" env:"DISPATCH_INTERVAL" default:"5" description:"Scoring/dispatch interval in seconds"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Optional .env file, environment wins over it
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:           raw.DBPath,
		ChannelsDir:      raw.ChannelsDir,
		Port:             raw.Port,
		APIAccessKey:     raw.APIAccessKey,
		WorkerCount:      raw.WorkerCount,
		OwnerID:          raw.OwnerID,
		TargetChannel:    raw.TargetChannel,
		MediaDir:         raw.MediaDir,
		GatewayURL:       raw.GatewayURL,
		OracleURL:        raw.OracleURL,
		IngestInterval:   raw.IngestInterval,
		ScoutInterval:    raw.ScoutInterval,
		DispatchInterval: raw.DispatchInterval,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
