// Package config loads trainer settings from an HCL file. A missing
// file yields the defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the full trainer configuration.
type Config struct {
	Trainer TrainerSettings `hcl:"trainer,block"`
	Feed    FeedSettings    `hcl:"feed,block"`
}

// TrainerSettings covers the session controller.
type TrainerSettings struct {
	DBPath             string `hcl:"db_path,optional"`
	Profile            string `hcl:"profile,optional"`
	LogLevel           string `hcl:"log_level,optional"`
	AutoPlay           *bool  `hcl:"auto_play,optional"`
	SnapshotDebounceMS int    `hcl:"snapshot_debounce_ms,optional"`
	BankruptcyDelayMS  int    `hcl:"bankruptcy_delay_ms,optional"`
	Seed               int64  `hcl:"seed,optional"`
}

// FeedSettings covers the spectator WebSocket feed.
type FeedSettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Listen  string `hcl:"listen,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	autoPlay := true
	return &Config{
		Trainer: TrainerSettings{
			DBPath:             "pokertrainer.db",
			Profile:            "local",
			LogLevel:           "info",
			AutoPlay:           &autoPlay,
			SnapshotDebounceMS: 260,
			BankruptcyDelayMS:  16000,
		},
		Feed: FeedSettings{
			Enabled: false,
			Listen:  "localhost:8090",
		},
	}
}

// Load reads configuration from an HCL file, falling back to defaults
// for the file itself and for any omitted field.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %s", filename, diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %s", filename, diags.Error())
	}

	def := Default()
	if cfg.Trainer.DBPath == "" {
		cfg.Trainer.DBPath = def.Trainer.DBPath
	}
	if cfg.Trainer.Profile == "" {
		cfg.Trainer.Profile = def.Trainer.Profile
	}
	if cfg.Trainer.LogLevel == "" {
		cfg.Trainer.LogLevel = def.Trainer.LogLevel
	}
	if cfg.Trainer.AutoPlay == nil {
		cfg.Trainer.AutoPlay = def.Trainer.AutoPlay
	}
	if cfg.Trainer.SnapshotDebounceMS <= 0 {
		cfg.Trainer.SnapshotDebounceMS = def.Trainer.SnapshotDebounceMS
	}
	if cfg.Trainer.BankruptcyDelayMS <= 0 {
		cfg.Trainer.BankruptcyDelayMS = def.Trainer.BankruptcyDelayMS
	}
	if cfg.Feed.Listen == "" {
		cfg.Feed.Listen = def.Feed.Listen
	}
	return &cfg, nil
}

// SnapshotDebounce returns the snapshot debounce as a duration.
func (t TrainerSettings) SnapshotDebounce() time.Duration {
	return time.Duration(t.SnapshotDebounceMS) * time.Millisecond
}

// BankruptcyDelay returns the forced-return delay as a duration.
func (t TrainerSettings) BankruptcyDelay() time.Duration {
	return time.Duration(t.BankruptcyDelayMS) * time.Millisecond
}
