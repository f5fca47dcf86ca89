package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendWorkbook = "workbook"
)

// Config holds all application configuration.
type Config struct {
	TelegramToken    string `yaml:"telegram_token"`
	StoreBackend     string `yaml:"store_backend"`
	DBPath           string `yaml:"db_path"`
	WorkbookPath     string `yaml:"workbook_path"`
	HTTPAddr         string `yaml:"http_addr"`
	DedupFailOpen    bool   `yaml:"dedup_fail_open"`
	SnapshotTime     string `yaml:"snapshot_time"`
	Timezone         string `yaml:"timezone"`
	LeaderboardLimit int    `yaml:"leaderboard_limit"`
	LogLevel         string `yaml:"log_level"`
}

// snapshotTimeRegex validates HH:MM format with proper ranges.
var snapshotTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Fail-open dedup is the documented default; absent YAML keys leave
	// the seed value untouched.
	cfg := &Config{DedupFailOpen: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv("COMPBOT_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

func applyDefaults(cfg *Config) {
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendSQLite
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./competition.db"
	}
	if cfg.WorkbookPath == "" {
		cfg.WorkbookPath = "./competition.xlsx"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.SnapshotTime == "" {
		cfg.SnapshotTime = "03:00"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.LeaderboardLimit == 0 {
		cfg.LeaderboardLimit = 50
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if token := os.Getenv("COMPBOT_TELEGRAM_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if dbPath := os.Getenv("COMPBOT_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}
}

func validate(cfg *Config) error {
	if cfg.TelegramToken == "" {
		return fmt.Errorf("telegram_token is required")
	}
	if cfg.StoreBackend != BackendSQLite && cfg.StoreBackend != BackendWorkbook {
		return fmt.Errorf("store_backend must be %q or %q, got %q", BackendSQLite, BackendWorkbook, cfg.StoreBackend)
	}
	if !snapshotTimeRegex.MatchString(cfg.SnapshotTime) {
		return fmt.Errorf("snapshot_time must be in HH:MM format (00:00-23:59), got %q", cfg.SnapshotTime)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	return nil
}
