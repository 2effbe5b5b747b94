// Package config provides configuration file parsing.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvAPIURL overrides api.base_url.
	EnvAPIURL = "GOWOL_API_URL"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	appDir = "gowol-homelab"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("history.backend", BackendFile)
	v.SetDefault("poller.sweep_interval", 30*time.Second)
	v.SetDefault("poller.sweep_concurrency", 4)
	v.SetDefault("poller.confirm_interval", 2*time.Second)
	v.SetDefault("poller.confirm_attempts", 10)

	_ = v.BindEnv("api.base_url", EnvAPIURL)

	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// LoadDefaults builds the configuration from defaults and the environment
// alone, for running without a config file.
func (p *Parser) LoadDefaults() (*models.Config, error) {
	return p.parse()
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment. A missing file is not an error. Variables already set win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{}

	cfg.API = models.APIConfig{
		BaseURL: strings.TrimRight(p.expandEnv(p.v.GetString("api.base_url")), "/"),
		Timeout: p.v.GetDuration("api.timeout"),
	}

	cfg.History = models.HistoryConfig{
		Backend: strings.ToLower(p.v.GetString("history.backend")),
		Path:    p.expandEnv(p.v.GetString("history.path")),
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath(cfg.History.Backend)
	}

	cfg.Poller = models.PollerConfig{
		SweepInterval:    p.v.GetDuration("poller.sweep_interval"),
		SweepConcurrency: p.v.GetInt("poller.sweep_concurrency"),
		ConfirmInterval:  p.v.GetDuration("poller.confirm_interval"),
		ConfirmAttempts:  p.v.GetInt("poller.confirm_attempts"),
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// DefaultHistoryPath returns the history location under the user config
// directory for the given backend.
func DefaultHistoryPath(backend string) string {
	name := "history.json"
	if backend == BackendSQLite {
		name = "history.db"
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, appDir, name)
}

// Validate performs validation on the loaded configuration.
//
//nolint:gocyclo // one check per field
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is invalid: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	switch cfg.History.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("history.backend must be one of: file, sqlite")
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history.path is required")
	}

	if cfg.Poller.SweepInterval <= 0 {
		return fmt.Errorf("poller.sweep_interval must be positive")
	}
	if cfg.Poller.SweepConcurrency < 1 {
		return fmt.Errorf("poller.sweep_concurrency must be at least 1")
	}
	if cfg.Poller.ConfirmInterval <= 0 {
		return fmt.Errorf("poller.confirm_interval must be positive")
	}
	if cfg.Poller.ConfirmAttempts < 1 {
		return fmt.Errorf("poller.confirm_attempts must be at least 1")
	}

	if cfg.Telegram != nil {
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return nil
}
