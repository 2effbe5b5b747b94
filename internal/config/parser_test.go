package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_LoadReader_MinimalConfig(t *testing.T) {
	yaml := `
api:
  base_url: "http://wol.lan:8080"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "http://wol.lan:8080", cfg.API.BaseURL)
	// Check defaults
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, BackendFile, cfg.History.Backend)
	assert.Equal(t, "history.json", filepath.Base(cfg.History.Path))
	assert.Equal(t, 30*time.Second, cfg.Poller.SweepInterval)
	assert.Equal(t, 4, cfg.Poller.SweepConcurrency)
	assert.Equal(t, 2*time.Second, cfg.Poller.ConfirmInterval)
	assert.Equal(t, 10, cfg.Poller.ConfirmAttempts)
	assert.Nil(t, cfg.Telegram)
}

func TestParser_LoadReader_FullConfig(t *testing.T) {
	yaml := `
api:
  base_url: "https://wol.example.com/"
  timeout: 3s

history:
  backend: sqlite
  path: /var/lib/gowol/history.db

poller:
  sweep_interval: 1m
  sweep_concurrency: 8
  confirm_interval: 5s
  confirm_attempts: 20

telegram:
  bot_token: "123456:ABC-DEF"
  chat_id: "-1001234567890"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)

	assert.Equal(t, models.APIConfig{
		BaseURL: "https://wol.example.com",
		Timeout: 3 * time.Second,
	}, cfg.API)
	assert.Equal(t, models.HistoryConfig{
		Backend: BackendSQLite,
		Path:    "/var/lib/gowol/history.db",
	}, cfg.History)
	assert.Equal(t, models.PollerConfig{
		SweepInterval:    time.Minute,
		SweepConcurrency: 8,
		ConfirmInterval:  5 * time.Second,
		ConfirmAttempts:  20,
	}, cfg.Poller)

	require.NotNil(t, cfg.Telegram)
	assert.Equal(t, "123456:ABC-DEF", cfg.Telegram.BotToken)
	assert.Equal(t, "-1001234567890", cfg.Telegram.ChatID)
}

func TestParser_LoadReader_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "expanded-token")
	t.Setenv("TEST_HISTORY_DIR", "/tmp/gowol")

	yaml := `
history:
  path: "${TEST_HISTORY_DIR}/history.json"
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
  chat_id: "42"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "/tmp/gowol/history.json", cfg.History.Path)
	assert.Equal(t, "expanded-token", cfg.Telegram.BotToken)
}

func TestParser_LoadReader_APIURLFromEnv(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://10.0.0.5:9000")

	yaml := `
api:
  base_url: "http://wol.lan:8080"
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.API.BaseURL)
}

func TestParser_LoadDefaults(t *testing.T) {
	parser := NewParser()
	cfg, err := parser.LoadDefaults()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, BackendFile, cfg.History.Backend)
}

func TestParser_LoadReader_SQLiteDefaultPath(t *testing.T) {
	yaml := `
history:
  backend: SQLite
`
	parser := NewParser()
	cfg, err := parser.LoadReader(yaml)

	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.History.Backend)
	assert.Equal(t, "history.db", filepath.Base(cfg.History.Path))
}

func TestParser_LoadReader_InvalidBackend(t *testing.T) {
	yaml := `
history:
  backend: redis
`
	parser := NewParser()
	_, err := parser.LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "history.backend must be one of")
}

func TestParser_LoadReader_InvalidBaseURL(t *testing.T) {
	yaml := `
api:
  base_url: "wol.lan"
`
	parser := NewParser()
	_, err := parser.LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

func TestParser_LoadReader_Telegram_MissingBotToken(t *testing.T) {
	yaml := `
telegram:
  chat_id: "42"
`
	parser := NewParser()
	_, err := parser.LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.bot_token is required")
}

func TestParser_LoadReader_Telegram_MissingChatID(t *testing.T) {
	yaml := `
telegram:
  bot_token: "token"
`
	parser := NewParser()
	_, err := parser.LoadReader(yaml)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.chat_id is required")
}

func TestParser_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://nas:8080\n"), 0o600))

	parser := NewParser()
	cfg, err := parser.LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "http://nas:8080", cfg.API.BaseURL)
}

func TestParser_LoadFile_Missing(t *testing.T) {
	parser := NewParser()
	_, err := parser.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoadEnvFile(t *testing.T) {
	const key = "GOWOL_TEST_DOTENV_VALUE"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
}

func TestValidate(t *testing.T) {
	valid := func() *models.Config {
		return &models.Config{
			API:     models.APIConfig{BaseURL: "http://localhost:8080", Timeout: time.Second},
			History: models.HistoryConfig{Backend: BackendFile, Path: "history.json"},
			Poller: models.PollerConfig{
				SweepInterval:    30 * time.Second,
				SweepConcurrency: 4,
				ConfirmInterval:  2 * time.Second,
				ConfirmAttempts:  10,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *models.Config)
		nilCfg  bool
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *models.Config) {},
		},
		{
			name:    "nil config",
			nilCfg:  true,
			wantErr: "configuration is nil",
		},
		{
			name:    "missing base url",
			mutate:  func(cfg *models.Config) { cfg.API.BaseURL = "" },
			wantErr: "api.base_url is required",
		},
		{
			name:    "non-http base url",
			mutate:  func(cfg *models.Config) { cfg.API.BaseURL = "ftp://nas" },
			wantErr: "api.base_url must be an http(s) URL",
		},
		{
			name:    "zero timeout",
			mutate:  func(cfg *models.Config) { cfg.API.Timeout = 0 },
			wantErr: "api.timeout must be positive",
		},
		{
			name:    "empty history path",
			mutate:  func(cfg *models.Config) { cfg.History.Path = "" },
			wantErr: "history.path is required",
		},
		{
			name:    "zero sweep interval",
			mutate:  func(cfg *models.Config) { cfg.Poller.SweepInterval = 0 },
			wantErr: "poller.sweep_interval must be positive",
		},
		{
			name:    "zero concurrency",
			mutate:  func(cfg *models.Config) { cfg.Poller.SweepConcurrency = 0 },
			wantErr: "poller.sweep_concurrency must be at least 1",
		},
		{
			name:    "negative confirm interval",
			mutate:  func(cfg *models.Config) { cfg.Poller.ConfirmInterval = -time.Second },
			wantErr: "poller.confirm_interval must be positive",
		},
		{
			name:    "zero confirm attempts",
			mutate:  func(cfg *models.Config) { cfg.Poller.ConfirmAttempts = 0 },
			wantErr: "poller.confirm_attempts must be at least 1",
		},
		{
			name:    "telegram without chat",
			mutate:  func(cfg *models.Config) { cfg.Telegram = &models.TelegramConfig{BotToken: "t"} },
			wantErr: "telegram.chat_id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *models.Config
			if !tt.nilCfg {
				cfg = valid()
				tt.mutate(cfg)
			}

			err := Validate(cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
