// Package models contains the data structures used throughout gowol-homelab.
package models

import "time"

// Config holds the complete client configuration.
type Config struct {
	API      APIConfig
	History  HistoryConfig
	Poller   PollerConfig
	Telegram *TelegramConfig // nil if not configured
}

// APIConfig holds the wake backend connection settings.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// HistoryConfig selects where the device history is persisted.
type HistoryConfig struct {
	Backend string // "file" (default) or "sqlite"
	Path    string
}

// PollerConfig controls status polling.
type PollerConfig struct {
	SweepInterval    time.Duration // background sweep period
	SweepConcurrency int           // max parallel checks per sweep
	ConfirmInterval  time.Duration // post-wake poll period
	ConfirmAttempts  int           // max checks per confirmation loop
}
