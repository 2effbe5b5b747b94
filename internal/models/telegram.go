package models

import "time"

// TelegramConfig holds Telegram notification configuration.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramMessage holds the data for a wake notification.
type TelegramMessage struct {
	AttemptID  string
	DeviceName string
	MAC        string
	Address    string
	Outcome    ConfirmOutcome
	Attempts   int
	StartTime  time.Time
	Duration   time.Duration

	// Error info (if the last check failed).
	ErrorMessage string
}

// TelegramResult holds the result of a Telegram notification.
type TelegramResult struct {
	MessageSent bool
	Error       error
}
