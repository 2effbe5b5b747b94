package models

import "github.com/google/uuid"

// WakeFormData is the user input for a single wake action.
type WakeFormData struct {
	MAC        string
	DeviceName string
	IPAddress  string
}

// WakeResult holds the outcome of a successful wake request.
type WakeResult struct {
	Message string
}

// StatusMessage is the last user-visible message of the orchestrator.
type StatusMessage struct {
	Text    string `json:"message"`
	IsError bool   `json:"isError"`
}

// WakeAttempt describes one orchestrated wake action.
type WakeAttempt struct {
	ID      uuid.UUID
	Form    WakeFormData
	Message StatusMessage

	// Confirmation receives the terminal outcome of the post-wake loop and is
	// then closed. nil when no loop was started.
	Confirmation <-chan ConfirmResult
}
