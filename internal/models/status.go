package models

import "time"

// DeviceStatusMap maps an IP address or hostname to its online flag.
type DeviceStatusMap map[string]bool

// Clone returns a copy safe to hand to callers.
func (m DeviceStatusMap) Clone() DeviceStatusMap {
	out := make(DeviceStatusMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ConfirmOutcome is the terminal state of a confirmation loop.
type ConfirmOutcome string

const (
	OutcomeOnline      ConfirmOutcome = "online"
	OutcomeTimedOut    ConfirmOutcome = "timed_out"
	OutcomeCheckFailed ConfirmOutcome = "check_failed"
	OutcomeCancelled   ConfirmOutcome = "cancelled"
)

// ConfirmResult holds the result of a post-wake confirmation loop.
type ConfirmResult struct {
	Address  string
	Outcome  ConfirmOutcome
	Attempts int
	Duration time.Duration
	Error    error // last check error, if any
}

// Message returns the user-visible text for the outcome.
func (r ConfirmResult) Message() StatusMessage {
	switch r.Outcome {
	case OutcomeOnline:
		return StatusMessage{Text: r.Address + ": device is online"}
	case OutcomeTimedOut:
		return StatusMessage{Text: r.Address + ": device did not come online", IsError: true}
	case OutcomeCheckFailed:
		return StatusMessage{Text: r.Address + ": status check failed", IsError: true}
	default:
		return StatusMessage{Text: r.Address + ": status monitoring cancelled", IsError: true}
	}
}
