// Package mac validates textual MAC addresses.
package mac

import (
	"errors"
	"regexp"
)

// ErrInvalidFormat is returned when an address fails Validate.
var ErrInvalidFormat = errors.New("invalid MAC address format (e.g. AA:BB:CC:DD:EE:FF)")

// Each separator is matched independently, so "AA:BB-CC:DD-EE:FF" passes.
var pattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})$`)

// Validate reports whether s is six two-digit hex groups separated by ':' or '-'.
// The address is not normalized.
func Validate(s string) bool {
	return pattern.MatchString(s)
}
