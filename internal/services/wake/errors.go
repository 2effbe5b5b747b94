package wake

import "fmt"

// RejectedError is returned when the backend answers with a non-2xx status.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return e.Message
}

// TransportError is returned when the backend could not be reached or its
// response could not be understood.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("wake request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
