package tradovate

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout           = errors.New("websocket timeout")
	ErrConnection        = errors.New("websocket connection error")
	ErrClosedEarly       = errors.New("websocket closed without data")
	ErrIncompleteHistory = errors.New("websocket closed before end of history")
	ErrAuthRejected      = errors.New("websocket authorization rejected")
	ErrChartRejected     = errors.New("chart request rejected")
)

// ShutdownError is returned when the server announces a shutdown mid-session.
type ShutdownError struct {
	ReasonCode string
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("server shutdown: %s", e.ReasonCode)
}

// RenewalError reports a failed access token renewal.
type RenewalError struct {
	Status int
	Reason string
	Err    error
}

func (e *RenewalError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("token renewal failed: %d", e.Status)
	}
	return fmt.Sprintf("token renewal failed: %s", e.Reason)
}

func (e *RenewalError) Unwrap() error { return e.Err }
