// Package meshnet holds the structured error type shared by the gateway
// and node packages: every logged send/receive failure is wrapped in an
// Error carrying one of the codes below, so the framing, radio,
// breaker-open and capacity categories in spec §7 stay distinguishable
// in the log stream instead of collapsing into a bare err string.
package meshnet

import (
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
)

const (
	ErrCodeCapacityExceeded = "CAPACITY_EXCEEDED"
	ErrCodeFraming          = "FRAMING"
	ErrCodeRadio            = "RADIO"
	ErrCodeCircuitOpen      = "CIRCUIT_OPEN"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// Error is a typed error carrying a machine-readable code alongside the
// human message, used for log lines that distinguish the error kinds in
// spec §7 (radio driver error, framing error, capacity exhaustion).
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no cause.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error that chains cause.
func Wrap(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// RadioErrorCode classifies a transmit error into ErrCodeCircuitOpen
// when the breaker has tripped (radio.BreakerTransmitter) or
// ErrCodeRadio for a plain driver failure.
func RadioErrorCode(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCodeCircuitOpen
	}
	return ErrCodeRadio
}
