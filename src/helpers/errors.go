package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type PulseError struct {
	Message string
	Cause   error
}

func (e *PulseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PulseError) Unwrap() error {
	return e.Cause
}

// AdapterError is a failed or timed out poll of one source.
type AdapterError struct {
	PulseError
	SourceID string
}

// MalformedMessageError is an inbound protocol frame that could not be used.
type MalformedMessageError struct{ PulseError }

// DeliveryError is a failed send to a client connection.
type DeliveryError struct {
	PulseError
	ConnectionID string
}

// RuleEvaluationError is a single alert or recommendation rule that failed.
type RuleEvaluationError struct {
	PulseError
	Rule string
}

type ConfigurationError struct{ PulseError }
type StorageError struct{ PulseError }

// -----------------------------------------------------------------------------

func NewAdapterError(sourceID string, cause error) *AdapterError {
	return &AdapterError{
		PulseError: PulseError{Message: fmt.Sprintf("poll of source '%s' failed", sourceID), Cause: cause},
		SourceID:   sourceID,
	}
}

func NewMalformedMessageError(msg string, cause error) *MalformedMessageError {
	return &MalformedMessageError{PulseError{Message: msg, Cause: cause}}
}

func NewDeliveryError(connectionID string, cause error) *DeliveryError {
	return &DeliveryError{
		PulseError:   PulseError{Message: fmt.Sprintf("delivery to connection '%s' failed", connectionID), Cause: cause},
		ConnectionID: connectionID,
	}
}

func NewRuleEvaluationError(rule string, cause error) *RuleEvaluationError {
	return &RuleEvaluationError{
		PulseError: PulseError{Message: fmt.Sprintf("rule '%s' failed", rule), Cause: cause},
		Rule:       rule,
	}
}

func NewConfigurationError(msg string, cause error) *ConfigurationError {
	return &ConfigurationError{PulseError{Message: msg, Cause: cause}}
}

func NewStorageError(msg string, cause error) *StorageError {
	return &StorageError{PulseError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------

// ErrQueueFull is the cause of a DeliveryError raised on a saturated client queue.
var ErrQueueFull = errors.New("send queue full")

// ErrConnectionClosed is the cause of a DeliveryError raised on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// -----------------------------------------------------------------------------

// Recovered converts a recovered panic value into an error.
func Recovered(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}
