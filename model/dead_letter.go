package model

import (
	"runtime/debug"
	"time"
)

// DeadLetterError captures the terminal failure that moved an event to the
// Dead Letter Queue.
type DeadLetterError struct {
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DeadLetter is the envelope published to the DLQ channel when a handler
// exhausts all retry attempts. It is produced once per terminal failure and
// owned thereafter by whatever offline tooling consumes the DLQ channel.
type DeadLetter struct {
	OriginalEvent Event           `json:"originalEvent"`
	Error         DeadLetterError `json:"error"`
	FailedAt      time.Time       `json:"failedAt"`
}

// NewDeadLetter wraps a terminally failed event together with its last error.
// The stack of the dead-lettering call site is recorded for diagnosis.
func NewDeadLetter(evt Event, cause error) DeadLetter {
	now := time.Now().UTC()
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	return DeadLetter{
		OriginalEvent: evt,
		Error: DeadLetterError{
			Message:   message,
			Stack:     string(debug.Stack()),
			Timestamp: now,
		},
		FailedAt: now,
	}
}
