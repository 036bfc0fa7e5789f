package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies what went wrong inside a stage. Kinds feed severity
// classification: authentication failures escalate to critical.
type ErrorKind string

const (
	// ErrorKindAuthentication indicates the stage was rejected by its upstream
	// with an authentication or authorization failure.
	ErrorKindAuthentication ErrorKind = "authentication"

	// ErrorKindTimeout indicates the stage's own deadline expired.
	ErrorKindTimeout ErrorKind = "timeout"

	// ErrorKindUnavailable indicates the stage's upstream was unreachable or
	// answered with a server-side failure.
	ErrorKindUnavailable ErrorKind = "unavailable"

	// ErrorKindInvalidResponse indicates the upstream answered with a payload
	// the stage could not use.
	ErrorKindInvalidResponse ErrorKind = "invalid_response"

	// ErrorKindInternal is the catch-all for everything else.
	ErrorKindInternal ErrorKind = "internal"
)

// StageError reports a failed pipeline stage. It halts the run that raised it
// and is never retried by the orchestrator; any retry policy lives inside the
// stage itself.
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s error: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err as a stage failure. A zero kind becomes internal.
func NewStageError(stage string, kind ErrorKind, err error) *StageError {
	if kind == "" {
		kind = ErrorKindInternal
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// AsStageError unwraps err to a StageError if one is in the chain.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ChannelError reports a notification channel that failed to deliver. Channel
// errors are recorded and counted but never abort a pipeline run.
type ChannelError struct {
	Channel string
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("notification channel %s error: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// NewChannelError wraps err as a delivery failure on the named channel.
func NewChannelError(channel string, err error) *ChannelError {
	return &ChannelError{Channel: channel, Err: err}
}

// ConfigurationError reports invalid configuration. It is fatal at
// initialization time only; once a run has started no ConfigurationError is
// raised.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError reports that field is misconfigured.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether a ConfigurationError is in the chain.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ErrReportNotFound is returned by audit trail lookups for an unknown audit ID.
var ErrReportNotFound = errors.New("compliance report not found")
