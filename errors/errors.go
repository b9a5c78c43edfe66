package errors

import (
	stderrors "errors"
	"fmt"
)

// HostError is the unified error type at the orchestrator boundary.
type HostError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *HostError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *HostError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *HostError) WithCause(cause error) *HostError {
	e.Cause = cause
	return e
}

// New creates a new HostError.
func New(code ErrorCode, message string) *HostError {
	return &HostError{Code: code, Message: message}
}

// Newf creates a new HostError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *HostError {
	return &HostError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// --- Common constructors ---

// ConfigMissing reports an empty or absent initial configuration.
func ConfigMissing() *HostError {
	return New(ErrCodeConfigMissing, "no configuration received on standard input")
}

// ConfigUnparseable reports an initial line that matched no known shape.
func ConfigUnparseable(cause error) *HostError {
	return New(ErrCodeConfigUnparseable, "initial line is neither a command envelope nor a configuration object").WithCause(cause)
}

// CapabilityMissing reports a lifecycle command against a provider
// without the infrastructure capability.
func CapabilityMissing(provider, command string) *HostError {
	return Newf(ErrCodeCapabilityMissing, "provider %q does not support lifecycle command %q", provider, command)
}

// ListenerFailed reports a failure to bind the RPC listener.
func ListenerFailed(cause error) *HostError {
	return New(ErrCodeListenerFailed, "unable to bind local listener").WithCause(cause)
}

// ExitCodeFor maps an error to the process exit code the orchestrator
// contract prescribes. A nil error maps to ExitOK.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var he *HostError
	if stderrors.As(err, &he) {
		if code, ok := exitCodes[he.Code]; ok {
			return code
		}
	}
	return ExitInternal
}

// CodeOf returns the error code of err, or ErrCodeInternal for foreign
// errors.
func CodeOf(err error) ErrorCode {
	var he *HostError
	if stderrors.As(err, &he) {
		return he.Code
	}
	return ErrCodeInternal
}
