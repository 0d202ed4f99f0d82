package errdefs

import (
	"errors"
	"fmt"
)

// Kind classifies an installation failure. Each kind maps to its own
// process exit code so callers can distinguish precondition failures,
// cancelled prompts, validation failures and destructive-stage failures
// without parsing log text.
type Kind string

const (
	KindUnknown      Kind = "UNKNOWN"
	KindPrecondition Kind = "PRECONDITION"
	KindCancelled    Kind = "CANCELLED"
	KindValidation   Kind = "VALIDATION"
	KindDisk         Kind = "DISK"
	KindBootstrap    Kind = "BOOTSTRAP"
	KindConfigure    Kind = "CONFIGURE"
)

// Exit codes per kind. 1 is reserved for unclassified errors.
const (
	ExitOK           = 0
	ExitUnknown      = 1
	ExitPrecondition = 2
	ExitCancelled    = 3
	ExitValidation   = 4
	ExitDisk         = 5
	ExitBootstrap    = 6
	ExitConfigure    = 7
)

// InstallError is a classified error with an optional wrapped cause.
type InstallError struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *InstallError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *InstallError) Unwrap() error {
	return e.Wrapped
}

// Is matches two InstallErrors by kind, so errors.Is(err, errdefs.New(kind, ""))
// style checks work in tests and callers.
func (e *InstallError) Is(target error) bool {
	var t *InstallError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New creates a classified error.
func New(kind Kind, message string) *InstallError {
	return &InstallError{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *InstallError {
	return &InstallError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error under a kind. Returns nil for a nil cause.
func Wrap(err error, kind Kind, message string) *InstallError {
	if err == nil {
		return nil
	}
	return &InstallError{Kind: kind, Message: message, Wrapped: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...interface{}) *InstallError {
	if err == nil {
		return nil
	}
	return &InstallError{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var e *InstallError
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCode maps an error to the process exit code for its kind.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch KindOf(err) {
	case KindPrecondition:
		return ExitPrecondition
	case KindCancelled:
		return ExitCancelled
	case KindValidation:
		return ExitValidation
	case KindDisk:
		return ExitDisk
	case KindBootstrap:
		return ExitBootstrap
	case KindConfigure:
		return ExitConfigure
	default:
		return ExitUnknown
	}
}
