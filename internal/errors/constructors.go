package errors

import (
	stderrors "errors"
)

// ConfigError creates a fatal configuration error. Raised at role wrapper
// construction time, before any filesystem or network side effect, so the
// message doubles as remediation text for the operator.
func ConfigError(message string) *BuildError {
	return &BuildError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// ValidationError creates a non-fatal input validation error.
func ValidationError(message string) *BuildError {
	return &BuildError{
		Category: CategoryValidation,
		Severity: SeverityWarning,
		Message:  message,
	}
}

// VcsError wraps a backend failure. The underlying tool or library message is
// preserved unmodified so operators can diagnose the external system.
func VcsError(err error, message string) *BuildError {
	return &BuildError{
		Category: CategoryVcs,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// ReviewError creates a code-review capability error.
func ReviewError(message string) *BuildError {
	return &BuildError{
		Category: CategoryReview,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// FileSystemError wraps a filesystem failure.
func FileSystemError(err error, message string) *BuildError {
	return &BuildError{
		Category: CategoryFileSystem,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IsConfig reports whether err (or anything it wraps) is a configuration error.
func IsConfig(err error) bool {
	var be *BuildError
	if stderrors.As(err, &be) {
		return be.Category == CategoryConfig
	}
	return false
}
