package manager

import (
	"errors"
	"fmt"
	"time"
)

// busyError signals that another generation is in flight (503).
type busyError struct{}

func (busyError) Error() string { return "generation already in progress" }

// IsBusy reports whether err is an admission rejection.
func IsBusy(err error) bool {
	var e busyError
	return errors.As(err, &e)
}

// generationFailedError covers a non-zero runner exit and any fault while
// starting or waiting on the runner.
type generationFailedError struct {
	exitCode int
	stderr   string
	cause    error
}

func (e generationFailedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("runner failed: %v", e.cause)
	}
	return fmt.Sprintf("runner exited with code %d", e.exitCode)
}

func (e generationFailedError) Unwrap() error { return e.cause }

// ExitCode returns the runner exit code, or -1 if it never exited normally.
func (e generationFailedError) ExitCode() int { return e.exitCode }

// Stderr returns a bounded tail of the runner's standard error.
func (e generationFailedError) Stderr() string { return e.stderr }

// IsGenerationFailed reports whether err is a generation failure.
func IsGenerationFailed(err error) bool {
	var e generationFailedError
	return errors.As(err, &e)
}

// timeoutError signals that the runner exceeded the configured timeout and
// was terminated.
type timeoutError struct{ after time.Duration }

func (e timeoutError) Error() string { return fmt.Sprintf("runner timed out after %s", e.after) }

// IsTimeout reports whether err is a generation timeout.
func IsTimeout(err error) bool {
	var e timeoutError
	return errors.As(err, &e)
}
