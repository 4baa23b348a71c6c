package contract

import (
	"errors"
	"fmt"
)

// ExitCode is the integer a handler aborts its compute phase with.
type ExitCode int32

// Codes shared by all contracts.
const (
	ExitIntegerOverflow ExitCode = 5
	ExitCellOverflow    ExitCode = 8
	ExitCellUnderflow   ExitCode = 9
	ExitOutOfGas        ExitCode = 13
)

// ExitError aborts the compute phase. No state or outgoing message of the transaction survives it.
type ExitError struct {
	Code ExitCode
	// Cause is an optional underlying error, kept for logging only.
	Cause error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("exit code %d: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// Throw returns an ExitError with the given code.
func Throw(code ExitCode) error {
	return &ExitError{Code: code}
}

// ThrowWith returns an ExitError with the given code and cause.
func ThrowWith(code ExitCode, cause error) error {
	return &ExitError{Code: code, Cause: cause}
}

// ExitCodeOf extracts an exit code from err.
func ExitCodeOf(err error) (ExitCode, bool) {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code, true
	}
	return 0, false
}
