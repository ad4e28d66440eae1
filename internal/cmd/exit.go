package cmd

import "errors"

// Process exit codes. Scripts and agents branch on these, so they are
// part of the CLI contract.
const (
	ExitOK           = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitToolMissing  = 3
	ExitJobNotFound  = 4
)

// exitError wraps an error with a specific exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitGeneralError
}
