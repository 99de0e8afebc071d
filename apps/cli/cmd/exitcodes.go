package cmd

// Exit codes for jsonpost CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitStatusError indicates a non-2xx response status
	ExitStatusError = 1

	// ExitParseError indicates the response was not valid JSON or failed schema validation
	ExitParseError = 2

	// ExitConfigError indicates a configuration, URL, header or body error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitTimeout indicates the request did not finish in time
	ExitTimeout = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for a failure that was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }
