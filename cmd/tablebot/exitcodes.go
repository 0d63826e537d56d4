package main

import "errors"

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable file, invalid values)
	ExitNotFound    = 3 // Table not found
	ExitCancelled   = 4 // Deletion declined at the prompt
)

// errCancelled is returned by a command the user declined. main exits with
// ExitCancelled after deferred cleanup has run.
var errCancelled = errors.New("cancelled")
