package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TableListResponse is the response for tables list.
type TableListResponse struct {
	Scope  string   `json:"scope"`
	Tables []string `json:"tables"`
}

// TablePageResponse is the response for tables show.
type TablePageResponse struct {
	Scope      string     `json:"scope"`
	Table      string     `json:"table"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
}

// TableDeleteResponse is the response for tables delete.
type TableDeleteResponse struct {
	Scope   string `json:"scope"`
	Table   string `json:"table"`
	Outcome string `json:"outcome"`
}
