package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/tablebot/internal/table"
)

const (
	msgTableNotFound = "Table not found."
	msgTableExists   = "Table already exists!"
	msgInvalidName   = "❌ Invalid table name. Use only letters, numbers, underscores and hyphens."
	msgInvalidRow    = "Invalid row number."
	msgNoColumns     = "No columns in this table."
	msgTooWide       = "⚠️ Table too wide to display. Remove some columns and try again."
	msgNoTables      = "🚫 No tables found."
	msgStorage       = "⚠️ Could not save the table. No changes were made."
	msgInternal      = "⚠️ Something went wrong. Please try again."
	msgSlowDown      = "⏳ Slow down! Try again in a moment."
	msgCancelled     = "❌ Deletion cancelled."
	msgTimedOut      = "⌛ Confirmation timed out. Table not deleted."

	helpTitle  = "📋 Table Bot Commands"
	helpFooter = "🤖 Values with spaces need \"quotes\"."
)

// parseErrorMessage is the reply for unbalanced quotes.
func parseErrorMessage(command string) string {
	if command == "addrow" || command == "editrow" {
		return "❌ Error parsing row. Use quotes for multi-word entries."
	}
	return "❌ Error parsing arguments. Use quotes for multi-word entries."
}

// errorMessage maps a table error to the reply shown to the user. Storage
// and unexpected failures are logged since the reply hides the cause.
func (d *Dispatcher) errorMessage(command string, err error) string {
	var (
		colErr   *table.ColumnError
		arityErr *table.ArityError
	)
	switch {
	case errors.As(err, &colErr):
		return fmt.Sprintf("Column '%s' not found.", colErr.Column)
	case errors.Is(err, table.ErrNotFound):
		return msgTableNotFound
	case errors.Is(err, table.ErrAlreadyExists):
		return msgTableExists
	case errors.Is(err, table.ErrInvalidName):
		return msgInvalidName
	case errors.Is(err, table.ErrOutOfRange):
		return msgInvalidRow
	case errors.As(err, &arityErr):
		return fmt.Sprintf("❌ Expected %d values, but got %d.", arityErr.Want, arityErr.Got)
	case errors.Is(err, table.ErrPersistence):
		d.logger.Error("storage failure", "command", command, "error", err)
		return msgStorage
	default:
		d.logger.Error("command failed", "command", command, "error", err)
		return msgInternal
	}
}

// formatRow renders removed cells the way they were entered.
func formatRow(row []string) string {
	quoted := make([]string, len(row))
	for i, v := range row {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func tableList(names []string) string {
	var b strings.Builder
	b.WriteString("📄 **Available Tables in This Server:**")
	for _, name := range names {
		b.WriteString("\n- `" + name + "`")
	}
	return b.String()
}
