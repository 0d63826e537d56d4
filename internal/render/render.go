// Package render formats table pages as bordered monospace text for chat messages.
package render

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
)

// MaxCellWidth is the widest a cell is ever shown.
const MaxCellWidth = 32

// MinCellWidth is the narrowest Page will shrink cells to before giving up.
const MinCellWidth = 3

// MaxMessageLength is the most characters a single chat message may hold.
const MaxMessageLength = 2000

// ErrTooWide is returned when a page does not fit in one message even with
// cells shrunk to MinCellWidth.
var ErrTooWide = errors.New("table too wide to display")

// Table renders columns and rows as a bordered text table with cells cut to
// MaxCellWidth. Rows with the wrong number of cells are padded or cut to the
// header width.
func Table(columns []string, rows [][]string) string {
	return tableAt(columns, rows, MaxCellWidth)
}

func tableAt(columns []string, rows [][]string, cellWidth int) string {
	var b strings.Builder

	tw := tablewriter.NewWriter(&b)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeader(fitRow(columns, len(columns), cellWidth))
	for _, row := range rows {
		tw.Append(fitRow(row, len(columns), cellWidth))
	}
	tw.Render()

	return b.String()
}

// Page renders one page of a table with its title and page indicator. Cells
// are narrowed until the page fits in MaxMessageLength characters.
func Page(title string, page, totalPages int, columns []string, rows [][]string) (string, error) {
	header := fmt.Sprintf("📄 **%s** - Page %d/%d\n```\n", title, page, totalPages)
	for w := MaxCellWidth; w >= MinCellWidth; w-- {
		out := header + tableAt(columns, rows, w) + "```"
		if utf8.RuneCountInString(out) <= MaxMessageLength {
			return out, nil
		}
	}
	return "", fmt.Errorf("%w: %d columns", ErrTooWide, len(columns))
}

// Truncate shortens s to MaxCellWidth display columns.
func Truncate(s string) string {
	return truncateTo(s, MaxCellWidth)
}

func truncateTo(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "…")
}

// fitRow truncates every cell and pads or cuts the row to width cells.
func fitRow(row []string, width, cellWidth int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = truncateTo(row[i], cellWidth)
	}
	return out
}
