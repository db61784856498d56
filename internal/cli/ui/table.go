package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Table renders aligned columns under a bold header row
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{writer: w, headers: headers, noColor: noColor}
}

// AddRow adds a row; cells beyond the header count are ignored
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		bold.DisableColor()
		gray.DisableColor()
	}

	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("─", w)
	}
	bold.Fprintln(t.writer, joinPadded(t.headers, widths))
	gray.Fprintln(t.writer, strings.Join(separators, "  "))
	for _, row := range t.rows {
		fmt.Fprintln(t.writer, joinPadded(row, widths))
	}
}

// joinPadded pads every cell but the last to its column width
func joinPadded(cells []string, widths []int) string {
	n := len(cells)
	if n > len(widths) {
		n = len(widths)
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		if i == n-1 {
			parts[i] = cells[i]
		} else {
			parts[i] = padRight(cells[i], widths[i])
		}
	}
	return strings.Join(parts, "  ")
}

// padRight pads s with spaces on the right to reach width display columns
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// KeyValueTable renders "key: value" lines with aligned values
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render writes the table
func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		if w := runewidth.StringWidth(k); w > width {
			width = w
		}
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, k := range t.keys {
		cyan.Fprint(t.writer, padRight(k+":", width+1))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}

// Header renders a styled title over a divider of the same width
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if noColor {
		bold.DisableColor()
		gray.DisableColor()
	}
	bold.Fprintln(w, title)
	gray.Fprintln(w, strings.Repeat("─", runewidth.StringWidth(title)))
}
