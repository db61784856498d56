package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// failure is a multi-line error block printed to stderr by the commands.
type failure struct {
	title   string
	detail  string
	similar []string
	hints   []string
}

func (f failure) render(noColor bool) string {
	red := paint(noColor, color.FgRed)
	var b strings.Builder
	paint(noColor, color.FgRed, color.Bold).Fprintf(&b, "❌ %s: %s\n", f.title, f.detail)
	if len(f.similar) > 0 {
		paint(noColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(f.similar, ", "))
	}
	for _, h := range f.hints {
		red.Fprintf(&b, "   → %s\n", h)
	}
	return b.String()
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// SymbolNotFoundError reports a name missing from the symbol index,
// listing close matches when there are any.
func SymbolNotFoundError(name string, suggestions []string, noColor bool) string {
	return failure{
		title:   "SYMBOL NOT FOUND",
		detail:  fmt.Sprintf("no declaration named '%s' in the latest run", name),
		similar: suggestions,
		hints:   []string{"metagen generate --index <unit>"},
	}.render(noColor)
}

// GenerationError reports a run that wrote no metadata.
func GenerationError(message string, noColor bool) string {
	return failure{
		title:  "GENERATION FAILED",
		detail: message,
		hints:  []string{"no metadata was written", "metagen generate --verbose lists skipped declarations"},
	}.render(noColor)
}

// ConfigError reports an invalid metagen.yml or flag combination.
func ConfigError(message string, noColor bool) string {
	return failure{
		title:  "CONFIGURATION ERROR",
		detail: message,
		hints:  []string{"check metagen.yml and METAGEN_* environment variables"},
	}.render(noColor)
}

// Info is a single cyan status line.
func Info(message string, noColor bool) string {
	return paint(noColor, color.FgCyan).Sprintf("ℹ️ %s\n", message)
}

// WriteSuccess prints a green check line.
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message))
}
