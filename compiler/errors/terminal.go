package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// FormatForTerminal formats a CompilerError for terminal output
func (e CompilerError) FormatForTerminal() string {
	var sb strings.Builder

	severityColor := getSeverityColor(e.Severity)
	severityColor.Fprintf(&sb, "%s[%s]", e.Severity.String(), e.Code)
	fmt.Fprintf(&sb, ": %s\n", e.Message)

	location := e.Location.Declaration
	if location == "" {
		location = "<unnamed>"
	}
	if e.Location.Module != "" {
		location = e.Location.Module + "." + location
	}
	cyan := color.New(color.FgCyan)
	cyan.Fprint(&sb, "  --> ")
	if e.Location.File != "" {
		fmt.Fprintf(&sb, "%s (%s)\n", location, e.Location.File)
	} else {
		fmt.Fprintf(&sb, "%s\n", location)
	}

	if e.Cause != "" {
		gray := color.New(color.FgHiBlack)
		gray.Fprintf(&sb, "  caused by: %s\n", e.Cause)
	}

	return sb.String()
}

// getSeverityColor returns the color for a severity level
func getSeverityColor(severity Severity) *color.Color {
	switch severity {
	case Info:
		return color.New(color.FgBlue)
	case Warning:
		return color.New(color.FgYellow, color.Bold)
	case Error:
		return color.New(color.FgRed, color.Bold)
	case Fatal:
		return color.New(color.FgRed, color.Bold, color.Underline)
	default:
		return color.New(color.Reset)
	}
}

// FormatSummary formats a summary of errors and skipped declarations
func FormatSummary(errorCount, warningCount int) string {
	var parts []string

	if errorCount > 0 {
		parts = append(parts, color.RedString("%d error(s)", errorCount))
	}
	if warningCount > 0 {
		parts = append(parts, color.YellowString("%d skipped declaration(s)", warningCount))
	}

	if len(parts) == 0 {
		return color.BlueString("No errors or skipped declarations") + "\n"
	}

	return fmt.Sprintf("\nGeneration finished with %s\n", strings.Join(parts, " and "))
}
