package errors

import (
	"fmt"
	"strings"
)

// MaxErrors is the maximum number of errors to collect before stopping.
// Warnings (skipped declarations) are never capped.
const MaxErrors = 100

// ErrorRecovery accumulates diagnostics at the per-declaration boundary so a
// failing declaration never aborts ingestion of the others.
type ErrorRecovery struct {
	errors   []CompilerError
	warnings []CompilerError
	maxCount int
}

// NewErrorRecovery creates a new ErrorRecovery instance
func NewErrorRecovery() *ErrorRecovery {
	return NewErrorRecoveryWithMax(MaxErrors)
}

// NewErrorRecoveryWithMax creates a new ErrorRecovery with custom max count
func NewErrorRecoveryWithMax(maxCount int) *ErrorRecovery {
	return &ErrorRecovery{
		errors:   make([]CompilerError, 0),
		warnings: make([]CompilerError, 0),
		maxCount: maxCount,
	}
}

// Recover adds a diagnostic to the collection
func (r *ErrorRecovery) Recover(err CompilerError) {
	if err.IsWarning() || err.IsInfo() {
		r.warnings = append(r.warnings, err)
		return
	}
	if len(r.errors) >= r.maxCount {
		return
	}
	r.errors = append(r.errors, err)
}

// Skip records a dropped declaration as a warning built from its error
func (r *ErrorRecovery) Skip(err error, location SourceLocation) {
	r.Recover(FromError(err, location, Warning))
}

// RecoverMultiple adds multiple diagnostics to the collection
func (r *ErrorRecovery) RecoverMultiple(errs []CompilerError) {
	for _, err := range errs {
		r.Recover(err)
	}
}

// HasErrors returns true if there are any errors (not just warnings)
func (r *ErrorRecovery) HasErrors() bool {
	return len(r.errors) > 0
}

// HasWarnings returns true if there are any warnings
func (r *ErrorRecovery) HasWarnings() bool {
	return len(r.warnings) > 0
}

// ErrorCount returns the number of errors
func (r *ErrorRecovery) ErrorCount() int {
	return len(r.errors)
}

// WarningCount returns the number of warnings
func (r *ErrorRecovery) WarningCount() int {
	return len(r.warnings)
}

// TotalCount returns the total number of errors and warnings
func (r *ErrorRecovery) TotalCount() int {
	return len(r.errors) + len(r.warnings)
}

// GetAll returns all errors and warnings combined, errors first
func (r *ErrorRecovery) GetAll() []CompilerError {
	all := make([]CompilerError, 0, len(r.errors)+len(r.warnings))
	all = append(all, r.errors...)
	all = append(all, r.warnings...)
	return all
}

// FormatForTerminal formats all diagnostics for terminal output
func (r *ErrorRecovery) FormatForTerminal() string {
	var sb strings.Builder
	for _, d := range r.GetAll() {
		sb.WriteString(d.FormatForTerminal())
	}
	if r.TotalCount() > 0 {
		sb.WriteString(FormatSummary(len(r.errors), len(r.warnings)))
	}
	if len(r.errors) >= r.maxCount {
		sb.WriteString(fmt.Sprintf("\nNote: Error limit reached (%d). Additional errors not shown.\n", r.maxCount))
	}
	return sb.String()
}

// Summary returns a human-readable summary
func (r *ErrorRecovery) Summary() string {
	if len(r.errors) == 0 && len(r.warnings) == 0 {
		return "No errors or skipped declarations"
	}

	var parts []string
	if len(r.errors) > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", len(r.errors)))
	}
	if len(r.warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped declaration(s)", len(r.warnings)))
	}
	return "Found " + strings.Join(parts, " and ")
}

// GetErrorsByCode returns diagnostics with a specific error code
func (r *ErrorRecovery) GetErrorsByCode(code string) []CompilerError {
	var result []CompilerError
	for _, d := range r.GetAll() {
		if d.Code == code {
			result = append(result, d)
		}
	}
	return result
}

// GetErrorsByPhase returns diagnostics for a specific phase
func (r *ErrorRecovery) GetErrorsByPhase(phase string) []CompilerError {
	var result []CompilerError
	for _, d := range r.GetAll() {
		if d.Phase == phase {
			result = append(result, d)
		}
	}
	return result
}
