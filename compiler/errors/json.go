package errors

import (
	"encoding/json"
)

// JSONOutput represents the JSON structure of a run report
type JSONOutput struct {
	Status   string          `json:"status"`
	RunID    string          `json:"run_id,omitempty"`
	Errors   []CompilerError `json:"errors"`
	Warnings []CompilerError `json:"warnings"`
	Summary  Summary         `json:"summary"`
}

// Summary contains error and warning counts
type Summary struct {
	ErrorCount   int `json:"error_count"`
	WarningCount int `json:"warning_count"`
	TotalCount   int `json:"total_count"`
}

// FormatAsJSON formats a CompilerError as JSON
func (e CompilerError) FormatAsJSON() (string, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewJSONOutput splits diagnostics into errors and warnings and derives the
// overall status. Skipped declarations are warnings, so a run with only
// skipped declarations still reports "warning", not "error".
func NewJSONOutput(runID string, diagnostics []CompilerError) JSONOutput {
	errorList := make([]CompilerError, 0)
	warningList := make([]CompilerError, 0)

	for _, d := range diagnostics {
		if d.IsError() {
			errorList = append(errorList, d)
		} else {
			warningList = append(warningList, d)
		}
	}

	status := "success"
	if len(errorList) > 0 {
		status = "error"
	} else if len(warningList) > 0 {
		status = "warning"
	}

	return JSONOutput{
		Status:   status,
		RunID:    runID,
		Errors:   errorList,
		Warnings: warningList,
		Summary: Summary{
			ErrorCount:   len(errorList),
			WarningCount: len(warningList),
			TotalCount:   len(diagnostics),
		},
	}
}

// FormatErrorsAsJSON formats multiple diagnostics as an indented JSON report
func FormatErrorsAsJSON(runID string, diagnostics []CompilerError) (string, error) {
	data, err := json.MarshalIndent(NewJSONOutput(runID, diagnostics), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatErrorsAsJSONCompact formats multiple diagnostics as compact JSON
func FormatErrorsAsJSONCompact(runID string, diagnostics []CompilerError) (string, error) {
	data, err := json.Marshal(NewJSONOutput(runID, diagnostics))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
