package errors

import (
	"encoding/json"
	"fmt"
)

// Severity represents the severity level of an error
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for Severity
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Severity
func (s *Severity) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	switch str {
	case "info":
		*s = Info
	case "warning":
		*s = Warning
	case "error":
		*s = Error
	case "fatal":
		*s = Fatal
	default:
		*s = Error
	}
	return nil
}

// SourceLocation identifies the declaration a diagnostic is about
type SourceLocation struct {
	File        string `json:"file"`
	Module      string `json:"module,omitempty"`
	Declaration string `json:"declaration,omitempty"`
}

// CompilerError is one diagnostic produced during a generation run.
// Skipped declarations are reported as Warning; broken invariants as Fatal.
type CompilerError struct {
	Phase    string         // "identifier", "type", "meta", "filter", "codec"
	Code     string         // "E100", "E200", etc.
	Message  string         // Human-readable message
	Location SourceLocation // File, module, declaration
	Severity Severity
	Cause    string // Chained error text, if any
}

// Error implements the error interface
func (e CompilerError) Error() string {
	decl := e.Location.Declaration
	if decl == "" {
		decl = "<unnamed>"
	}
	return fmt.Sprintf("%s: %s: %s: %s", e.Location.File, decl, e.Code, e.Message)
}

// NewCompilerError creates a new CompilerError
func NewCompilerError(phase, code, message string, location SourceLocation, severity Severity) CompilerError {
	return CompilerError{
		Phase:    phase,
		Code:     code,
		Message:  message,
		Location: location,
		Severity: severity,
	}
}

// FromError converts a domain error into a diagnostic. The code and phase are
// taken from the outermost IdentifierError, TypeError or MetaError in the chain.
func FromError(err error, location SourceLocation, severity Severity) CompilerError {
	code := CodeOf(err)
	ce := NewCompilerError(GetErrorPhase(code), code, GetErrorMessage(code), location, severity)
	ce.Cause = err.Error()
	return ce
}

// WithCause records the chained error text
func (e CompilerError) WithCause(cause error) CompilerError {
	if cause != nil {
		e.Cause = cause.Error()
	}
	return e
}

// MarshalJSON implements json.Marshaler
func (e CompilerError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Phase    string         `json:"phase"`
		Code     string         `json:"code"`
		Message  string         `json:"message"`
		Severity Severity       `json:"severity"`
		Location SourceLocation `json:"location"`
		Cause    string         `json:"cause,omitempty"`
	}{
		Phase:    e.Phase,
		Code:     e.Code,
		Message:  e.Message,
		Severity: e.Severity,
		Location: e.Location,
		Cause:    e.Cause,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *CompilerError) UnmarshalJSON(data []byte) error {
	var raw struct {
		Phase    string         `json:"phase"`
		Code     string         `json:"code"`
		Message  string         `json:"message"`
		Severity Severity       `json:"severity"`
		Location SourceLocation `json:"location"`
		Cause    string         `json:"cause"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = CompilerError{
		Phase:    raw.Phase,
		Code:     raw.Code,
		Message:  raw.Message,
		Severity: raw.Severity,
		Location: raw.Location,
		Cause:    raw.Cause,
	}
	return nil
}

// IsError returns true if the error is at Error or Fatal severity
func (e CompilerError) IsError() bool {
	return e.Severity == Error || e.Severity == Fatal
}

// IsWarning returns true if the error is at Warning severity
func (e CompilerError) IsWarning() bool {
	return e.Severity == Warning
}

// IsInfo returns true if the error is at Info severity
func (e CompilerError) IsInfo() bool {
	return e.Severity == Info
}

// IsFatal returns true if the error is at Fatal severity
func (e CompilerError) IsFatal() bool {
	return e.Severity == Fatal
}
