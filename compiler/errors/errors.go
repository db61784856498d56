// Package errors provides the error kinds and diagnostics of the metadata
// generator.
//
// Wrapping and stack capture are delegated to github.com/cockroachdb/errors,
// re-exported here so callers only import one errors package:
//
//	if err := build(); err != nil {
//	    return errors.Wrap(err, "building signature")
//	}
//
// The three domain kinds are IdentifierError (a declaration cannot be named
// or placed in a module), TypeError (a type cannot be mapped into the type
// algebra) and MetaError (a declaration cannot be modeled).
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllDetails  = crdb.GetAllDetails
	FlattenDetails = crdb.FlattenDetails
)

// Assertions for broken invariants
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	IsAssertionFailure               = crdb.IsAssertionFailure
	HasAssertionFailure              = crdb.HasAssertionFailure
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// IdentifierError reports a declaration that cannot be named or whose owning
// module cannot be found. Callers that tolerate a missing name may substitute
// an empty one and continue.
type IdentifierError struct {
	Name   string // best-effort name, may be empty
	File   string
	Code   string
	Reason string
}

// NewIdentifierError creates an IdentifierError
func NewIdentifierError(code, name, file, reason string) *IdentifierError {
	return &IdentifierError{Name: name, File: file, Code: code, Reason: reason}
}

func (e *IdentifierError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	if e.File != "" {
		return fmt.Sprintf("identifier %s (%s): %s", name, e.File, e.Reason)
	}
	return fmt.Sprintf("identifier %s: %s", name, e.Reason)
}

// TypeError reports a type that cannot be built. Fatal marks constructs that
// are definitively unsupported.
type TypeError struct {
	Type   string // raw type class that was being built
	Code   string
	Reason string
	Fatal  bool
	cause  error
}

// NewTypeError creates a TypeError with no underlying cause
func NewTypeError(code, typ, reason string, fatal bool) *TypeError {
	return &TypeError{Type: typ, Code: code, Reason: reason, Fatal: fatal}
}

// WrapTypeError records a failure of a referenced declaration while building
// typ. The result is always fatal.
func WrapTypeError(typ string, cause error) *TypeError {
	return &TypeError{
		Type:   typ,
		Code:   ErrUnresolvedDeclaration,
		Reason: fmt.Sprintf("type is referencing not supported declaration [%s]", cause.Error()),
		Fatal:  true,
		cause:  cause,
	}
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type %s: %s", e.Type, e.Reason)
}

// Unwrap returns the referenced declaration failure, if any
func (e *TypeError) Unwrap() error { return e.cause }

// MetaError reports a declaration that cannot be modeled. The originating
// error message is chained in for diagnostics.
type MetaError struct {
	Name   string
	Code   string
	Reason string
	cause  error
}

// NewMetaError creates a MetaError, optionally chaining cause
func NewMetaError(code, name, reason string, cause error) *MetaError {
	return &MetaError{Name: name, Code: code, Reason: reason, cause: cause}
}

func (e *MetaError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("declaration %s: %s: %s", e.Name, e.Reason, e.cause.Error())
	}
	return fmt.Sprintf("declaration %s: %s", e.Name, e.Reason)
}

// Unwrap returns the chained error
func (e *MetaError) Unwrap() error { return e.cause }

// IsFatalType reports whether err is or wraps a fatal TypeError
func IsFatalType(err error) bool {
	var te *TypeError
	return As(err, &te) && te.Fatal
}

// CodeOf returns the diagnostic code carried by the outermost domain error in
// err's chain, or ErrMetaCreation when there is none.
func CodeOf(err error) string {
	for ; err != nil; err = crdb.UnwrapOnce(err) {
		switch e := err.(type) {
		case *MetaError:
			if e.Code != "" {
				return e.Code
			}
		case *TypeError:
			if e.Code != "" {
				return e.Code
			}
		case *IdentifierError:
			if e.Code != "" {
				return e.Code
			}
		}
	}
	return ErrMetaCreation
}
