package errors

// Error code constants organized by phase
// E100-E199: Identifier errors
// E200-E299: Type errors
// E300-E399: Meta errors
// E400-E499: Filter and codec errors

// Phases reported in CompilerError.Phase
const (
	PhaseIdentifier = "identifier"
	PhaseType       = "type"
	PhaseMeta       = "meta"
	PhaseFilter     = "filter"
	PhaseCodec      = "codec"
)

const (
	// Identifier errors (E100-E199)
	ErrMissingFile         = "E100"
	ErrMissingModule       = "E101"
	ErrAnonymousDecl       = "E102"
	ErrUnsupportedDeclKind = "E103"

	// Type errors (E200-E299)
	ErrUnsupportedType       = "E200"
	ErrUnsupportedBuiltin    = "E201"
	ErrUnresolvedDeclaration = "E202"
	ErrUnionReference        = "E203"
	ErrInvalidObjectPointer  = "E204"
	ErrInvalidBlock          = "E205"
	ErrMissingType           = "E206"
	ErrRecursiveType         = "E207"

	// Meta errors (E300-E399)
	ErrMetaCreation      = "E300"
	ErrDuplicateName     = "E301"
	ErrDanglingReference = "E302"
	ErrMemberDropped     = "E303"

	// Filter and codec errors (E400-E499)
	ErrFilterFailed   = "E400"
	ErrEncodingFailed = "E401"
	ErrOffsetOverflow = "E402"
)

// ErrorMessages maps error codes to their default messages
var ErrorMessages = map[string]string{
	ErrMissingFile:         "The containing file of declaration was not found",
	ErrMissingModule:       "Can't find module for this file name",
	ErrAnonymousDecl:       "Anonymous declaration outside typedef has no suitable name",
	ErrUnsupportedDeclKind: "Declaration kind cannot be named",

	ErrUnsupportedType:       "Unable to create encoding for this type",
	ErrUnsupportedBuiltin:    "Not supported builtin type",
	ErrUnresolvedDeclaration: "Type is referencing not supported declaration",
	ErrUnionReference:        "Named unions cannot be referenced",
	ErrInvalidObjectPointer:  "Invalid interface pointer type",
	ErrInvalidBlock:          "Unable to parse a block type",
	ErrMissingType:           "Declaration has no type",
	ErrRecursiveType:         "Anonymous type contains itself",

	ErrMetaCreation:      "Declaration cannot be modeled",
	ErrDuplicateName:     "Declaration name is not unique in its module",
	ErrDanglingReference: "Declaration references an entity missing from the container",
	ErrMemberDropped:     "Member skipped",

	ErrFilterFailed:   "Filter pipeline failed",
	ErrEncodingFailed: "Binary encoding failed",
	ErrOffsetOverflow: "Heap offset does not fit the configured pointer size",
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code string) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}

// GetErrorPhase returns the phase for an error code
func GetErrorPhase(code string) string {
	if len(code) < 2 {
		return "unknown"
	}
	switch code[1] {
	case '1':
		return PhaseIdentifier
	case '2':
		return PhaseType
	case '3':
		return PhaseMeta
	case '4':
		return PhaseCodec
	default:
		return "unknown"
	}
}
