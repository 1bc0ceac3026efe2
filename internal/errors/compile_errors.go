package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Kind classifies a compile failure. Every kind is fatal to the
// compilation that produced it.
type Kind string

const (
	SyntaxError            Kind = "SyntaxError"
	UnsupportedType        Kind = "UnsupportedType"
	UnsupportedNumSize     Kind = "UnsupportedNumSize"
	UnsupportedMessageType Kind = "UnsupportedMessageType"
	UnexpectedExpression   Kind = "UnexpectedExpression"
	InvalidFunctionType    Kind = "InvalidFunctionType"
	ConstructorNotFound    Kind = "ConstructorNotFound"
	InvalidModifier        Kind = "InvalidModifier"
	NotStateVariable       Kind = "NotStateVariable"
	InvalidMapping         Kind = "InvalidMapping"
	MappingInit            Kind = "MappingInit"
	LinearizationFailed    Kind = "LinearizationFailed"
	IOError                Kind = "IOError"
	FormatError            Kind = "FormatError"
)

var kindCodes = map[Kind]string{
	SyntaxError:            ErrorSyntax,
	UnsupportedType:        ErrorUnsupportedType,
	UnsupportedNumSize:     ErrorUnsupportedNumSize,
	UnsupportedMessageType: ErrorUnsupportedMessageType,
	UnexpectedExpression:   ErrorUnexpectedExpression,
	InvalidFunctionType:    ErrorInvalidFunctionType,
	ConstructorNotFound:    ErrorConstructorNotFound,
	InvalidModifier:        ErrorInvalidModifier,
	NotStateVariable:       ErrorNotStateVariable,
	InvalidMapping:         ErrorInvalidMapping,
	MappingInit:            ErrorMappingInit,
	LinearizationFailed:    ErrorLinearization,
	IOError:                ErrorIO,
	FormatError:            ErrorFormat,
}

// CompileError is the single terminal failure value of a compilation.
type CompileError struct {
	Kind     Kind
	Code     string         // Error code like E0100
	Message  string         // Primary error message
	Position lexer.Position // Location in source, zero when unknown
	Length   int            // Length of the offending region
	Notes    []string
	HelpText string
	Cause    error
}

func (e *CompileError) Error() string {
	if e.Position.Line > 0 {
		if e.Position.Filename != "" {
			return fmt.Sprintf("%s:%d:%d: %s: %s", e.Position.Filename, e.Position.Line, e.Position.Column, e.Kind, e.Message)
		}
		return fmt.Sprintf("%d:%d: %s: %s", e.Position.Line, e.Position.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// HasPosition reports whether the error points into the source.
func (e *CompileError) HasPosition() bool {
	return e.Position.Line > 0
}

// WithNote adds a note to the error
func (e *CompileError) WithNote(format string, args ...any) *CompileError {
	e.Notes = append(e.Notes, fmt.Sprintf(format, args...))
	return e
}

// WithHelp sets the help text of the error
func (e *CompileError) WithHelp(help string) *CompileError {
	e.HelpText = help
	return e
}

// WithLength sets the length of the error span
func (e *CompileError) WithLength(length int) *CompileError {
	e.Length = length
	return e
}

// At attaches a position when the error does not carry one yet.
func (e *CompileError) At(pos lexer.Position) *CompileError {
	if !e.HasPosition() {
		e.Position = pos
	}
	return e
}

// New creates a CompileError of the given kind.
func New(kind Kind, pos lexer.Position, format string, args ...any) *CompileError {
	return &CompileError{
		Kind:     kind,
		Code:     kindCodes[kind],
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
		Length:   1,
	}
}

// As returns the CompileError wrapped in err, if any.
func As(err error) (*CompileError, bool) {
	var ce *CompileError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsKind reports whether err is a CompileError of the given kind.
func IsKind(err error, kind Kind) bool {
	ce, ok := As(err)
	return ok && ce.Kind == kind
}

// Common constructors

func Syntax(pos lexer.Position, message string) *CompileError {
	return New(SyntaxError, pos, "%s", message)
}

func Unsupported(pos lexer.Position, construct string) *CompileError {
	return New(UnsupportedType, pos, "unsupported type: %s", construct).WithLength(len(construct))
}

func NumSize(pos lexer.Position, format string, args ...any) *CompileError {
	return New(UnsupportedNumSize, pos, format, args...).
		WithHelp("integer widths must be one of 8, 16, 32, 64, 128 or 256 bits")
}

func MessageType(pos lexer.Position, what string) *CompileError {
	return New(UnsupportedMessageType, pos, "unsupported message type: %s", what)
}

func Unexpected(pos lexer.Position, expected, actual string) *CompileError {
	return New(UnexpectedExpression, pos, "expected %s, found %s", expected, actual)
}

func InvalidFunction(pos lexer.Position, format string, args ...any) *CompileError {
	return New(InvalidFunctionType, pos, format, args...)
}

func MissingConstructor(pos lexer.Position, contract string) *CompileError {
	return New(ConstructorNotFound, pos, "constructor of '%s' not found", contract).
		WithNote("arguments were supplied for a base contract that declares no constructor")
}

func Modifier(pos lexer.Position, name string, implementations int) *CompileError {
	if implementations == 0 {
		return New(InvalidModifier, pos, "modifier '%s' has no implementation", name).WithLength(len(name))
	}
	return New(InvalidModifier, pos, "modifier '%s' has %d implementations in the inheritance chain", name, implementations).
		WithLength(len(name)).
		WithHelp("overriding modifiers is not supported; keep a single definition")
}

func NotState(pos lexer.Position, name string) *CompileError {
	return New(NotStateVariable, pos, "'%s' is not a local or state variable", name).WithLength(len(name))
}

func Mapping(pos lexer.Position, format string, args ...any) *CompileError {
	return New(InvalidMapping, pos, format, args...)
}

func MappingInitialized(pos lexer.Position, name string) *CompileError {
	return New(MappingInit, pos, "mapping '%s' cannot be initialized", name).
		WithLength(len(name)).
		WithHelp("remove the initializer; mappings start empty and read as the zero value")
}

func Linearization(contract string, cause error) *CompileError {
	e := New(LinearizationFailed, lexer.Position{}, "cannot linearize '%s': %s", contract, cause)
	e.Cause = cause
	return e
}

func IO(path string, cause error) *CompileError {
	e := New(IOError, lexer.Position{Filename: path}, "%s: %s", path, cause)
	e.Cause = cause
	return e
}

func Format(cause error, output string) *CompileError {
	e := New(FormatError, lexer.Position{}, "formatter failed: %s", cause)
	e.Cause = cause
	if output != "" {
		e.WithNote("%s", output)
	}
	return e
}
