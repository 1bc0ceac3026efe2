package errors

// Error codes for the sol2rs compiler.
// Every CompileError carries one of these codes so diagnostics can be
// matched across the CLI, the language server and the documentation.
//
// Error code ranges:
// E0100-E0199: Parser errors
// E0200-E0299: Type mapping errors
// E0300-E0399: Expression and statement lowering errors
// E0400-E0499: Contract structure and inheritance errors
// E0500-E0599: Storage errors
// E0900-E0999: Tooling errors (I/O, formatter)

const (
	// E0100: Malformed Solidity source
	ErrorSyntax = "E0100"

	// E0200: Solidity construct with no target mapping
	ErrorUnsupportedType = "E0200"

	// E0201: Integer width or literal that does not fit a target integer
	ErrorUnsupportedNumSize = "E0201"

	// E0202: Revert/require argument or environment access the target cannot express
	ErrorUnsupportedMessageType = "E0202"

	// E0300: Lowering expected one expression shape and found another
	ErrorUnexpectedExpression = "E0300"

	// E0400: Function used in a position its kind does not allow
	ErrorInvalidFunctionType = "E0400"

	// E0401: Base constructor referenced but not declared
	ErrorConstructorNotFound = "E0401"

	// E0402: Modifier that does not resolve to exactly one implementation
	ErrorInvalidModifier = "E0402"

	// E0403: No consistent C3 order for a contract
	ErrorLinearization = "E0403"

	// E0500: Identifier that is neither a local nor a storage field
	ErrorNotStateVariable = "E0500"

	// E0501: Mapping used with the wrong number of keys or as a value
	ErrorInvalidMapping = "E0501"

	// E0502: Mapping state variable with an inline initializer
	ErrorMappingInit = "E0502"

	// E0900: Reading sources or writing generated files failed
	ErrorIO = "E0900"

	// E0901: The external formatter rejected the generated code
	ErrorFormat = "E0901"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorSyntax:
		return "Source is not valid Solidity"
	case ErrorUnsupportedType:
		return "Solidity construct has no mapping in the selected backend"
	case ErrorUnsupportedNumSize:
		return "Integer width or literal value is not representable by the backend"
	case ErrorUnsupportedMessageType:
		return "Revert message or environment value is not supported"
	case ErrorUnexpectedExpression:
		return "Expression has a different shape than required here"
	case ErrorInvalidFunctionType:
		return "Function kind is not valid in this position"
	case ErrorConstructorNotFound:
		return "Base constructor is not declared"
	case ErrorInvalidModifier:
		return "Modifier must resolve to exactly one implementation"
	case ErrorLinearization:
		return "Inheritance graph has no consistent linearization"
	case ErrorNotStateVariable:
		return "Identifier is not a local variable or state variable"
	case ErrorInvalidMapping:
		return "Mapping accessed with the wrong shape"
	case ErrorMappingInit:
		return "Mapping state variables cannot be initialized"
	case ErrorIO:
		return "File could not be read or written"
	case ErrorFormat:
		return "Generated code could not be formatted"
	default:
		return "Unknown error"
	}
}
