package errors

import (
	"fmt"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestReporterFormat(t *testing.T) {
	source := `contract Test {
    mapping(address => uint256) balances = 1;
    function f() public {}
}`

	reporter := NewReporter("test.sol", source)

	err := MappingInitialized(lexer.Position{Line: 2, Column: 33}, "balances")
	formatted := reporter.Format(err)

	assert.Contains(t, formatted, "error["+ErrorMappingInit+"]")
	assert.Contains(t, formatted, "mapping 'balances' cannot be initialized")
	assert.Contains(t, formatted, "test.sol:2:33")
	assert.Contains(t, formatted, "mapping(address => uint256) balances = 1;")
	assert.Contains(t, formatted, "^^^^^^^^")
	assert.Contains(t, formatted, "help:")
}

func TestReporterWithoutPosition(t *testing.T) {
	reporter := NewReporter("a.sol", "contract A {}")

	formatted := reporter.Report(Linearization("A", fmt.Errorf("cycle through B")))
	assert.Contains(t, formatted, "error["+ErrorLinearization+"]")
	assert.Contains(t, formatted, "--> a.sol")
	assert.Contains(t, formatted, "cycle through B")
}

func TestReporterPlainError(t *testing.T) {
	reporter := NewReporter("a.sol", "")
	formatted := reporter.Report(fmt.Errorf("boom"))
	assert.Equal(t, "error: boom\n\n", formatted)
}

func TestKindsCarryCodes(t *testing.T) {
	pos := lexer.Position{Line: 1, Column: 1}
	cases := []struct {
		err  *CompileError
		kind Kind
		code string
	}{
		{Syntax(pos, "unexpected token"), SyntaxError, ErrorSyntax},
		{Unsupported(pos, "fixed128x18"), UnsupportedType, ErrorUnsupportedType},
		{NumSize(pos, "uint%d", 24), UnsupportedNumSize, ErrorUnsupportedNumSize},
		{MessageType(pos, "msg.value"), UnsupportedMessageType, ErrorUnsupportedMessageType},
		{Unexpected(pos, "type name", "call"), UnexpectedExpression, ErrorUnexpectedExpression},
		{InvalidFunction(pos, "bad"), InvalidFunctionType, ErrorInvalidFunctionType},
		{MissingConstructor(pos, "X"), ConstructorNotFound, ErrorConstructorNotFound},
		{Modifier(pos, "onlyOwner", 2), InvalidModifier, ErrorInvalidModifier},
		{NotState(pos, "x"), NotStateVariable, ErrorNotStateVariable},
		{Mapping(pos, "m"), InvalidMapping, ErrorInvalidMapping},
		{MappingInitialized(pos, "m"), MappingInit, ErrorMappingInit},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind)
		assert.Equal(t, tc.code, tc.err.Code)
		assert.NotEqual(t, "Unknown error", GetErrorDescription(tc.err.Code))
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	inner := NotState(lexer.Position{Line: 3, Column: 9}, "total")
	wrapped := fmt.Errorf("lowering f: %w", inner)

	ce, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, ce)
	assert.True(t, IsKind(wrapped, NotStateVariable))
	assert.False(t, IsKind(wrapped, MappingInit))
	assert.Equal(t, "3:9: NotStateVariable: 'total' is not a local or state variable", inner.Error())
}

func TestAtKeepsExistingPosition(t *testing.T) {
	err := Unsupported(lexer.Position{Line: 4, Column: 2}, "x")
	err.At(lexer.Position{Line: 9, Column: 9})
	assert.Equal(t, 4, err.Position.Line)

	err = Unsupported(lexer.Position{}, "x").At(lexer.Position{Line: 9, Column: 1})
	assert.Equal(t, 9, err.Position.Line)
}
