package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tliron/commonlog"

	"sol2rs/internal/errors"
)

var log = commonlog.GetLogger("sol2rs.grammar")

var parser = participle.MustBuild[SourceUnit](
	participle.Lexer(SolidityLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(participle.MaxLookahead),
)

// ParseFile reads and parses a Solidity source file.
func ParseFile(path string) (*SourceUnit, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(path, fmt.Errorf("failed to read file: %w", err))
	}
	return ParseSource(path, string(source))
}

// ParseSource parses Solidity source text. Malformed input yields a
// SyntaxError CompileError positioned at the offending token.
func ParseSource(filename, source string) (*SourceUnit, error) {
	log.Debugf("parsing %s (%d bytes)", filename, len(source))

	unit, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, syntaxError(err)
	}
	return unit, nil
}

// syntaxError converts participle failures into positioned compile errors.
func syntaxError(err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return errors.Syntax(lexer.Position{}, err.Error())
	}
	ce := errors.Syntax(pe.Position(), pe.Message())
	ce.Cause = err
	return ce
}

// EBNF returns the grammar accepted by the parser, for documentation.
func EBNF() string {
	return parser.String()
}
