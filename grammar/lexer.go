package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var SolidityLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Whitespace and comments are elided by the parser
		{"Whitespace", `[ \t\r\n]+`, nil},
		{"Comment", `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`, nil},

		// Pragmas are kept whole, their contents are not interpreted
		{"Pragma", `pragma\b[^;]*;`, nil},

		// String literals, both quote styles
		{"String", `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`, nil},

		// Hex, decimal and scientific number literals
		{"Number", `0[xX][0-9a-fA-F_]+|[0-9][0-9_]*(\.[0-9_]+)?([eE][0-9]+)?`, nil},

		// Keywords and identifiers (keywords are matched as literals in the grammar)
		{"Ident", `[a-zA-Z_$][a-zA-Z0-9_$]*`, nil},

		// Operators, longest first
		{"Operator", `\*\*|=>|==|!=|<=|>=|&&|\|\||\+\+|--|\+=|-=|\*=|/=|%=|\|=|&=|\^=|<<|>>|[-+*/%!~^&|<>=?:]`, nil},

		// Punctuation
		{"Punctuation", `[{}\[\]().,;]`, nil},
	},
})
