package ir

import (
	"strings"

	"github.com/iancoleman/strcase"
)

var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "box": true, "break": true,
	"const": true, "continue": true, "crate": true, "dyn": true, "else": true,
	"enum": true, "extern": true, "false": true, "fn": true, "for": true,
	"if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "priv": true,
	"pub": true, "ref": true, "return": true, "static": true, "struct": true,
	"trait": true, "true": true, "type": true, "typeof": true, "unsafe": true,
	"use": true, "where": true, "while": true, "yield": true, "abstract": true,
	"become": true, "do": true, "final": true, "macro": true, "override": true,
	"try": true, "unsized": true, "virtual": true,
}

// reserved identifiers that cannot be raw identifiers
var rustReserved = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true,
}

// Ident converts a Solidity name to a snake_case Rust identifier.
func Ident(name string) string {
	rest := strings.TrimLeft(name, "_")
	lead := len(name) - len(rest)
	snake := rest
	if !isSnake(rest) {
		snake = strcase.ToSnake(rest)
	}
	if snake == "" {
		return name
	}
	snake = strings.Repeat("_", lead) + snake
	if rustReserved[snake] {
		return snake + "_"
	}
	if rustKeywords[snake] {
		return "r#" + snake
	}
	return snake
}

// ConstIdent converts a Solidity constant name to SCREAMING_SNAKE_CASE.
func ConstIdent(name string) string {
	return strcase.ToScreamingSnake(strings.TrimLeft(name, "_"))
}

// isSnake reports whether name is already lower snake case; strcase would
// split digits off ("arg0" to "arg_0").
func isSnake(name string) bool {
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// isCamel reports whether name is already UpperCamelCase. Acronyms survive
// as written: IERC20 stays IERC20.
func isCamel(name string) bool {
	if name == "" || name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// TypeIdent converts a name to UpperCamelCase for types and variants.
func TypeIdent(name string) string {
	camel := name
	if !isCamel(name) {
		camel = strcase.ToCamel(name)
	}
	if camel == "" {
		return "Unnamed"
	}
	if c := camel[0]; c >= '0' && c <= '9' {
		camel = "E" + camel
	}
	if rustReserved[camel] {
		return camel + "_"
	}
	return camel
}
