package lsp

import (
	"regexp"
	"slices"
	"unicode/utf16"

	"github.com/alecthomas/participle/v2/lexer"

	"sol2rs/grammar"
)

// SemanticToken is one highlighted range. Line and StartChar are 0-based;
// TokenType indexes SemanticTokenTypes and TokenModifiers is a bitmask
// over SemanticTokenModifiers.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

var keywords = map[string]bool{
	"contract": true, "interface": true, "library": true, "abstract": true, "is": true,
	"function": true, "constructor": true, "modifier": true, "event": true, "error": true,
	"struct": true, "enum": true, "using": true, "for": true, "if": true, "else": true,
	"while": true, "do": true, "break": true, "continue": true, "return": true, "returns": true,
	"emit": true, "revert": true, "require": true, "new": true, "delete": true, "import": true,
	"unchecked": true, "true": true, "false": true, "fallback": true, "receive": true,
	"memory": true, "storage": true, "calldata": true, "indexed": true, "anonymous": true,
}

var modifiers = map[string]bool{
	"public": true, "private": true, "internal": true, "external": true,
	"view": true, "pure": true, "payable": true, "constant": true, "immutable": true,
	"virtual": true, "override": true,
}

var elementaryType = regexp.MustCompile(`^(u?int[0-9]*|address|bool|string|bytes[0-9]*|mapping)$`)

// what the identifier after a declaring keyword names
var declares = map[string]string{
	"contract":  "type",
	"interface": "type",
	"library":   "type",
	"struct":    "type",
	"enum":      "type",
	"function":  "function",
	"modifier":  "function",
	"event":     "event",
	"error":     "type",
}

// collectSemanticTokens classifies the lexical tokens of source. Comments
// and whitespace are skipped; lexing stops at the first invalid character.
func collectSemanticTokens(source string) []SemanticToken {
	lex, err := grammar.SolidityLexer.LexString("", source)
	if err != nil {
		return nil
	}
	symbols := lexer.SymbolsByRune(grammar.SolidityLexer)

	var tokens []SemanticToken
	pending := ""
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			break
		}
		switch symbols[tok.Type] {
		case "Ident":
			typ, mods := classify(tok.Value, pending)
			pending = ""
			if kind, ok := declares[tok.Value]; ok {
				pending = kind
			}
			if typ != "" {
				tokens = append(tokens, makeToken(tok.Pos, tok.Value, typ, mods))
			}
		case "Pragma":
			tokens = append(tokens, makeToken(tok.Pos, "pragma", "keyword", 0))
		case "Number":
			tokens = append(tokens, makeToken(tok.Pos, tok.Value, "number", 0))
		case "String":
			tokens = append(tokens, makeToken(tok.Pos, tok.Value, "string", 0))
		case "Operator":
			pending = ""
			tokens = append(tokens, makeToken(tok.Pos, tok.Value, "operator", 0))
		case "Punctuation":
			pending = ""
		}
	}
	return tokens
}

func classify(word, pending string) (string, int) {
	switch {
	case pending != "":
		return pending, modifierMask("declaration")
	case keywords[word]:
		return "keyword", 0
	case modifiers[word]:
		return "modifier", 0
	case elementaryType.MatchString(word):
		return "type", 0
	}
	return "", 0
}

func makeToken(pos lexer.Position, text, typ string, mods int) SemanticToken {
	return SemanticToken{
		Line:           uint32(pos.Line - 1),
		StartChar:      uint32(pos.Column - 1),
		Length:         uint32(len(utf16.Encode([]rune(text)))),
		TokenType:      slices.Index(SemanticTokenTypes, typ),
		TokenModifiers: mods,
	}
}

func modifierMask(names ...string) int {
	mask := 0
	for _, name := range names {
		if i := slices.Index(SemanticTokenModifiers, name); i >= 0 {
			mask |= 1 << i
		}
	}
	return mask
}
