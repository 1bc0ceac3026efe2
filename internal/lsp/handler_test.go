package lsp_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"sol2rs/internal/backend"
	"sol2rs/internal/lsp"
)

const uri = "file:///project/Counter.sol"

const counter = `pragma solidity ^0.8.0;

contract Counter {
    uint256 public count;

    function increment(uint256 by) public {
        count += by;
    }
}
`

type recorder struct {
	published []*protocol.PublishDiagnosticsParams
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{Notify: func(method string, params any) {
		if method == protocol.ServerTextDocumentPublishDiagnostics {
			r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
		}
	}}
}

func (r *recorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()
	require.NotEmpty(t, r.published)
	return r.published[len(r.published)-1]
}

func open(t *testing.T, h *lsp.Handler, ctx *glsp.Context, text string) {
	t.Helper()
	require.NoError(t, h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, LanguageID: "solidity", Version: 1, Text: text},
	}))
}

func TestDiagnosticsFollowEdits(t *testing.T) {
	h := lsp.NewHandler(backend.Ink)
	rec := &recorder{}
	ctx := rec.context()

	open(t, h, ctx, counter)
	assert.Equal(t, uri, rec.last(t).URI)
	assert.Empty(t, rec.last(t).Diagnostics)

	broken := "contract Counter {\n    uint256 count\n}\n"
	require.NoError(t, h.TextDocumentDidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: broken}},
	}))
	diags := rec.last(t).Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, "sol2rs", *diags[0].Source)
	require.NotNil(t, diags[0].Code)
	assert.Equal(t, "E0100", diags[0].Code.Value)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)

	require.NoError(t, h.TextDocumentDidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	assert.Empty(t, rec.last(t).Diagnostics)
}

func TestBackendSpecificDiagnostics(t *testing.T) {
	src := `
contract Payable {
    uint256 received;
    function pay() public payable { received = msg.value; }
}
`
	assert.Empty(t, lsp.Diagnose("p.sol", src, backend.Ink))

	diags := lsp.Diagnose("p.sol", src, backend.Soroban)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "msg.value")
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	h := lsp.NewHandler(backend.Ink)
	rec := &recorder{}
	open(t, h, rec.context(), counter)

	tokens, err := h.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)
	require.Len(t, decoded, 10)

	assertToken(t, &decoded[0], 1, 1, 6, "keyword", nil)
	assertToken(t, &decoded[1], 3, 1, 8, "keyword", nil)
	assertToken(t, &decoded[2], 3, 10, 7, "type", []string{"declaration"})
	assertToken(t, &decoded[3], 4, 5, 7, "type", nil)
	assertToken(t, &decoded[4], 4, 13, 6, "modifier", nil)
	assertToken(t, &decoded[5], 6, 5, 8, "keyword", nil)
	assertToken(t, &decoded[6], 6, 14, 9, "function", []string{"declaration"})
	assertToken(t, &decoded[7], 6, 24, 7, "type", nil)
	assertToken(t, &decoded[8], 6, 36, 6, "modifier", nil)
	assertToken(t, &decoded[9], 7, 15, 2, "operator", nil)
}

func TestSemanticTokensNeedOpenDocument(t *testing.T) {
	h := lsp.NewHandler(backend.Ink)
	_, err := h.TextDocumentSemanticTokensFull(&glsp.Context{}, &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nowhere.sol"},
	})
	assert.Error(t, err)
}

type DecodedToken struct {
	Index     int
	Line      uint32
	Char      uint32
	Length    uint32
	Type      string
	Modifiers []string
}

func decodeSemanticTokens(raw []uint32) ([]DecodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}

	var (
		decoded []DecodedToken
		line    uint32
		char    uint32
	)

	for i := 0; i < len(raw); i += 5 {
		deltaLine := raw[i]
		deltaStart := raw[i+1]

		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}

		var modifiers []string
		for j, name := range lsp.SemanticTokenModifiers {
			if raw[i+4]&(1<<j) != 0 {
				modifiers = append(modifiers, name)
			}
		}

		decoded = append(decoded, DecodedToken{
			Index:     i / 5,
			Line:      line + 1,
			Char:      char + 1,
			Length:    raw[i+2],
			Type:      lsp.SemanticTokenTypes[raw[i+3]],
			Modifiers: modifiers,
		})
	}

	return decoded, nil
}

func assertToken(t *testing.T, token *DecodedToken, expectedLine, expectedChar, expectedLength uint32, expectedType string, expectedModifiers []string) {
	require.Equal(t, expectedLine, token.Line, "line mismatch (expected line %d)", expectedLine)
	require.Equal(t, expectedChar, token.Char, "char mismatch (expected char %d)", expectedChar)
	require.Equal(t, expectedLength, token.Length, "length mismatch")
	require.Equal(t, expectedType, token.Type, "type mismatch")
	require.ElementsMatch(t, expectedModifiers, token.Modifiers, "modifiers mismatch")
}
