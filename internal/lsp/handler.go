// Package lsp serves compile diagnostics and lexical highlighting for
// Solidity sources over the Language Server Protocol.
package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"sol2rs/internal/backend"
)

var log = commonlog.GetLogger("sol2rs.lsp")

// SemanticTokenTypes is the token type legend, indexed by SemanticToken.TokenType.
var SemanticTokenTypes = []string{
	"namespace",
	"type",
	"function",
	"variable",
	"parameter",
	"property",
	"keyword",
	"number",
	"string",
	"operator",
	"modifier",
	"event",
}

// SemanticTokenModifiers is the modifier legend; bit i of a token's mask
// selects entry i.
var SemanticTokenModifiers = []string{
	"declaration",
	"readonly",
	"abstract",
}

// Handler keeps the open documents and checks each one against a backend
// whenever it changes.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	backend backend.Kind
}

func NewHandler(kind backend.Kind) *Handler {
	return &Handler{
		content: make(map[string]string),
		backend: kind,
	}
}

// Initialize advertises full document sync and semantic tokens.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initialize")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name: "sol2rs",
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("checking documents against %s", h.backend)
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Info("shutdown")
	return nil
}

func (h *Handler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Debugf("opened %s", params.TextDocument.URI)
	return h.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange takes the last full-text change; the server only
// advertises full sync.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("changed %s", params.TextDocument.URI)

	var text string
	found := false
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text, found = c.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text, found = c.Text, true
			}
		}
	}
	if !found {
		return nil
	}
	return h.update(ctx, params.TextDocument.URI, text)
}

// TextDocumentDidClose forgets the document and clears its diagnostics.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Debugf("closed %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()

	publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

// TextDocumentSemanticTokensFull encodes the lexical tokens of an open
// document as relative line and column deltas.
func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	h.mu.RLock()
	source, ok := h.content[path]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("document %s is not open", params.TextDocument.URI)
	}

	data := []uint32{}
	var prevLine, prevStart uint32
	for _, token := range collectSemanticTokens(source) {
		deltaLine := token.Line - prevLine
		deltaStart := token.StartChar
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine, prevStart = token.Line, token.StartChar
	}
	return &protocol.SemanticTokens{Data: data}, nil
}

func (h *Handler) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	publish(ctx, uri, Diagnose(path, text, h.backend))
	return nil
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path

	// /C:/x -> C:/x
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func publish(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	log.Debugf("publishing %d diagnostics for %s", len(diagnostics), uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
