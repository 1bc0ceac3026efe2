package lsp

import (
	"context"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"sol2rs/internal/backend"
	"sol2rs/internal/compiler"
	"sol2rs/internal/errors"
)

// Diagnose compiles source for kind and reports the first failure. A
// source that compiles yields an empty list, which clears stale markers.
func Diagnose(path, source string, kind backend.Kind) []protocol.Diagnostic {
	_, err := compiler.CompileWith(context.Background(), path, source, kind, compiler.Options{})
	if err == nil {
		return []protocol.Diagnostic{}
	}
	return []protocol.Diagnostic{ConvertError(err)}
}

// ConvertError maps a compile error onto a diagnostic. Errors without a
// position mark the start of the document.
func ConvertError(err error) protocol.Diagnostic {
	d := protocol.Diagnostic{
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("sol2rs"),
		Message:  err.Error(),
	}
	ce, ok := errors.As(err)
	if !ok {
		return d
	}

	d.Code = &protocol.IntegerOrString{Value: ce.Code}
	d.Message = ce.Message
	var extra []string
	extra = append(extra, ce.Notes...)
	if ce.HelpText != "" {
		extra = append(extra, "help: "+ce.HelpText)
	}
	if len(extra) > 0 {
		d.Message += "\n" + strings.Join(extra, "\n")
	}

	if ce.HasPosition() {
		line := uint32(ce.Position.Line - 1)
		start := uint32(max(ce.Position.Column-1, 0))
		d.Range = protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: start + uint32(max(ce.Length, 1))},
		}
	}
	return d
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
