// Package soroban lowers contracts to Soroban: a unit contract struct
// whose functions take the environment explicitly, storage behind a
// DataKey enum, and cross-contract calls through generated clients.
package soroban

import (
	"strings"

	"github.com/tliron/commonlog"

	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

var log = commonlog.GetLogger("sol2rs.soroban")

type Backend struct {
	// errorNames maps registry entries to their variant of the Error enum.
	errorNames map[*ir.ErrorEntry]string
}

var _ lower.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{errorNames: make(map[*ir.ErrorEntry]string)}
}

func (b *Backend) Name() string {
	return "soroban"
}

func (b *Backend) Assemble(ctx *lower.Context, m *lower.Module) (*rust.File, error) {
	ctx.Use("contract")
	ctx.Use("contractimpl")
	name := ir.TypeIdent(m.Contract.Name)

	f := &rust.File{InnerAttrs: []string{"no_std"}}
	f.Items = append(f.Items, &rust.Use{Path: "soroban_sdk::{" + strings.Join(ctx.Imports(), ", ") + "}"})
	f.Items = append(f.Items, m.Types...)
	f.Items = append(f.Items, m.Storage...)
	f.Items = append(f.Items, m.Errors...)
	f.Items = append(f.Items, m.Interfaces...)
	f.Items = append(f.Items, &rust.Struct{Attrs: []string{"contract"}, Name: name, Unit: true})
	f.Items = append(f.Items, &rust.Impl{Attrs: []string{"contractimpl"}, Type: name, Fns: m.Entry})
	if len(m.Helpers) > 0 {
		f.Items = append(f.Items, &rust.Impl{Type: name, Fns: m.Helpers})
	}
	log.Debugf("assembled %s: %d entry points, %d helpers", m.Name, len(m.Entry), len(m.Helpers))
	return f, nil
}

// env is the environment as a reference, valid whether the current
// function owns an Env or borrows one.
func env() rust.Expr {
	return rust.Ref(rust.Id("env"))
}
