// Package ink lowers contracts to ink! smart contracts: a storage struct in
// an `#[ink::contract]` module, messages with Solidity selectors, and
// cross-contract calls through `ink::contract_ref!`.
package ink

import (
	"github.com/tliron/commonlog"

	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

var log = commonlog.GetLogger("sol2rs.ink")

// Flavor is the ink! major version generated for.
type Flavor int

const (
	// V5 targets pallet-contracts: AccountId addresses, u128 balances.
	V5 Flavor = iota
	// V6 targets pallet-revive: H160 addresses, U256 balances.
	V6
)

type Backend struct {
	flavor Flavor
}

var _ lower.Backend = (*Backend)(nil)

func New(flavor Flavor) *Backend {
	return &Backend{flavor: flavor}
}

func (b *Backend) Name() string {
	if b.flavor == V6 {
		return "ink-v6"
	}
	return "ink"
}

func (b *Backend) addressType() string {
	if b.flavor == V6 {
		return "H160"
	}
	return "AccountId"
}

// useU256 imports the 256-bit integer type.
func (b *Backend) useU256(ctx *lower.Context) {
	if b.flavor == V6 {
		ctx.Use("ink::U256")
		return
	}
	ctx.Use("primitive_types::U256")
}

// Assemble lays out the crate: interface traits at the top level, then the
// contract module holding types, events, errors, storage and the impl.
func (b *Backend) Assemble(ctx *lower.Context, m *lower.Module) (*rust.File, error) {
	f := &rust.File{InnerAttrs: []string{`cfg_attr(not(feature = "std"), no_std, no_main)`}}

	var inner []rust.Item
	if len(m.Interfaces) > 0 {
		for _, path := range b.interfaceImports(ctx) {
			f.Items = append(f.Items, &rust.Use{Path: path})
		}
		f.Items = append(f.Items, m.Interfaces...)
		inner = append(inner, &rust.Use{Path: "super::*"})
	}
	for _, path := range ctx.Imports() {
		inner = append(inner, &rust.Use{Path: path})
	}

	inner = append(inner, m.Types...)
	inner = append(inner, m.Events...)
	inner = append(inner, m.Errors...)
	inner = append(inner, m.Storage...)

	storage := ir.TypeIdent(m.Contract.Name)
	fns := append(append([]*rust.Fn(nil), m.Entry...), m.Helpers...)
	inner = append(inner, &rust.Impl{Type: storage, Fns: fns})

	f.Items = append(f.Items, &rust.Module{
		Attrs: []string{"ink::contract"},
		Name:  m.Name,
		Items: inner,
	})
	log.Debugf("assembled %s: %d messages, %d helpers", m.Name, len(m.Entry), len(m.Helpers))
	return f, nil
}

// interfaceImports are the crate-level imports the trait definitions need.
// The contract module sees them through `use super::*`.
func (b *Backend) interfaceImports(ctx *lower.Context) []string {
	var out []string
	if b.flavor == V6 {
		out = append(out, "ink::H160")
	} else {
		out = append(out, "ink::primitives::AccountId")
	}
	for _, path := range ctx.Imports() {
		if path == "primitive_types::U256" || path == "ink::U256" || path == "ink::prelude::string::String" || path == "ink::prelude::vec::Vec" {
			out = append(out, path)
		}
	}
	return out
}
