package ink

import (
	"fmt"
	"strings"

	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

// ErrorItems declares the contract error: one Revert variant carrying the
// registry code and message, and a variant per custom error.
func (b *Backend) ErrorItems(ctx *lower.Context, entries []*ir.ErrorEntry) ([]rust.Item, error) {
	ctx.Use("ink::prelude::string::String")
	e := &rust.Enum{
		Attrs: []string{"derive(Debug, PartialEq, Eq)", "ink::scale_derive(Encode, Decode, TypeInfo)"},
		Name:  "Error",
		Variants: []*rust.Variant{{
			Name: "Revert",
			Fields: []*rust.Field{
				{Name: "code", Type: "u32"},
				{Name: "message", Type: "String"},
			},
		}},
	}
	for _, entry := range entries {
		if entry.Custom == nil {
			continue
		}
		v := &rust.Variant{Name: ir.TypeIdent(entry.Custom.Name)}
		for _, f := range entry.Custom.Fields {
			t, err := b.Type(ctx, f.Type)
			if err != nil {
				return nil, err
			}
			v.Tuple = append(v.Tuple, t)
		}
		e.Variants = append(e.Variants, v)
	}
	return []rust.Item{
		e,
		&rust.TypeAlias{Name: "Result<T>", Type: "core::result::Result<T, Error>"},
	}, nil
}

func (b *Backend) Revert(ctx *lower.Context, entry *ir.ErrorEntry, args []rust.Expr) (rust.Expr, error) {
	if entry.Custom != nil {
		name := "Error::" + ir.TypeIdent(entry.Custom.Name)
		if len(args) == 0 {
			return rust.Id(name), nil
		}
		return rust.C(name, args...), nil
	}
	return &rust.StructLit{Name: "Error::Revert", Fields: []*rust.FieldInit{
		{Name: "code", Value: rust.L(fmt.Sprintf("%d", entry.Code))},
		{Name: "message", Value: b.StringLiteral(ctx, entry.Message)},
	}}, nil
}

func (b *Backend) ResultType(ret string) string {
	return "Result<" + ret + ">"
}

// InterfaceItems declares a `#[ink::trait_definition]` trait whose messages
// carry the Solidity selectors of the interface.
func (b *Backend) InterfaceItems(ctx *lower.Context, iface *ir.Contract) ([]rust.Item, error) {
	trait := &rust.Trait{Attrs: []string{"ink::trait_definition"}, Name: ir.TypeIdent(iface.Name)}
	for _, f := range iface.Dispatch {
		params := make([]*rust.Param, len(f.Params))
		for i, p := range f.Params {
			t, err := b.Type(ctx, p.Type)
			if err != nil {
				return nil, err
			}
			name := ir.Ident(p.Name)
			if p.Name == "" {
				name = fmt.Sprintf("_arg%d", i)
			}
			params[i] = &rust.Param{Name: name, Type: t}
		}
		ret, err := b.Type(ctx, f.ReturnType())
		if err != nil {
			return nil, err
		}
		recv := "&self"
		if f.Mutability.Mutates() {
			recv = "&mut self"
		}
		trait.Fns = append(trait.Fns, &rust.Fn{
			Attrs:    []string{b.messageAttr(f.Mutability == ir.Payable, selectorAttr(Selector(f.SolidityName, f.Params)))},
			Name:     f.Name,
			Receiver: recv,
			Params:   params,
			Ret:      ret,
		})
	}
	return []rust.Item{trait}, nil
}

func (b *Backend) ExternalRef(ctx *lower.Context, iface *ir.Contract, addr rust.Expr) (rust.Expr, string, error) {
	return rust.M(addr, "into"), fmt.Sprintf("ink::contract_ref!(%s)", ir.TypeIdent(iface.Name)), nil
}

func (b *Backend) ExternalCall(ctx *lower.Context, iface *ir.Contract, method *ir.Function, ref rust.Expr, args []rust.Expr) (rust.Expr, error) {
	return rust.M(ref, method.Name, args...), nil
}

func (b *Backend) messageAttr(payable bool, selector string) string {
	parts := []string{"message"}
	if payable {
		parts = append(parts, "payable")
	}
	parts = append(parts, selector)
	return "ink(" + strings.Join(parts, ", ") + ")"
}

// Signature builds a method of the storage struct. Messages are public and
// carry a selector; fallback and receive share the wildcard selector.
func (b *Backend) Signature(ctx *lower.Context, sig *lower.Signature) (*rust.Fn, error) {
	fn := &rust.Fn{
		Name:     sig.Name,
		Receiver: "&self",
		Params:   sig.Params,
		Ret:      b.ResultType(sig.Ret),
	}
	if sig.Mutates {
		fn.Receiver = "&mut self"
	}
	if !sig.Exposed() || sig.Function == nil {
		return fn, nil
	}

	f := sig.Function
	fn.Pub = true
	selector := selectorAttr(Selector(f.SolidityName, f.Params))
	switch f.Kind {
	case ir.FunctionKindFallback:
		selector = "selector = _"
	case ir.FunctionKindReceive:
		if ctx.Contract.Lookup("fallback", 0) != nil {
			log.Warningf("%s: receive and fallback cannot both take the wildcard selector; receive keeps its own", ctx.Contract.Name)
		} else {
			selector = "selector = _"
		}
	}
	fn.Attrs = []string{b.messageAttr(sig.Payable, selector)}
	return fn, nil
}

func (b *Backend) Preamble(ctx *lower.Context, sig *lower.Signature) []rust.Stmt {
	return nil
}

func (b *Backend) Call(ctx *lower.Context, callee *lower.Signature, args []rust.Expr) rust.Expr {
	return rust.M(rust.Id("self"), callee.Name, args...)
}

// Constructor emits `new`, which starts from the default storage and runs
// the init helper.
func (b *Backend) Constructor(ctx *lower.Context, init *lower.Signature) ([]*rust.Fn, error) {
	attr := "ink(constructor)"
	if ctor := ctx.Contract.Constructor; ctor != nil && ctor.Mutability == ir.Payable {
		attr = "ink(constructor, payable)"
	}
	if init == nil {
		return []*rust.Fn{{
			Attrs: []string{attr},
			Pub:   true,
			Name:  "new",
			Ret:   "Self",
			Body:  &rust.Block{Tail: rust.L("Self::default()")},
		}}, nil
	}

	params := make([]*rust.Param, len(init.Params))
	args := make([]rust.Expr, len(init.Params))
	for i, p := range init.Params {
		name := strings.TrimPrefix(p.Name, "mut ")
		params[i] = &rust.Param{Name: name, Type: p.Type}
		args[i] = rust.Id(name)
	}
	return []*rust.Fn{{
		Attrs:  []string{attr},
		Pub:    true,
		Name:   "new",
		Params: params,
		Ret:    b.ResultType("Self"),
		Body: &rust.Block{
			Stmts: []rust.Stmt{
				&rust.Let{Mut: true, Name: "contract", Value: rust.L("Self::default()")},
				&rust.ExprStmt{X: &rust.Try{X: rust.M(rust.Id("contract"), init.Name, args...)}},
			},
			Tail: rust.C("Ok", rust.Id("contract")),
		},
	}}, nil
}
