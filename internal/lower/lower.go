package lower

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tliron/commonlog"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

var log = commonlog.GetLogger("sol2rs.lower")

// Lower lowers the flattened contract c into a Rust file using backend.
func Lower(c *ir.Contract, backend Backend) (*rust.File, error) {
	if c.Kind != ir.KindContract {
		return nil, errors.Unexpected(c.Pos, "contract", string(c.Kind)+" "+c.Name)
	}
	ctx := NewContext(c, backend)
	m := &Module{Name: ir.Ident(c.Name), Contract: c}
	log.Debugf("lowering %s with %s", c.Name, backend.Name())

	for _, e := range c.VisibleEnums() {
		m.Types = append(m.Types, backend.EnumItem(ctx, e))
	}
	for _, s := range c.VisibleStructs() {
		item, err := backend.StructItem(ctx, s)
		if err != nil {
			return nil, err
		}
		m.Types = append(m.Types, item)
	}

	var err error
	if m.Storage, err = backend.StorageItems(ctx); err != nil {
		return nil, err
	}
	if m.Events, err = backend.EventItems(ctx, c.VisibleEvents()); err != nil {
		return nil, err
	}
	if m.Errors, err = backend.ErrorItems(ctx, c.Package().Context.Errors()); err != nil {
		return nil, err
	}

	entry, helpers, err := ctx.lowerConstructor()
	if err != nil {
		return nil, err
	}
	m.Entry = append(m.Entry, entry...)
	m.Helpers = append(m.Helpers, helpers...)

	for _, f := range c.Dispatch {
		sig, err := ctx.dispatchSignature(f)
		if err != nil {
			return nil, err
		}
		fn, err := ctx.lowerFunction(sig, f, f.Primary())
		if err != nil {
			return nil, err
		}
		if sig.Exposed() {
			m.Entry = append(m.Entry, fn)
		} else {
			m.Helpers = append(m.Helpers, fn)
		}
	}

	for p := ctx.next(); p != nil; p = ctx.next() {
		var sig *Signature
		if p.lib != nil {
			sig, err = ctx.librarySignature(p.fn, p.name)
		} else {
			sig, err = ctx.functionSignature(p.fn, p.impl, p.name, Helper)
		}
		if err != nil {
			return nil, err
		}
		fn, err := ctx.lowerFunction(sig, p.fn, p.impl)
		if err != nil {
			return nil, err
		}
		m.Helpers = append(m.Helpers, fn)
	}

	for _, iface := range c.Package().Interfaces {
		if !ctx.interfaces.Contains(iface.Name) {
			continue
		}
		items, err := backend.InterfaceItems(ctx, iface)
		if err != nil {
			return nil, err
		}
		m.Interfaces = append(m.Interfaces, items...)
	}

	return backend.Assemble(ctx, m)
}

// dispatchSignature describes an entry of the dispatch table under its
// own name.
func (c *Context) dispatchSignature(f *ir.Function) (*Signature, error) {
	kind := Helper
	switch {
	case f.Visibility.Exposed(), f.Kind == ir.FunctionKindGetter,
		f.Kind == ir.FunctionKindFallback, f.Kind == ir.FunctionKindReceive:
		kind = Message
	}
	return c.functionSignature(f, f.Primary(), f.Name, kind)
}

func (c *Context) functionSignature(f *ir.Function, impl *ir.Implementation, name string, kind SignatureKind) (*Signature, error) {
	params := f.Params
	if impl != nil && len(impl.Params) == len(f.Params) {
		params = impl.Params
	}
	rparams, err := c.params(params)
	if err != nil {
		return nil, err
	}
	ret, err := c.returnType(f.Returns)
	if err != nil {
		return nil, err
	}
	return &Signature{
		Name:     name,
		Kind:     kind,
		Function: f,
		Params:   rparams,
		Ret:      ret,
		Mutates:  f.Mutability.Mutates(),
		Caller:   c.Contract.NeedsCaller(f),
		Payable:  f.Mutability == ir.Payable,
	}, nil
}

func (c *Context) librarySignature(f *ir.Function, name string) (*Signature, error) {
	sig, err := c.functionSignature(f, f.Primary(), name, LibraryFn)
	if err != nil {
		return nil, err
	}
	sig.Mutates, sig.Caller, sig.Payable = false, false, false
	return sig, nil
}

// callSignature resolves the Rust function a call to impl of f reaches.
func (c *Context) callSignature(f *ir.Function, impl *ir.Implementation) (*Signature, error) {
	if impl == f.Primary() {
		return c.dispatchSignature(f)
	}
	return c.functionSignature(f, impl, c.implName(f, impl), Helper)
}

func (c *Context) params(params []*ir.Param) ([]*rust.Param, error) {
	out := make([]*rust.Param, len(params))
	for i, p := range params {
		t, err := c.Backend.Type(c, p.Type)
		if err != nil {
			return nil, err
		}
		out[i] = &rust.Param{Name: paramName(p, i), Type: t}
	}
	return out, nil
}

func paramName(p *ir.Param, i int) string {
	if p.Name == "" {
		return fmt.Sprintf("_arg%d", i)
	}
	return ir.Ident(p.Name)
}

func (c *Context) returnType(returns []*ir.Param) (string, error) {
	types := make([]string, len(returns))
	for i, r := range returns {
		t, err := c.Backend.Type(c, r.Type)
		if err != nil {
			return "", err
		}
		types[i] = t
	}
	switch len(types) {
	case 0:
		return "()", nil
	case 1:
		return types[0], nil
	}
	return "(" + strings.Join(types, ", ") + ")", nil
}

// lowerFunction emits sig with the body of impl, modifiers inlined.
func (c *Context) lowerFunction(sig *Signature, f *ir.Function, impl *ir.Implementation) (*rust.Fn, error) {
	if impl == nil || impl.Body == nil {
		return nil, errors.InvalidFunction(implPos(impl), "function '%s' has no body", f.SolidityName)
	}
	c.enter(f, sig)
	defer c.popScope()

	body, err := c.inlineModifiers(impl)
	if err != nil {
		return nil, err
	}
	c.mutated = mutatedLocals(body)

	params := impl.Params
	if len(params) != len(sig.Params) {
		params = f.Params
	}
	for i, p := range params {
		if p.Name == "" {
			continue
		}
		if c.Mutated(p.Name) {
			sig.Params[i] = &rust.Param{Name: "mut " + sig.Params[i].Name, Type: sig.Params[i].Type}
		}
		c.Declare(p.Name, ir.Ident(p.Name), p.Type)
	}

	fn, err := c.Backend.Signature(c, sig)
	if err != nil {
		return nil, err
	}

	stmts := c.Backend.Preamble(c, sig)
	named, err := c.declareReturns(impl.Returns)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, named...)

	lowered, err := c.lowerStmts(body.Stmts)
	if err != nil {
		return nil, err
	}
	fn.Body = &rust.Block{Stmts: append(stmts, lowered...)}
	if !ir.EndsInReturn(body) {
		value, err := c.defaultReturn()
		if err != nil {
			return nil, err
		}
		fn.Body.Tail = rust.C("Ok", value)
	}
	return fn, nil
}

// declareReturns declares named return variables initialized to zero.
func (c *Context) declareReturns(returns []*ir.Param) ([]rust.Stmt, error) {
	c.results = returns
	var stmts []rust.Stmt
	for _, r := range returns {
		if r.Name == "" {
			continue
		}
		t, err := c.Backend.Type(c, r.Type)
		if err != nil {
			return nil, err
		}
		zero, err := c.Backend.Zero(c, r.Type)
		if err != nil {
			return nil, err
		}
		name := ir.Ident(r.Name)
		stmts = append(stmts, &rust.Let{Mut: c.Mutated(r.Name), Name: name, Type: t, Value: zero})
		c.returns = append(c.returns, c.Declare(r.Name, name, r.Type))
	}
	return stmts, nil
}

// defaultReturn is the value a function returns when control reaches its
// end or a bare `return`: the named returns, or zero values.
func (c *Context) defaultReturn() (rust.Expr, error) {
	values := make([]rust.Expr, len(c.results))
	for i, r := range c.results {
		if r.Name != "" {
			l := c.Lookup(r.Name)
			values[i] = rust.Id(l.Name)
			continue
		}
		zero, err := c.Backend.Zero(c, r.Type)
		if err != nil {
			return nil, err
		}
		values[i] = zero
	}
	switch len(values) {
	case 0:
		return rust.L("()"), nil
	case 1:
		return values[0], nil
	}
	return &rust.Tuple{Elems: values}, nil
}

func implPos(impl *ir.Implementation) lexer.Position {
	if impl == nil {
		return lexer.Position{}
	}
	return impl.Pos
}
