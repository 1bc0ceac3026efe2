package soroban

import (
	"fmt"
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"

	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

// ErrorItems declares the contract error enum. Message entries are named
// after their message, custom errors after their declaration; codes are
// the registry codes.
func (b *Backend) ErrorItems(ctx *lower.Context, entries []*ir.ErrorEntry) ([]rust.Item, error) {
	ctx.Use("contracterror")
	e := &rust.Enum{
		Attrs: []string{"contracterror", "derive(Copy, Clone, Debug, Eq, PartialEq, PartialOrd, Ord)", "repr(u32)"},
		Name:  "Error",
	}
	taken := mapset.NewThreadUnsafeSet[string]()
	for _, entry := range entries {
		name := errorName(entry)
		if name == "" || taken.Contains(name) {
			name = fmt.Sprintf("Code%d", entry.Code)
		}
		taken.Add(name)
		b.errorNames[entry] = name
		e.Variants = append(e.Variants, &rust.Variant{Name: name, Discriminant: fmt.Sprintf("%d", entry.Code)})
	}
	if len(e.Variants) == 0 {
		e.Variants = append(e.Variants, &rust.Variant{Name: "Unknown", Discriminant: "0"})
	}
	return []rust.Item{e}, nil
}

func errorName(entry *ir.ErrorEntry) string {
	if entry.Custom != nil {
		return ir.TypeIdent(entry.Custom.Name)
	}
	clean := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return ' '
	}, entry.Message)
	if strings.TrimSpace(clean) == "" {
		return ""
	}
	return ir.TypeIdent(strings.ToLower(clean))
}

// Revert returns the error variant. Custom error arguments have no place in
// a contracterror and are dropped.
func (b *Backend) Revert(ctx *lower.Context, entry *ir.ErrorEntry, args []rust.Expr) (rust.Expr, error) {
	name, ok := b.errorNames[entry]
	if !ok {
		name = fmt.Sprintf("Code%d", entry.Code)
	}
	if len(args) > 0 {
		log.Warningf("%s: arguments of error %s are dropped", ctx.Contract.Name, name)
	}
	return rust.Id("Error::" + name), nil
}

func (b *Backend) ResultType(ret string) string {
	return "Result<" + ret + ", Error>"
}

// InterfaceItems declares a `#[contractclient]` trait; callers use the
// generated <Name>Client.
func (b *Backend) InterfaceItems(ctx *lower.Context, iface *ir.Contract) ([]rust.Item, error) {
	ctx.Use("contractclient")
	ctx.Use("Env")
	name := ir.TypeIdent(iface.Name)
	trait := &rust.Trait{
		Attrs: []string{fmt.Sprintf("contractclient(name = %q)", name+"Client")},
		Name:  name,
	}
	for _, f := range iface.Dispatch {
		params := []*rust.Param{{Name: "env", Type: "Env"}}
		for i, p := range f.Params {
			t, err := b.Type(ctx, p.Type)
			if err != nil {
				return nil, err
			}
			pname := ir.Ident(p.Name)
			if p.Name == "" {
				pname = fmt.Sprintf("_arg%d", i)
			}
			params = append(params, &rust.Param{Name: pname, Type: t})
		}
		ret, err := b.Type(ctx, f.ReturnType())
		if err != nil {
			return nil, err
		}
		trait.Fns = append(trait.Fns, &rust.Fn{Name: f.Name, Params: params, Ret: ret})
	}
	return []rust.Item{trait}, nil
}

func (b *Backend) ExternalRef(ctx *lower.Context, iface *ir.Contract, addr rust.Expr) (rust.Expr, string, error) {
	client := ir.TypeIdent(iface.Name) + "Client::new"
	return &rust.Call{Fn: rust.Id(client), Args: []rust.Expr{env(), borrow(addr)}}, "", nil
}

// ExternalCall passes every argument by reference, as generated clients
// expect.
func (b *Backend) ExternalCall(ctx *lower.Context, iface *ir.Contract, method *ir.Function, ref rust.Expr, args []rust.Expr) (rust.Expr, error) {
	refs := make([]rust.Expr, len(args))
	for i, a := range args {
		refs[i] = borrow(a)
	}
	return rust.M(ref, method.Name, refs...), nil
}

// Signature threads the environment first and the caller second. Entry
// points own their Env; helpers borrow it.
func (b *Backend) Signature(ctx *lower.Context, sig *lower.Signature) (*rust.Fn, error) {
	ctx.Use("Env")
	fn := &rust.Fn{Name: sig.Name, Ret: b.ResultType(sig.Ret)}
	if sig.Exposed() {
		fn.Pub = true
		fn.Params = append(fn.Params, &rust.Param{Name: "env", Type: "Env"})
	} else {
		fn.Params = append(fn.Params, &rust.Param{Name: "env", Type: "&Env"})
	}
	if sig.Caller {
		ctx.Use("Address")
		fn.Params = append(fn.Params, &rust.Param{Name: "caller", Type: "Address"})
	}
	fn.Params = append(fn.Params, sig.Params...)

	if f := sig.Function; f != nil && sig.Exposed() {
		switch f.Kind {
		case ir.FunctionKindFallback, ir.FunctionKindReceive:
			log.Warningf("%s: Soroban has no %s; it is emitted as a plain function", ctx.Contract.Name, f.Kind)
		}
		if sig.Payable {
			log.Warningf("%s: %s is payable; Soroban contracts do not receive native value with calls", ctx.Contract.Name, f.SolidityName)
		}
	}
	return fn, nil
}

// Preamble makes entry points that read the caller authenticate it.
func (b *Backend) Preamble(ctx *lower.Context, sig *lower.Signature) []rust.Stmt {
	if sig.Caller && sig.Exposed() {
		return []rust.Stmt{&rust.ExprStmt{X: rust.M(rust.Id("caller"), "require_auth")}}
	}
	return nil
}

func (b *Backend) Call(ctx *lower.Context, callee *lower.Signature, args []rust.Expr) rust.Expr {
	var envArg rust.Expr
	switch {
	case callee.Exposed():
		envArg = rust.M(rust.Id("env"), "clone")
	case ctx.Sig != nil && ctx.Sig.Exposed():
		envArg = env()
	default:
		envArg = rust.Id("env")
	}
	all := []rust.Expr{envArg}
	if callee.Caller {
		all = append(all, rust.M(rust.Id("caller"), "clone"))
	}
	all = append(all, args...)
	return &rust.Call{Fn: rust.Id("Self::" + callee.Name), Args: all}
}

// Constructor emits `__constructor`, which runs the init helper and panics
// with its error.
func (b *Backend) Constructor(ctx *lower.Context, init *lower.Signature) ([]*rust.Fn, error) {
	if init == nil {
		return nil, nil
	}
	ctx.Use("Env")
	ctx.Use("panic_with_error")

	params := []*rust.Param{{Name: "env", Type: "Env"}}
	args := []rust.Expr{env()}
	if init.Caller {
		ctx.Use("Address")
		params = append(params, &rust.Param{Name: "caller", Type: "Address"})
		args = append(args, rust.Id("caller"))
	}
	for _, p := range init.Params {
		name := strings.TrimPrefix(p.Name, "mut ")
		params = append(params, &rust.Param{Name: name, Type: p.Type})
		args = append(args, rust.Id(name))
	}
	var stmts []rust.Stmt
	if init.Caller {
		stmts = append(stmts, &rust.ExprStmt{X: rust.M(rust.Id("caller"), "require_auth")})
	}
	return []*rust.Fn{{
		Pub:    true,
		Name:   "__constructor",
		Params: params,
		Body: &rust.Block{Stmts: append(stmts,
			&rust.ExprStmt{X: &rust.If{
				Let:  "Err(e)",
				Cond: &rust.Call{Fn: rust.Id("Self::" + init.Name), Args: args},
				Then: &rust.Block{Stmts: []rust.Stmt{
					&rust.ExprStmt{X: &rust.Macro{Name: "panic_with_error", Args: []rust.Expr{env(), rust.Id("e")}}},
				}},
			}},
		)},
	}}, nil
}
