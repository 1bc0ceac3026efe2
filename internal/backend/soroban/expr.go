package soroban

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

// methods of the host 256-bit types standing in for arithmetic operators
var wideOps = map[string]string{
	"+": "add",
	"-": "sub",
	"*": "mul",
	"/": "div",
	"%": "rem_euclid",
}

// u32 converts a small integer to the u32 the host APIs take.
func u32(x rust.Expr, t ir.Type) rust.Expr {
	if it, ok := t.(*ir.IntType); ok {
		if wide(it) {
			return &rust.Cast{X: rust.M(rust.M(x, "to_u128"), "unwrap"), Type: "u32"}
		}
		if !it.Signed && it.Bits <= 32 {
			return x
		}
	}
	return &rust.Cast{X: x, Type: "u32"}
}

// borrow passes x by reference without the clone a place read carries.
func borrow(x rust.Expr) rust.Expr {
	return rust.Ref(lower.Borrowed(x))
}

func (b *Backend) Binary(ctx *lower.Context, op string, l, r rust.Expr, lt, rt ir.Type) (rust.Expr, error) {
	if !wide(lt) {
		if op == "**" {
			return rust.M(l, "pow", u32(r, rt)), nil
		}
		return &rust.Binary{Op: op, Left: l, Right: r}, nil
	}

	// U256 and I256 methods take both sides by reference
	recv := lower.Borrowed(l)
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return &rust.Binary{Op: op, Left: l, Right: r}, nil
	case "**":
		return rust.M(recv, "pow", u32(r, rt)), nil
	case "<<":
		return rust.M(recv, "shl", u32(r, rt)), nil
	case ">>":
		return rust.M(recv, "shr", u32(r, rt)), nil
	}
	if method, ok := wideOps[op]; ok {
		return rust.M(recv, method, borrow(r)), nil
	}
	return nil, errors.Unsupported(lexer.Position{}, fmt.Sprintf("operator %s on %s", op, lt))
}

func (b *Backend) Unary(ctx *lower.Context, op string, x rust.Expr, t ir.Type) (rust.Expr, error) {
	it, _ := t.(*ir.IntType)
	switch {
	case op == "-" && it != nil && it.Signed && wide(it):
		zero, err := b.Zero(ctx, it)
		if err != nil {
			return nil, err
		}
		return rust.M(zero, "sub", borrow(x)), nil
	case op == "-" && it != nil && it.Signed:
		return &rust.Unary{Op: "-", X: x}, nil
	case op == "~" && it != nil && !wide(it):
		return rust.Not(x), nil
	}
	return nil, errors.Unsupported(lexer.Position{}, fmt.Sprintf("operator %s on %s", op, t))
}

func (b *Backend) Cast(ctx *lower.Context, x rust.Expr, from, to ir.Type) (rust.Expr, error) {
	switch t := to.(type) {
	case *ir.IntType:
		name := intType(t)
		switch f := from.(type) {
		case *ir.IntType:
			switch {
			case wide(t) && wide(f):
				if t.Signed == f.Signed {
					return x, nil
				}
			case wide(t):
				ctx.Use(name)
				ctor, arg := "U256::from_u128", "u128"
				if t.Signed {
					ctor, arg = "I256::from_i128", "i128"
				}
				return &rust.Call{Fn: rust.Id(ctor), Args: []rust.Expr{env(), &rust.Cast{X: x, Type: arg}}}, nil
			case wide(f):
				conv := "to_u128"
				if f.Signed {
					conv = "to_i128"
				}
				return &rust.Cast{X: rust.M(rust.M(x, conv), "unwrap"), Type: name}, nil
			default:
				return &rust.Cast{X: x, Type: name}, nil
			}
		case *ir.EnumType:
			if !wide(t) {
				return &rust.Cast{X: x, Type: name}, nil
			}
			ctx.Use(name)
			return &rust.Call{Fn: rust.Id(name + "::from_u32"), Args: []rust.Expr{env(), &rust.Cast{X: x, Type: "u32"}}}, nil
		}
	case *ir.AddressType:
		if _, ok := from.(*ir.ContractType); ok {
			return x, nil
		}
	}
	return nil, errors.Unsupported(lexer.Position{}, fmt.Sprintf("conversion from %s to %s", from, to))
}

// ArrayPlace is false: host vectors are updated through set.
func (b *Backend) ArrayPlace() bool {
	return false
}

func (b *Backend) ArrayIndex(ctx *lower.Context, arr, idx rust.Expr, idxType ir.Type) (rust.Expr, error) {
	return rust.M(rust.M(arr, "get", u32(idx, idxType)), "unwrap"), nil
}

func (b *Backend) ArraySet(ctx *lower.Context, arr, idx rust.Expr, idxType ir.Type, value rust.Expr) (rust.Stmt, error) {
	return &rust.ExprStmt{X: rust.M(arr, "set", u32(idx, idxType), value)}, nil
}

func (b *Backend) ArrayLen(ctx *lower.Context, arr rust.Expr) rust.Expr {
	ctx.Use("U256")
	return &rust.Call{Fn: rust.Id("U256::from_u32"), Args: []rust.Expr{env(), rust.M(arr, "len")}}
}

func (b *Backend) ArrayPush(ctx *lower.Context, arr, value rust.Expr) rust.Expr {
	return rust.M(arr, "push_back", value)
}

func (b *Backend) ArrayPop(ctx *lower.Context, arr rust.Expr) rust.Expr {
	return rust.M(arr, "pop_back")
}

// NewArray fills a fresh vector with zero values in a loop.
func (b *Backend) NewArray(ctx *lower.Context, elem ir.Type, length rust.Expr, lengthType ir.Type) (rust.Expr, error) {
	zero, err := b.Zero(ctx, elem)
	if err != nil {
		return nil, err
	}
	ctx.Use("Vec")
	v, n, i := ctx.Temp("v"), ctx.Temp("n"), ctx.Temp("i")
	return &rust.BlockExpr{Block: &rust.Block{
		Stmts: []rust.Stmt{
			&rust.Let{Mut: true, Name: v, Value: &rust.Call{Fn: rust.Id("Vec::new"), Args: []rust.Expr{env()}}},
			&rust.Let{Name: n, Value: u32(length, lengthType)},
			&rust.Let{Mut: true, Name: i, Value: rust.L("0u32")},
			&rust.While{
				Cond: &rust.Binary{Op: "<", Left: rust.Id(i), Right: rust.Id(n)},
				Body: &rust.Block{Stmts: []rust.Stmt{
					&rust.ExprStmt{X: rust.M(rust.Id(v), "push_back", zero)},
					&rust.Assign{Target: rust.Id(i), Op: "+=", Value: rust.L("1")},
				}},
			},
		},
		Tail: rust.Id(v),
	}}, nil
}

func (b *Backend) ArrayLit(ctx *lower.Context, t *ir.ArrayType, elems []rust.Expr) (rust.Expr, error) {
	ctx.Use("vec")
	return &rust.Macro{Name: "vec", Args: append([]rust.Expr{env()}, elems...)}, nil
}

func (b *Backend) Env(ctx *lower.Context, kind ir.EnvKind) (rust.Expr, error) {
	ledger := rust.M(rust.Id("env"), "ledger")
	switch kind {
	case ir.EnvSender:
		return rust.M(rust.Id("caller"), "clone"), nil
	case ir.EnvTimestamp:
		ctx.Use("U256")
		return &rust.Call{Fn: rust.Id("U256::from_u128"), Args: []rust.Expr{env(), &rust.Cast{X: rust.M(ledger, "timestamp"), Type: "u128"}}}, nil
	case ir.EnvBlockNumber:
		ctx.Use("U256")
		return &rust.Call{Fn: rust.Id("U256::from_u32"), Args: []rust.Expr{env(), rust.M(ledger, "sequence")}}, nil
	case ir.EnvThis:
		return rust.M(rust.Id("env"), "current_contract_address"), nil
	case ir.EnvValue:
		return nil, errors.Unsupported(lexer.Position{}, "msg.value on Soroban")
	}
	return nil, errors.Unsupported(lexer.Position{}, "environment value")
}
