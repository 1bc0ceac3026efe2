package ink

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

func isWide(t ir.Type) bool {
	it, ok := t.(*ir.IntType)
	return ok && wide(it)
}

func (b *Backend) Binary(ctx *lower.Context, op string, l, r rust.Expr, lt, rt ir.Type) (rust.Expr, error) {
	switch op {
	case "**":
		if isWide(lt) {
			if !isWide(rt) {
				r = &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{r}}
			}
			return rust.M(l, "pow", r), nil
		}
		if it, ok := rt.(*ir.IntType); !ok || it.Signed || it.Bits != 32 {
			r = &rust.Cast{X: r, Type: "u32"}
		}
		return rust.M(l, "pow", r), nil
	case "<<", ">>":
		if isWide(rt) {
			r = rust.M(r, "as_u32")
		}
		return &rust.Binary{Op: op, Left: l, Right: r}, nil
	}
	return &rust.Binary{Op: op, Left: l, Right: r}, nil
}

func (b *Backend) Unary(ctx *lower.Context, op string, x rust.Expr, t ir.Type) (rust.Expr, error) {
	switch op {
	case "-":
		if it, ok := t.(*ir.IntType); ok && !it.Signed {
			return nil, errors.Unsupported(lexer.Position{}, "negation of unsigned "+t.String())
		}
		return &rust.Unary{Op: "-", X: x}, nil
	case "~":
		return rust.Not(x), nil
	}
	return nil, errors.Unsupported(lexer.Position{}, "operator "+op)
}

// Cast converts between integer widths, enums and strings.
func (b *Backend) Cast(ctx *lower.Context, x rust.Expr, from, to ir.Type) (rust.Expr, error) {
	switch t := to.(type) {
	case *ir.IntType:
		name, err := intType(t)
		if err != nil {
			return nil, err
		}
		switch f := from.(type) {
		case *ir.IntType:
			switch {
			case wide(t) && wide(f):
				return x, nil
			case wide(t):
				b.useU256(ctx)
				return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{x}}, nil
			case wide(f):
				return &rust.Cast{X: rust.M(x, "low_u128"), Type: name}, nil
			}
			return &rust.Cast{X: x, Type: name}, nil
		case *ir.EnumType:
			if wide(t) {
				b.useU256(ctx)
				return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{&rust.Cast{X: x, Type: "u8"}}}, nil
			}
			return &rust.Cast{X: x, Type: name}, nil
		}
	case *ir.StringType:
		if bt, ok := from.(*ir.BytesType); ok && bt.Size == 0 {
			ctx.Use("ink::prelude::string::String")
			return rust.M(&rust.Call{Fn: rust.Id("String::from_utf8"), Args: []rust.Expr{x}}, "unwrap_or_default"), nil
		}
	case *ir.BytesType:
		if _, ok := from.(*ir.StringType); ok && t.Size == 0 {
			return rust.M(x, "into_bytes"), nil
		}
	case *ir.AddressType:
		if _, ok := from.(*ir.ContractType); ok {
			return x, nil
		}
	}
	return nil, errors.Unsupported(lexer.Position{}, fmt.Sprintf("conversion from %s to %s", from, to))
}

func (b *Backend) ArrayPlace() bool {
	return true
}

func usize(idx rust.Expr, t ir.Type) rust.Expr {
	if isWide(t) {
		return rust.M(idx, "as_usize")
	}
	return &rust.Cast{X: idx, Type: "usize"}
}

func (b *Backend) ArrayIndex(ctx *lower.Context, arr, idx rust.Expr, idxType ir.Type) (rust.Expr, error) {
	return &rust.IndexExpr{X: arr, Index: usize(idx, idxType)}, nil
}

func (b *Backend) ArraySet(ctx *lower.Context, arr, idx rust.Expr, idxType ir.Type, value rust.Expr) (rust.Stmt, error) {
	return &rust.Assign{Target: &rust.IndexExpr{X: arr, Index: usize(idx, idxType)}, Op: "=", Value: value}, nil
}

func (b *Backend) ArrayLen(ctx *lower.Context, arr rust.Expr) rust.Expr {
	b.useU256(ctx)
	return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{rust.M(arr, "len")}}
}

func (b *Backend) ArrayPush(ctx *lower.Context, arr, value rust.Expr) rust.Expr {
	return rust.M(arr, "push", value)
}

func (b *Backend) ArrayPop(ctx *lower.Context, arr rust.Expr) rust.Expr {
	return rust.M(arr, "pop")
}

func (b *Backend) NewArray(ctx *lower.Context, elem ir.Type, length rust.Expr, lengthType ir.Type) (rust.Expr, error) {
	zero, err := b.Zero(ctx, elem)
	if err != nil {
		return nil, err
	}
	ctx.Use("ink::prelude::vec")
	return rust.L(fmt.Sprintf("vec![%s; %s]", rust.PrintExpr(zero), rust.PrintExpr(usize(length, lengthType)))), nil
}

func (b *Backend) ArrayLit(ctx *lower.Context, t *ir.ArrayType, elems []rust.Expr) (rust.Expr, error) {
	if t.Length >= 0 {
		return &rust.ArrayLit{Elems: elems}, nil
	}
	ctx.Use("ink::prelude::vec")
	return &rust.Macro{Name: "vec", Args: elems}, nil
}

func (b *Backend) Env(ctx *lower.Context, kind ir.EnvKind) (rust.Expr, error) {
	env := rust.M(rust.Id("self"), "env")
	switch kind {
	case ir.EnvSender:
		return rust.M(env, "caller"), nil
	case ir.EnvTimestamp:
		b.useU256(ctx)
		return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{rust.M(env, "block_timestamp")}}, nil
	case ir.EnvBlockNumber:
		b.useU256(ctx)
		return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{rust.M(env, "block_number")}}, nil
	case ir.EnvValue:
		if b.flavor == V6 {
			return rust.M(env, "transferred_value"), nil
		}
		b.useU256(ctx)
		return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{rust.M(env, "transferred_value")}}, nil
	case ir.EnvThis:
		if b.flavor == V6 {
			return rust.M(env, "address"), nil
		}
		return rust.M(env, "account_id"), nil
	}
	return nil, errors.Unsupported(lexer.Position{}, "environment value")
}
