package soroban

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/holiman/uint256"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

// intType maps widths to u32/u64/u128 (and signed counterparts); wider
// integers use the host 256-bit types.
func intType(t *ir.IntType) string {
	prefix := "u"
	if t.Signed {
		prefix = "i"
	}
	for _, bits := range []int{32, 64, 128} {
		if t.Bits <= bits {
			return fmt.Sprintf("%s%d", prefix, bits)
		}
	}
	if t.Signed {
		return "I256"
	}
	return "U256"
}

func wide(t ir.Type) bool {
	it, ok := t.(*ir.IntType)
	return ok && it.Bits > 128
}

func (b *Backend) Type(ctx *lower.Context, t ir.Type) (string, error) {
	switch x := t.(type) {
	case *ir.IntType:
		name := intType(x)
		if wide(x) {
			ctx.Use(name)
		}
		return name, nil
	case *ir.LiteralType:
		ctx.Use("U256")
		return "U256", nil
	case *ir.BoolType:
		return "bool", nil
	case *ir.AddressType, *ir.ContractType:
		ctx.Use("Address")
		return "Address", nil
	case *ir.StringType:
		ctx.Use("String")
		return "String", nil
	case *ir.BytesType:
		if x.Size == 0 {
			ctx.Use("Bytes")
			return "Bytes", nil
		}
		ctx.Use("BytesN")
		return fmt.Sprintf("BytesN<%d>", x.Size), nil
	case *ir.ArrayType:
		elem, err := b.Type(ctx, x.Elem)
		if err != nil {
			return "", err
		}
		ctx.Use("Vec")
		return "Vec<" + elem + ">", nil
	case *ir.StructType:
		return ir.TypeIdent(x.Def.Name), nil
	case *ir.EnumType:
		return ir.TypeIdent(x.Def.Name), nil
	case *ir.TupleType:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			s, err := b.Type(ctx, el)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)", nil
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case *ir.MappingType:
		return "", errors.Mapping(lexer.Position{}, "%s can only be used as a state variable", x)
	}
	return "", errors.Unsupported(lexer.Position{}, "type "+t.String())
}

// IsCopy is true for primitives and enums; host objects such as Address,
// String and U256 are Clone only.
func (b *Backend) IsCopy(t ir.Type) bool {
	switch x := t.(type) {
	case *ir.IntType:
		return !wide(x)
	case *ir.BoolType, *ir.EnumType:
		return true
	case *ir.TupleType:
		for _, el := range x.Elements {
			if !b.IsCopy(el) {
				return false
			}
		}
		return true
	}
	return false
}

func (b *Backend) IntLiteral(ctx *lower.Context, v *uint256.Int, neg bool, t *ir.IntType) (rust.Expr, error) {
	name := intType(t)
	if !wide(t) {
		sign := ""
		if neg {
			sign = "-"
		}
		return rust.L(sign + v.Dec() + name), nil
	}
	ctx.Use(name)
	if t.Signed {
		if v.BitLen() >= 128 {
			return nil, errors.NumSize(lexer.Position{}, "literal %s is too large for an I256 constant", v.Dec())
		}
		sign := ""
		if neg {
			sign = "-"
		}
		return &rust.Call{Fn: rust.Id("I256::from_i128"), Args: []rust.Expr{env(), rust.L(sign + v.Dec())}}, nil
	}
	if v.BitLen() <= 128 {
		return &rust.Call{Fn: rust.Id("U256::from_u128"), Args: []rust.Expr{env(), rust.L(v.Dec())}}, nil
	}
	return u256Parts(v), nil
}

// u256Parts spells a constant through U256::from_parts, most significant
// limb first.
func u256Parts(v *uint256.Int) rust.Expr {
	args := []rust.Expr{env()}
	for i := 3; i >= 0; i-- {
		args = append(args, rust.L(fmt.Sprintf("0x%016x", v[i])))
	}
	return &rust.Call{Fn: rust.Id("U256::from_parts"), Args: args}
}

func (b *Backend) StringLiteral(ctx *lower.Context, s string) rust.Expr {
	ctx.Use("String")
	return &rust.Call{Fn: rust.Id("String::from_str"), Args: []rust.Expr{env(), rust.Str(s)}}
}

func (b *Backend) Zero(ctx *lower.Context, t ir.Type) (rust.Expr, error) {
	switch x := t.(type) {
	case *ir.IntType:
		if wide(x) {
			return b.IntLiteral(ctx, new(uint256.Int), false, x)
		}
		return rust.L("0" + intType(x)), nil
	case *ir.LiteralType:
		return b.IntLiteral(ctx, new(uint256.Int), false, ir.Uint256)
	case *ir.BoolType:
		return rust.L("false"), nil
	case *ir.AddressType, *ir.ContractType:
		return nil, errors.Unsupported(lexer.Position{}, "the zero address")
	case *ir.StringType:
		return b.StringLiteral(ctx, ""), nil
	case *ir.BytesType:
		if x.Size == 0 {
			ctx.Use("Bytes")
			return &rust.Call{Fn: rust.Id("Bytes::new"), Args: []rust.Expr{env()}}, nil
		}
		ctx.Use("BytesN")
		return &rust.Call{Fn: rust.Id("BytesN::from_array"), Args: []rust.Expr{env(), rust.Ref(rust.L(fmt.Sprintf("[0u8; %d]", x.Size)))}}, nil
	case *ir.ArrayType:
		ctx.Use("Vec")
		if x.Length <= 0 {
			return &rust.Call{Fn: rust.Id("Vec::new"), Args: []rust.Expr{env()}}, nil
		}
		zero, err := b.Zero(ctx, x.Elem)
		if err != nil {
			return nil, err
		}
		elems := []rust.Expr{env()}
		for i := 0; i < x.Length; i++ {
			elems = append(elems, zero)
		}
		ctx.Use("vec")
		return &rust.Macro{Name: "vec", Args: elems}, nil
	case *ir.EnumType:
		for _, v := range x.Def.Variants {
			if v.Default {
				return rust.Id(ir.TypeIdent(x.Def.Name) + "::" + ir.TypeIdent(v.Name)), nil
			}
		}
	case *ir.StructType:
		lit := &rust.StructLit{Name: ir.TypeIdent(x.Def.Name)}
		for _, f := range x.Def.Fields {
			zero, err := b.Zero(ctx, f.Type)
			if err != nil {
				return nil, err
			}
			lit.Fields = append(lit.Fields, &rust.FieldInit{Name: ir.Ident(f.Name), Value: zero})
		}
		return lit, nil
	case *ir.TupleType:
		if len(x.Elements) == 0 {
			return rust.L("()"), nil
		}
		elems := make([]rust.Expr, len(x.Elements))
		for i, el := range x.Elements {
			zero, err := b.Zero(ctx, el)
			if err != nil {
				return nil, err
			}
			elems[i] = zero
		}
		return &rust.Tuple{Elems: elems}, nil
	}
	return nil, errors.Unsupported(lexer.Position{}, "zero value of "+t.String())
}

func (b *Backend) IntBound(ctx *lower.Context, t *ir.IntType, max bool) (rust.Expr, error) {
	name := intType(t)
	if !wide(t) {
		if max {
			return rust.L(name + "::MAX"), nil
		}
		return rust.L(name + "::MIN"), nil
	}
	ctx.Use(name)
	var limbs []string
	switch {
	case !t.Signed && max:
		limbs = []string{"u64::MAX", "u64::MAX", "u64::MAX", "u64::MAX"}
	case !t.Signed:
		limbs = []string{"0", "0", "0", "0"}
	case max:
		limbs = []string{"i64::MAX", "u64::MAX", "u64::MAX", "u64::MAX"}
	default:
		limbs = []string{"i64::MIN", "0", "0", "0"}
	}
	args := []rust.Expr{env()}
	for _, l := range limbs {
		args = append(args, rust.L(l))
	}
	return &rust.Call{Fn: rust.Id(name + "::from_parts"), Args: args}, nil
}

func (b *Backend) EnumItem(ctx *lower.Context, e *ir.Enum) rust.Item {
	ctx.Use("contracttype")
	item := &rust.Enum{
		Attrs: []string{"contracttype", "derive(Clone, Copy, Debug, Eq, PartialEq)", "repr(u32)"},
		Name:  ir.TypeIdent(e.Name),
	}
	for _, v := range e.Variants {
		item.Variants = append(item.Variants, &rust.Variant{
			Name:         ir.TypeIdent(v.Name),
			Discriminant: fmt.Sprintf("%d", v.Discriminant),
		})
	}
	return item
}

func (b *Backend) StructItem(ctx *lower.Context, s *ir.Struct) (rust.Item, error) {
	ctx.Use("contracttype")
	item := &rust.Struct{
		Attrs: []string{"contracttype", "derive(Clone, Debug, Eq, PartialEq)"},
		Name:  ir.TypeIdent(s.Name),
	}
	for _, f := range s.Fields {
		t, err := b.Type(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		item.Fields = append(item.Fields, &rust.Field{Pub: true, Name: ir.Ident(f.Name), Type: t})
	}
	return item, nil
}
