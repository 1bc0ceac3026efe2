package ink

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

var derives = []string{
	"derive(Debug, Clone, PartialEq, Eq, Default)",
	"ink::scale_derive(Encode, Decode, TypeInfo)",
	`cfg_attr(feature = "std", derive(ink::storage::traits::StorageLayout))`,
}

// intType rounds a width up to the nearest Rust primitive; 256 bits map to
// U256.
func intType(t *ir.IntType) (string, error) {
	prefix := "u"
	if t.Signed {
		prefix = "i"
	}
	for _, bits := range []int{8, 16, 32, 64, 128} {
		if t.Bits <= bits {
			return fmt.Sprintf("%s%d", prefix, bits), nil
		}
	}
	if t.Signed {
		return "", errors.NumSize(lexer.Position{}, "%s has no ink! equivalent", t)
	}
	return "U256", nil
}

func wide(t *ir.IntType) bool {
	return t.Bits > 128
}

func (b *Backend) Type(ctx *lower.Context, t ir.Type) (string, error) {
	switch x := t.(type) {
	case *ir.IntType:
		if wide(x) {
			b.useU256(ctx)
		}
		return intType(x)
	case *ir.LiteralType:
		b.useU256(ctx)
		return "U256", nil
	case *ir.BoolType:
		return "bool", nil
	case *ir.AddressType, *ir.ContractType:
		if b.flavor == V6 {
			ctx.Use("ink::H160")
		}
		return b.addressType(), nil
	case *ir.StringType:
		ctx.Use("ink::prelude::string::String")
		return "String", nil
	case *ir.BytesType:
		if x.Size == 0 {
			ctx.Use("ink::prelude::vec::Vec")
			return "Vec<u8>", nil
		}
		return fmt.Sprintf("[u8; %d]", x.Size), nil
	case *ir.ArrayType:
		elem, err := b.Type(ctx, x.Elem)
		if err != nil {
			return "", err
		}
		if x.Length < 0 {
			ctx.Use("ink::prelude::vec::Vec")
			return "Vec<" + elem + ">", nil
		}
		return fmt.Sprintf("[%s; %d]", elem, x.Length), nil
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

func (b *Backend) IsCopy(t ir.Type) bool {
	switch x := t.(type) {
	case *ir.IntType, *ir.LiteralType, *ir.BoolType, *ir.AddressType, *ir.ContractType, *ir.EnumType:
		return true
	case *ir.BytesType:
		return x.Size > 0
	case *ir.ArrayType:
		return x.Length >= 0 && b.IsCopy(x.Elem)
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
	name, err := intType(t)
	if err != nil {
		return nil, err
	}
	if !wide(t) {
		sign := ""
		if neg {
			sign = "-"
		}
		return rust.L(sign + v.Dec() + name), nil
	}
	b.useU256(ctx)
	return u256(v), nil
}

// u256 spells a constant as U256::from(u128) when it fits and as its
// little-endian limbs otherwise.
func u256(v *uint256.Int) rust.Expr {
	if v.BitLen() <= 128 {
		return &rust.Call{Fn: rust.Id("U256::from"), Args: []rust.Expr{rust.L(v.Dec() + "u128")}}
	}
	limbs := make([]rust.Expr, 4)
	for i, limb := range v {
		limbs[i] = rust.L(fmt.Sprintf("0x%016x", limb))
	}
	return rust.C("U256", &rust.ArrayLit{Elems: limbs})
}

func (b *Backend) StringLiteral(ctx *lower.Context, s string) rust.Expr {
	ctx.Use("ink::prelude::string::String")
	return &rust.Call{Fn: rust.Id("String::from"), Args: []rust.Expr{rust.Str(s)}}
}

func (b *Backend) Zero(ctx *lower.Context, t ir.Type) (rust.Expr, error) {
	switch x := t.(type) {
	case *ir.IntType:
		if wide(x) {
			b.useU256(ctx)
			return rust.L("U256::zero()"), nil
		}
		name, err := intType(x)
		if err != nil {
			return nil, err
		}
		return rust.L("0" + name), nil
	case *ir.LiteralType:
		b.useU256(ctx)
		return rust.L("U256::zero()"), nil
	case *ir.BoolType:
		return rust.L("false"), nil
	case *ir.AddressType, *ir.ContractType:
		if b.flavor == V6 {
			ctx.Use("ink::H160")
			return rust.L("H160::zero()"), nil
		}
		return rust.L("AccountId::from([0u8; 32])"), nil
	case *ir.StringType:
		ctx.Use("ink::prelude::string::String")
		return rust.L("String::new()"), nil
	case *ir.BytesType:
		if x.Size == 0 {
			ctx.Use("ink::prelude::vec::Vec")
			return rust.L("Vec::new()"), nil
		}
		return rust.L(fmt.Sprintf("[0u8; %d]", x.Size)), nil
	case *ir.ArrayType:
		if x.Length < 0 {
			ctx.Use("ink::prelude::vec::Vec")
			return rust.L("Vec::new()"), nil
		}
	case *ir.MappingType:
		return nil, errors.Mapping(lexer.Position{}, "%s has no value outside storage", x)
	}
	if _, err := b.Type(ctx, t); err != nil {
		return nil, err
	}
	return rust.L("Default::default()"), nil
}

func (b *Backend) IntBound(ctx *lower.Context, t *ir.IntType, max bool) (rust.Expr, error) {
	name, err := intType(t)
	if err != nil {
		return nil, err
	}
	if wide(t) {
		b.useU256(ctx)
		if max {
			return rust.L("U256::MAX"), nil
		}
		return rust.L("U256::zero()"), nil
	}
	if max {
		return rust.L(name + "::MAX"), nil
	}
	return rust.L(name + "::MIN"), nil
}

func (b *Backend) EnumItem(ctx *lower.Context, e *ir.Enum) rust.Item {
	item := &rust.Enum{
		Attrs: append([]string{"derive(Copy)"}, derives...),
		Name:  ir.TypeIdent(e.Name),
	}
	for _, v := range e.Variants {
		variant := &rust.Variant{Name: ir.TypeIdent(v.Name)}
		if v.Default {
			variant.Attrs = []string{"default"}
		}
		item.Variants = append(item.Variants, variant)
	}
	return item
}

func (b *Backend) StructItem(ctx *lower.Context, s *ir.Struct) (rust.Item, error) {
	item := &rust.Struct{Attrs: derives, Name: ir.TypeIdent(s.Name)}
	for _, f := range s.Fields {
		t, err := b.Type(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		item.Fields = append(item.Fields, &rust.Field{Pub: true, Name: ir.Ident(f.Name), Type: t})
	}
	return item, nil
}
