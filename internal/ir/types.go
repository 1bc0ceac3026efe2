package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the IR view of a Solidity type. Types are compared structurally
// with SameType.
type Type interface {
	String() string
}

// IntType is uintN / intN.
type IntType struct {
	Signed bool
	Bits   int
}

type BoolType struct{}

type AddressType struct {
	Payable bool
}

type StringType struct{}

// BytesType is `bytes` when Size is 0 and `bytesN` otherwise.
type BytesType struct {
	Size int
}

// MappingType is an associative storage container. Value may itself be a
// mapping.
type MappingType struct {
	Key   Type
	Value Type
}

// ArrayType has Length -1 for dynamic arrays.
type ArrayType struct {
	Elem   Type
	Length int
}

type StructType struct {
	Def *Struct
}

type EnumType struct {
	Def *Enum
}

// ContractType is a reference to another contract, held as its address.
type ContractType struct {
	Def *Contract
}

type TupleType struct {
	Elements []Type
}

// LiteralType is the type of an integer literal before the lowering stage
// coerces it to the expected type.
type LiteralType struct{}

var (
	Uint256  = &IntType{Bits: 256}
	Bool     = &BoolType{}
	Address  = &AddressType{}
	String   = &StringType{}
	Unit     = &TupleType{}
	IntConst = &LiteralType{}
)

func (i *IntType) String() string {
	if i.Signed {
		return fmt.Sprintf("int%d", i.Bits)
	}
	return fmt.Sprintf("uint%d", i.Bits)
}
func (b *BoolType) String() string { return "bool" }
func (a *AddressType) String() string {
	if a.Payable {
		return "address payable"
	}
	return "address"
}
func (s *StringType) String() string { return "string" }
func (b *BytesType) String() string {
	if b.Size == 0 {
		return "bytes"
	}
	return fmt.Sprintf("bytes%d", b.Size)
}
func (m *MappingType) String() string { return fmt.Sprintf("mapping(%s => %s)", m.Key, m.Value) }
func (a *ArrayType) String() string {
	if a.Length < 0 {
		return a.Elem.String() + "[]"
	}
	return fmt.Sprintf("%s[%d]", a.Elem, a.Length)
}
func (s *StructType) String() string   { return s.Def.Name }
func (e *EnumType) String() string     { return e.Def.Name }
func (c *ContractType) String() string { return c.Def.Name }
func (l *LiteralType) String() string  { return "int_const" }
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// SameType reports whether a and b denote the same type. Payability of
// addresses is ignored.
func SameType(a, b Type) bool {
	switch x := a.(type) {
	case *IntType:
		y, ok := b.(*IntType)
		return ok && x.Signed == y.Signed && x.Bits == y.Bits
	case *AddressType:
		_, ok := b.(*AddressType)
		return ok
	case *BytesType:
		y, ok := b.(*BytesType)
		return ok && x.Size == y.Size
	case *MappingType:
		y, ok := b.(*MappingType)
		return ok && SameType(x.Key, y.Key) && SameType(x.Value, y.Value)
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Length == y.Length && SameType(x.Elem, y.Elem)
	case *StructType:
		y, ok := b.(*StructType)
		return ok && x.Def == y.Def
	case *EnumType:
		y, ok := b.(*EnumType)
		return ok && x.Def == y.Def
	case *ContractType:
		y, ok := b.(*ContractType)
		return ok && x.Def == y.Def
	case *TupleType:
		y, ok := b.(*TupleType)
		if !ok || len(x.Elements) != len(y.Elements) {
			return false
		}
		for i := range x.Elements {
			if !SameType(x.Elements[i], y.Elements[i]) {
				return false
			}
		}
		return true
	}
	return a.String() == b.String()
}

func IsMapping(t Type) bool {
	_, ok := t.(*MappingType)
	return ok
}

func IsInteger(t Type) bool {
	switch t.(type) {
	case *IntType, *LiteralType:
		return true
	}
	return false
}

func IsUnit(t Type) bool {
	tt, ok := t.(*TupleType)
	return ok && len(tt.Elements) == 0
}

// MappingDepth returns the number of keys needed to reach a non-mapping
// value, and that value type.
func MappingDepth(t Type) (int, Type) {
	depth := 0
	for {
		m, ok := t.(*MappingType)
		if !ok {
			return depth, t
		}
		depth++
		t = m.Value
	}
}

// MappingKeys returns the key types of a (possibly nested) mapping.
func MappingKeys(t Type) []Type {
	var keys []Type
	for {
		m, ok := t.(*MappingType)
		if !ok {
			return keys
		}
		keys = append(keys, m.Key)
		t = m.Value
	}
}

// elementaryType resolves a Solidity elementary type name. ok is false when
// name is not elementary; err reports an invalid width.
func elementaryType(name string) (t Type, ok bool, err error) {
	switch name {
	case "bool":
		return Bool, true, nil
	case "address":
		return &AddressType{}, true, nil
	case "string":
		return String, true, nil
	case "bytes":
		return &BytesType{}, true, nil
	case "byte":
		return &BytesType{Size: 1}, true, nil
	case "uint":
		return &IntType{Bits: 256}, true, nil
	case "int":
		return &IntType{Signed: true, Bits: 256}, true, nil
	}

	prefix, signed := "", false
	switch {
	case strings.HasPrefix(name, "uint"):
		prefix = "uint"
	case strings.HasPrefix(name, "int"):
		prefix, signed = "int", true
	case strings.HasPrefix(name, "bytes"):
		prefix = "bytes"
	default:
		return nil, false, nil
	}

	n, convErr := strconv.Atoi(name[len(prefix):])
	if convErr != nil {
		return nil, false, nil
	}
	if prefix == "bytes" {
		if n < 1 || n > 32 {
			return nil, true, fmt.Errorf("bytes%d is not a valid fixed bytes width", n)
		}
		return &BytesType{Size: n}, true, nil
	}
	if n < 8 || n > 256 || n%8 != 0 {
		return nil, true, fmt.Errorf("%s%d is not a valid integer width", prefix, n)
	}
	return &IntType{Signed: signed, Bits: n}, true, nil
}
