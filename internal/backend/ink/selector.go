package ink

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"sol2rs/internal/ir"
)

// Selector returns the first four bytes of the Keccak-256 hash of the
// canonical Solidity signature, so generated messages keep the selectors
// Solidity callers use.
func Selector(name string, params []*ir.Param) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(Signature(name, params)))
	var sel [4]byte
	copy(sel[:], h.Sum(nil))
	return sel
}

// Signature renders `name(type1,type2)` with canonical ABI type names.
func Signature(name string, params []*ir.Param) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = canonical(p.Type)
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

func canonical(t ir.Type) string {
	switch x := t.(type) {
	case *ir.AddressType, *ir.ContractType:
		return "address"
	case *ir.EnumType:
		return "uint8"
	case *ir.ArrayType:
		if x.Length < 0 {
			return canonical(x.Elem) + "[]"
		}
		return fmt.Sprintf("%s[%d]", canonical(x.Elem), x.Length)
	case *ir.StructType:
		fields := make([]string, len(x.Def.Fields))
		for i, f := range x.Def.Fields {
			fields[i] = canonical(f.Type)
		}
		return "(" + strings.Join(fields, ",") + ")"
	case *ir.TupleType:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			parts[i] = canonical(el)
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return t.String()
}

func selectorAttr(sel [4]byte) string {
	return fmt.Sprintf("selector = 0x%02x%02x%02x%02x", sel[0], sel[1], sel[2], sel[3])
}
