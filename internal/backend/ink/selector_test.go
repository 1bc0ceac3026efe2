package ink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sol2rs/internal/ir"
)

func TestSelector(t *testing.T) {
	transfer := []*ir.Param{{Name: "to", Type: ir.Address}, {Name: "amount", Type: ir.Uint256}}
	assert.Equal(t, "transfer(address,uint256)", Signature("transfer", transfer))
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, Selector("transfer", transfer))

	balanceOf := []*ir.Param{{Name: "owner", Type: ir.Address}}
	assert.Equal(t, [4]byte{0x70, 0xa0, 0x82, 0x31}, Selector("balanceOf", balanceOf))
	assert.Equal(t, "selector = 0x70a08231", selectorAttr(Selector("balanceOf", balanceOf)))
}

func TestCanonicalTypes(t *testing.T) {
	point := &ir.Struct{Name: "Point", Fields: []*ir.Param{{Name: "x", Type: ir.Uint256}, {Name: "ok", Type: ir.Bool}}}
	color := &ir.Enum{Name: "Color"}

	params := []*ir.Param{
		{Type: &ir.ArrayType{Elem: ir.Uint256, Length: -1}},
		{Type: &ir.ArrayType{Elem: ir.Address, Length: 3}},
		{Type: &ir.StructType{Def: point}},
		{Type: &ir.EnumType{Def: color}},
	}
	assert.Equal(t, "f(uint256[],address[3],(uint256,bool),uint8)", Signature("f", params))
}
