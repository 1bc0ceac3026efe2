package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdent(t *testing.T) {
	assert.Equal(t, "balance_of", Ident("balanceOf"))
	assert.Equal(t, "_owner", Ident("_owner"))
	assert.Equal(t, "total_supply", Ident("totalSupply"))
	assert.Equal(t, "r#type", Ident("type"))
	assert.Equal(t, "self_", Ident("self"))
	assert.Equal(t, "x", Ident("x"))
	assert.Equal(t, "arg0", Ident("arg0"), "snake case names keep their digits attached")
	assert.Equal(t, "_0", Ident("_0"))
	assert.Equal(t, "balance_2", Ident("balance_2"))
}

func TestConstAndTypeIdent(t *testing.T) {
	assert.Equal(t, "MAX_SUPPLY", ConstIdent("maxSupply"))
	assert.Equal(t, "MAX_SUPPLY", ConstIdent("MAX_SUPPLY"))
	assert.Equal(t, "NotOwner", TypeIdent("not owner"))
	assert.Equal(t, "Transfer", TypeIdent("Transfer"))
	assert.Equal(t, "Unnamed", TypeIdent(""))
	assert.Equal(t, "Self_", TypeIdent("Self"))
	assert.Equal(t, "IToken", TypeIdent("IToken"), "acronym prefixes are kept")
	assert.Equal(t, "IERC20", TypeIdent("IERC20"))
	assert.Equal(t, "ERC20Token", TypeIdent("ERC20Token"))
	assert.Equal(t, "MyToken", TypeIdent("my_token"))
}

func TestCompilationContext(t *testing.T) {
	ctx := NewCompilationContext()
	a := ctx.RegisterMessage("a")
	b := ctx.RegisterMessage("b")
	again := ctx.RegisterMessage("a")

	assert.Equal(t, uint32(1), a.Code)
	assert.Equal(t, uint32(2), b.Code)
	assert.Same(t, a, again)

	def := &ErrorDef{Name: "a"}
	custom := ctx.RegisterCustom(def)
	assert.Equal(t, uint32(3), custom.Code, "custom errors do not collide with messages")
	assert.Same(t, custom, def.Entry)
	assert.Len(t, ctx.Errors(), 3)

	assert.Equal(t, 1, ctx.CountEvent())
	assert.Equal(t, 2, ctx.CountEvent())
	assert.Equal(t, 2, ctx.EventCount())
}
