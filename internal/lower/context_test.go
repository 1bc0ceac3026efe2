package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/grammar"
	"sol2rs/internal/ir"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	unit, err := grammar.ParseSource("test.sol", `contract C { uint256 x; }`)
	require.NoError(t, err)
	pkg, err := ir.Build("test", unit, ir.NewCompilationContext())
	require.NoError(t, err)
	c, err := pkg.Main("")
	require.NoError(t, err)
	ctx := NewContext(c, nil)
	ctx.enter(nil, &Signature{Name: "f", Kind: Helper, Ret: "()"})
	return ctx
}

func TestExpectedTypeStack(t *testing.T) {
	ctx := newTestContext(t)
	assert.Nil(t, ctx.Expected())

	pop := ctx.PushExpected(ir.Uint256)
	assert.Same(t, ir.Uint256, ctx.Expected())

	func() {
		defer ctx.PushExpected(ir.Bool)()
		assert.Same(t, ir.Bool, ctx.Expected())
	}()
	assert.Same(t, ir.Uint256, ctx.Expected())

	pop()
	assert.Nil(t, ctx.Expected())
}

func TestScopes(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Declare("a", "a", ir.Uint256)

	ctx.pushScope()
	ctx.Declare("a", "a_inner", ir.Bool)
	require.NotNil(t, ctx.Lookup("a"))
	assert.Equal(t, "a_inner", ctx.Lookup("a").Name)
	ctx.popScope()

	assert.Equal(t, "a", ctx.Lookup("a").Name)
	assert.Nil(t, ctx.Lookup("b"))
}

func TestLabelsAndTemps(t *testing.T) {
	ctx := newTestContext(t)

	outer := ctx.pushLoop(false)
	inner := ctx.pushLoop(true)
	assert.Equal(t, loop{label: "l0"}, outer)
	assert.Equal(t, loop{label: "l1", cont: "c1"}, inner)

	cur, ok := ctx.currentLoop()
	require.True(t, ok)
	assert.Equal(t, inner, cur)
	ctx.popLoop()
	ctx.popLoop()
	_, ok = ctx.currentLoop()
	assert.False(t, ok)

	assert.Equal(t, "t_1", ctx.Temp("t"))
	assert.Equal(t, "key_2", ctx.Temp("key"))

	ctx.enter(nil, &Signature{Name: "g", Kind: Helper, Ret: "()"})
	assert.Equal(t, "t_1", ctx.Temp("t"))
	assert.Equal(t, loop{label: "l0"}, ctx.pushLoop(false))
}

func TestImportsAreSortedAndUnique(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Use("b")
	ctx.Use("a")
	ctx.Use("b")
	assert.Equal(t, []string{"a", "b"}, ctx.Imports())
}
