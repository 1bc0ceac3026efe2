package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/grammar"
	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
)

func build(t *testing.T, src string) *ir.Package {
	t.Helper()
	pkg, err := tryBuild(t, src)
	require.NoError(t, err)
	return pkg
}

func tryBuild(t *testing.T, src string) (*ir.Package, error) {
	t.Helper()
	unit, err := grammar.ParseSource("test.sol", src)
	require.NoError(t, err)
	return ir.Build("test", unit, ir.NewCompilationContext())
}

func body(t *testing.T, c *ir.Contract, name string, arity int) *ir.Block {
	t.Helper()
	f := c.Lookup(name, arity)
	require.NotNil(t, f, "function %s/%d", name, arity)
	require.NotNil(t, f.Primary().Body)
	return f.Primary().Body
}

const inheritance = `
pragma solidity ^0.8.0;

contract X {
    uint256 public x;
    constructor(uint256 a) { x = a; }
    function f() public virtual returns (uint256) { return 1; }
}

contract Y is X {
    uint256 y;
    constructor(uint256 b) X(b + 1) { y = b; }
    function f() public virtual override returns (uint256) { return super.f() + 1; }
}

contract D is Y {
    uint256 d;
    constructor() Y(10) { d = 3; }
}
`

func TestLinearizationAndStorageOrder(t *testing.T) {
	pkg := build(t, inheritance)
	d := pkg.Contract("D")
	require.NotNil(t, d)

	assert.Equal(t, []string{"D", "Y", "X"}, d.Chain)

	var names []string
	for _, f := range d.Storage {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"x", "y", "d"}, names)

	main, err := pkg.Main("")
	require.NoError(t, err)
	assert.Equal(t, "D", main.Name)
}

func TestSuperChain(t *testing.T) {
	pkg := build(t, inheritance)
	f := pkg.Contract("D").Lookup("f", 0)
	require.NotNil(t, f)

	require.Len(t, f.Implementations, 2)
	assert.Equal(t, "Y", f.Implementations[0].Class)
	assert.Equal(t, "X", f.Implementations[1].Class)
	assert.Equal(t, "Y", f.Primary().Class)
	assert.Equal(t, "X", f.Next("Y").Class)
	assert.Nil(t, f.Next("X"))

	ret := f.Primary().Body.Stmts[0].(*ir.ReturnStmt)
	sum := ret.Value.(*ir.Binary)
	call := sum.Left.(*ir.Call)
	assert.True(t, call.Super)
	assert.Equal(t, "Y", call.Class)
}

func TestBaseConstructorArguments(t *testing.T) {
	pkg := build(t, inheritance)

	y := pkg.Contract("Y")
	require.Len(t, y.BaseCalls, 1)
	assert.Equal(t, "X", y.BaseCalls[0].Base)
	assert.Equal(t, "Y", y.BaseCalls[0].Declarer)
	require.Len(t, y.BaseCalls[0].Args, 1)
	arg := y.BaseCalls[0].Args[0].(*ir.Binary)
	assert.Equal(t, "b", arg.Left.(*ir.Var).Name)

	d := pkg.Contract("D")
	require.Len(t, d.BaseCalls, 1)
	assert.Equal(t, "Y", d.BaseCalls[0].Base)
	assert.Empty(t, d.Constructor.Primary().Modifiers)
}

func TestDiamondLinearization(t *testing.T) {
	pkg := build(t, `
contract A {}
contract B is A {}
contract C is A {}
contract D is B, C {}
`)
	assert.Equal(t, []string{"D", "C", "B", "A"}, pkg.Contract("D").Chain)
}

func TestInconsistentLinearization(t *testing.T) {
	_, err := tryBuild(t, `
contract A {}
contract B is A {}
contract C is B, A {}
`)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.LinearizationFailed))
}

func TestEnumDiscriminants(t *testing.T) {
	pkg := build(t, `
contract C {
    enum Status { Pending, Active, Closed }
    Status s;
    function close() public { s = Status.Closed; }
}
`)
	c := pkg.Contract("C")
	require.Len(t, c.Enums, 1)
	for i, v := range c.Enums[0].Variants {
		assert.Equal(t, i, v.Discriminant)
		assert.Equal(t, i == 0, v.Default, v.Name)
	}

	assign := body(t, c, "close", 0).Stmts[0].(*ir.AssignStmt)
	value := assign.Value.(*ir.EnumValue)
	assert.Equal(t, "Closed", value.Variant.Name)
	assert.Equal(t, 2, value.Variant.Discriminant)
}

func TestErrorRegistry(t *testing.T) {
	pkg := build(t, `
contract C {
    error Unauthorized(address who);
    uint256 total;
    function a(uint256 v) public {
        require(v > 0, "too low");
        require(v < 100, "too high");
        if (v == 50) { revert Unauthorized(msg.sender); }
    }
    function b(uint256 v) public {
        require(v > 1, "too low");
        revert();
    }
}
`)
	entries := pkg.Context.Errors()
	require.Len(t, entries, 4)
	assert.Equal(t, "Unauthorized", entries[0].Message)
	assert.NotNil(t, entries[0].Custom)
	assert.Equal(t, []string{"too low", "too high", ""}, []string{entries[1].Message, entries[2].Message, entries[3].Message})
	for i, e := range entries {
		assert.Equal(t, uint32(i+1), e.Code)
	}

	c := pkg.Contract("C")
	first := body(t, c, "a", 1).Stmts[0].(*ir.RequireStmt)
	again := body(t, c, "b", 1).Stmts[0].(*ir.RequireStmt)
	assert.Same(t, first.Error, again.Error)
}

func TestRevertNeedsLiteralMessage(t *testing.T) {
	_, err := tryBuild(t, `
contract C {
    function f(string memory reason) public pure { revert(reason); }
}
`)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.UnsupportedMessageType))
}

func TestMappingInitializerRejected(t *testing.T) {
	_, err := tryBuild(t, `
contract C {
    mapping(uint256 => uint256) m = 1;
}
`)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.MappingInit))
}

func TestUndeclaredInterface(t *testing.T) {
	_, err := tryBuild(t, `
contract C {
    function f(address token) public { IToken(token).transfer(1); }
}
`)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.UnsupportedType))
}

func TestUnknownIdentifier(t *testing.T) {
	_, err := tryBuild(t, `
contract C {
    function f() public { missing = 1; }
}
`)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.NotStateVariable))
}

func TestExternalCall(t *testing.T) {
	pkg := build(t, `
interface IToken {
    function balanceOf(address owner) external view returns (uint256);
}
contract Vault {
    IToken token;
    function held() public view returns (uint256) {
        return IToken(address(token)).balanceOf(address(this));
    }
    function direct(address who) public view returns (uint256) {
        return token.balanceOf(who);
    }
}
`)
	c := pkg.Contract("Vault")
	ret := body(t, c, "held", 0).Stmts[0].(*ir.ReturnStmt)
	call := ret.Value.(*ir.ExternalCall)
	assert.Equal(t, "IToken", call.Interface.Name)
	assert.Equal(t, "balanceOf", call.Method.SolidityName)
	assert.IsType(t, &ir.Env{}, call.Args[0])

	impl := c.Lookup("direct", 1).Primary()
	assert.ElementsMatch(t, []string{"IToken"}, impl.ExternalCalls.ToSlice())
	assert.Empty(t, c.Lookup("direct", 1).Primary().Calls.ToSlice())
}

func TestCallerPropagation(t *testing.T) {
	pkg := build(t, `
contract C {
    address owner;
    modifier onlyOwner() {
        require(msg.sender == owner, "not owner");
        _;
    }
    function who() internal view returns (address) { return msg.sender; }
    function relay() public view returns (address) { return who(); }
    function guarded() public onlyOwner {}
    function plain() public pure returns (uint256) { return 1; }
}
`)
	c := pkg.Contract("C")
	assert.True(t, c.NeedsCaller(c.Lookup("who", 0)))
	assert.True(t, c.NeedsCaller(c.Lookup("relay", 0)))
	assert.True(t, c.NeedsCaller(c.Lookup("guarded", 0)))
	assert.False(t, c.NeedsCaller(c.Lookup("plain", 0)))
}

func TestOverloadNaming(t *testing.T) {
	pkg := build(t, `
contract C {
    function add(uint256 a) public pure returns (uint256) { return a; }
    function add(uint256 a, uint256 b) public pure returns (uint256) { return a + b; }
    function twice(uint256 a) public pure returns (uint256) { return add(a, a); }
}
`)
	c := pkg.Contract("C")
	assert.Equal(t, "add_1", c.Lookup("add", 1).Name)
	assert.Equal(t, "add_2", c.Lookup("add", 2).Name)
	assert.Equal(t, "twice", c.Lookup("twice", 1).Name)
}

func TestGetters(t *testing.T) {
	pkg := build(t, `
contract C {
    uint256 public count;
    mapping(address => mapping(address => uint256)) public allowance;
    uint256 hidden;
}
`)
	c := pkg.Contract("C")

	count := c.Lookup("count", 0)
	require.NotNil(t, count)
	assert.Equal(t, ir.FunctionKindGetter, count.Kind)
	assert.Equal(t, ir.View, count.Mutability)

	allowance := c.Lookup("allowance", 2)
	require.NotNil(t, allowance)
	assert.IsType(t, &ir.AddressType{}, allowance.Params[0].Type)
	assert.IsType(t, &ir.IntType{}, allowance.ReturnType())

	assert.Nil(t, c.LookupName("hidden"))
}

func TestPrecedenceAndFolding(t *testing.T) {
	pkg := build(t, `
contract C {
    uint256 constant MAX = 2 ** 8 - 1;
    function f(uint256 a, uint256 b, uint256 c) public pure returns (uint256) {
        return a + b * c;
    }
    function g(uint256 a) public pure returns (uint256) {
        return a - 1 - 2;
    }
}
`)
	c := pkg.Contract("C")
	require.Len(t, c.Constants, 1)
	lit := c.Constants[0].Value.(*ir.Literal)
	assert.Equal(t, uint64(255), lit.Int.Uint64())
	assert.Equal(t, "MAX", c.Constants[0].Name)

	sum := body(t, c, "f", 3).Stmts[0].(*ir.ReturnStmt).Value.(*ir.Binary)
	assert.Equal(t, "+", sum.Op)
	assert.Equal(t, "*", sum.Right.(*ir.Binary).Op)

	diff := body(t, c, "g", 1).Stmts[0].(*ir.ReturnStmt).Value.(*ir.Binary)
	assert.Equal(t, "-", diff.Op)
	assert.Equal(t, "-", diff.Left.(*ir.Binary).Op)
	assert.Equal(t, "((a - 1) - 2)", ir.FormatExpr(diff))
}

func TestCompoundAssignment(t *testing.T) {
	pkg := build(t, `
contract C {
    uint256 total;
    function f(uint256 v) public {
        total += v;
        total++;
        delete total;
    }
}
`)
	stmts := body(t, pkg.Contract("C"), "f", 1).Stmts
	require.Len(t, stmts, 3)

	add := stmts[0].(*ir.AssignStmt)
	assert.IsType(t, &ir.FieldRef{}, add.Target)
	assert.Equal(t, "+", add.Value.(*ir.Binary).Op)

	incr := stmts[1].(*ir.AssignStmt)
	assert.Equal(t, "(self.total + 1)", ir.FormatExpr(incr.Value))

	del := stmts[2].(*ir.AssignStmt)
	assert.IsType(t, &ir.ZeroValue{}, del.Value)
}

func TestLibraryUsing(t *testing.T) {
	pkg := build(t, `
library SafeMath {
    function add(uint256 a, uint256 b) internal pure returns (uint256) { return a + b; }
}
contract C {
    using SafeMath for uint256;
    uint256 total;
    function f(uint256 v) public { total = total.add(v); }
    function g(uint256 v) public view returns (uint256) { return SafeMath.add(total, v); }
}
`)
	c := pkg.Contract("C")
	for _, name := range []string{"f", "g"} {
		var call *ir.LibraryCall
		ir.WalkStmt(body(t, c, name, 1), func(s ir.Stmt) {
			for _, e := range ir.DirectExprs(s) {
				ir.WalkExpr(e, func(x ir.Expr) bool {
					if lc, ok := x.(*ir.LibraryCall); ok {
						call = lc
					}
					return true
				})
			}
		})
		require.NotNil(t, call, name)
		assert.Equal(t, "SafeMath", call.Library.Name)
		assert.Len(t, call.Args, 2)
	}
}

func TestAbstractFunctionNeedsImplementation(t *testing.T) {
	_, err := tryBuild(t, `
interface I { function f() external; }
contract C is I {}
`)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.InvalidFunctionType))
}

func TestImplementedFunctionsBuild(t *testing.T) {
	pkg := build(t, `
contract C {
    function f() public pure returns (uint256) { return 1; }
}
`)
	f := pkg.Contract("C").Lookup("f", 0)
	require.NotNil(t, f)
	assert.True(t, f.Primary().Implemented)
	assert.NotNil(t, f.Primary().Body)

	pkg = build(t, `
interface I { function f() external; }
contract C is I {
    uint256 n;
    function f() external override { n = 1; }
}
`)
	f = pkg.Contract("C").Lookup("f", 0)
	require.NotNil(t, f)
	assert.True(t, f.Primary().Implemented)
	assert.Equal(t, "C", f.Primary().Class)
}

func TestPrint(t *testing.T) {
	pkg := build(t, `
contract Counter {
    uint256 public count;
    function inc() public { count += 1; }
}
`)
	out := ir.Print(pkg.Contract("Counter"))
	assert.Contains(t, out, "CONTRACT Counter (IR)")
	assert.Contains(t, out, "slot[0] count")
	assert.Contains(t, out, "self.count = (self.count + 1)")
}
