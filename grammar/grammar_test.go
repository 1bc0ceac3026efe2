package grammar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/grammar"
	"sol2rs/internal/errors"
)

func parse(t *testing.T, src string) *grammar.SourceUnit {
	t.Helper()
	unit, err := grammar.ParseSource("test.sol", src)
	require.NoError(t, err)
	require.NotNil(t, unit)
	return unit
}

func firstContract(t *testing.T, unit *grammar.SourceUnit) *grammar.ContractDefinition {
	t.Helper()
	for _, p := range unit.Parts {
		if p.Contract != nil {
			return p.Contract
		}
	}
	t.Fatal("no contract in source unit")
	return nil
}

func TestFibonacciContract(t *testing.T) {
	unit := parse(t, `// SPDX-License-Identifier: MIT
pragma solidity ^0.8.0;

contract Fibonacci {
    mapping(uint256 => uint256) public results;

    function fib(uint256 n) internal pure returns (uint256) {
        if (n <= 1) {
            return n;
        }
        return fib(n - 1) + fib(n - 2);
    }

    function compute(uint256 n) public {
        results[n] = fib(n);
    }

    function get_result(uint256 n) public view returns (uint256) {
        return results[n];
    }
}
`)

	require.Len(t, unit.Parts, 2)
	assert.Equal(t, "pragma solidity ^0.8.0;", unit.Parts[0].Pragma)

	c := firstContract(t, unit)
	assert.Equal(t, "contract", c.Kind)
	assert.Equal(t, "Fibonacci", c.Name)
	require.Len(t, c.Parts, 4)

	v := c.Parts[0].Variable
	require.NotNil(t, v)
	assert.Equal(t, "results", v.Name)
	assert.Equal(t, []string{"public"}, v.Attrs)
	require.NotNil(t, v.Type.Mapping)
	assert.Equal(t, "uint256", v.Type.Mapping.Key.Path)
	assert.Equal(t, "mapping(uint256 => uint256)", v.Type.String())

	fib := c.Parts[1].Function
	require.NotNil(t, fib)
	assert.Equal(t, "function", fib.Kind)
	assert.Equal(t, "fib", fib.Name)
	require.Len(t, fib.Params, 1)
	assert.Equal(t, "n", fib.Params[0].Name)
	require.Len(t, fib.Attrs, 2)
	assert.Equal(t, "internal", fib.Attrs[0].Visibility)
	assert.Equal(t, "pure", fib.Attrs[1].Mutability)
	require.Len(t, fib.Returns, 1)
	require.Len(t, fib.Body.Statements, 2)
	assert.NotNil(t, fib.Body.Statements[0].If)
	assert.Equal(t, "fib(n - 1) + fib(n - 2)", fib.Body.Statements[1].Return.Value.String())

	compute := c.Parts[2].Function
	require.Len(t, compute.Body.Statements, 1)
	assign := compute.Body.Statements[0].Expr
	require.NotNil(t, assign)
	assert.Equal(t, "=", assign.Op)
	assert.Equal(t, "results[n]", assign.Target.String())
}

func TestInheritanceWithArguments(t *testing.T) {
	unit := parse(t, `
contract X {
    uint public x;
    constructor(uint _x) { x = _x; }
}
contract Y is X(1) {
    uint public y;
}
abstract contract D is Y, X {
    constructor() X(2) {}
}
`)
	var contracts []*grammar.ContractDefinition
	for _, p := range unit.Parts {
		contracts = append(contracts, p.Contract)
	}
	require.Len(t, contracts, 3)

	y := contracts[1]
	require.Len(t, y.Bases, 1)
	assert.Equal(t, "X", y.Bases[0].Name)
	assert.True(t, y.Bases[0].HasArgs)
	require.Len(t, y.Bases[0].Args, 1)

	d := contracts[2]
	assert.True(t, d.Abstract)
	require.Len(t, d.Bases, 2)
	assert.False(t, d.Bases[0].HasArgs)

	ctor := d.Parts[0].Function
	require.NotNil(t, ctor)
	assert.Equal(t, "constructor", ctor.Kind)
	require.Len(t, ctor.Attrs, 1)
	require.NotNil(t, ctor.Attrs[0].Modifier)
	assert.Equal(t, "X", ctor.Attrs[0].Modifier.Name)
	assert.Equal(t, "2", ctor.Attrs[0].Modifier.Args[0].String())
}

func TestModifiersAndEvents(t *testing.T) {
	unit := parse(t, `
contract Owned {
    address owner;
    event OwnerChanged(address indexed previous, address next);
    error Unauthorized(address caller);

    modifier onlyOwner() {
        require(msg.sender == owner, "not owner");
        _;
    }

    function transfer(address next) external onlyOwner returns (bool ok) {
        emit OwnerChanged(owner, next);
        owner = next;
        ok = true;
    }
}
`)
	c := firstContract(t, unit)

	ev := c.Parts[1].Event
	require.NotNil(t, ev)
	require.Len(t, ev.Params, 2)
	assert.True(t, ev.Params[0].Indexed)
	assert.False(t, ev.Params[1].Indexed)

	er := c.Parts[2].Error
	require.NotNil(t, er)
	assert.Equal(t, "Unauthorized", er.Name)

	mod := c.Parts[3].Modifier
	require.NotNil(t, mod)
	require.Len(t, mod.Body.Statements, 2)
	assert.True(t, mod.Body.Statements[1].Placeholder)

	fn := c.Parts[4].Function
	require.Len(t, fn.Attrs, 2)
	assert.Equal(t, "onlyOwner", fn.Attrs[1].Modifier.Name)
	require.Len(t, fn.Returns, 1)
	assert.Equal(t, "ok", fn.Returns[0].Name)
	assert.NotNil(t, fn.Body.Statements[0].Emit)
}

func TestStatements(t *testing.T) {
	unit := parse(t, `
contract Loops {
    uint[] items;

    function run(uint n) public returns (uint total) {
        for (uint i = 0; i < n; i++) {
            if (i % 2 == 0) continue;
            total += i;
        }
        uint j;
        while (j < 3) { j++; }
        do { j--; } while (j > 0);
        (uint a, uint b) = (1, 2);
        (a, b) = (b, a);
        delete items;
        unchecked { total = total * 2; }
        total = n > 10 ? total : 0;
        return total;
    }
}
`)
	fn := firstContract(t, unit).Parts[1].Function
	stmts := fn.Body.Statements
	require.Len(t, stmts, 10)

	loop := stmts[0].For
	require.NotNil(t, loop)
	require.NotNil(t, loop.Init.VarDecl)
	assert.Equal(t, "i", loop.Init.VarDecl.Name)
	assert.Equal(t, "i < n", loop.Cond.String())
	assert.Equal(t, "i++", loop.Post.String())

	assert.NotNil(t, stmts[1].VarDecl)
	assert.NotNil(t, stmts[2].While)
	assert.NotNil(t, stmts[3].DoWhile)
	require.NotNil(t, stmts[4].TupleDecl)
	assert.Len(t, stmts[4].TupleDecl.Vars, 2)
	require.NotNil(t, stmts[5].Expr)
	assert.Equal(t, "=", stmts[5].Expr.Op)
	assert.Equal(t, "delete items", stmts[6].Expr.String())
	assert.NotNil(t, stmts[7].Unchecked)
	assert.Equal(t, "conditional", stmts[8].Expr.Value.Describe())
	assert.NotNil(t, stmts[9].Return)
}

func TestRevertForms(t *testing.T) {
	unit := parse(t, `
contract R {
    error TooLow(uint got);
    function f(uint x) public pure {
        if (x == 0) revert("zero");
        if (x == 1) revert TooLow(x);
        revert();
    }
}
`)
	fn := firstContract(t, unit).Parts[1].Function
	stmts := fn.Body.Statements
	require.Len(t, stmts, 3)
	assert.Equal(t, `("zero")`, stmts[0].If.Then.Revert.Value.String())
	assert.Equal(t, "TooLow(x)", stmts[1].If.Then.Revert.Value.String())
	assert.Equal(t, "()", stmts[2].Revert.Value.String())
}

func TestExpressionForms(t *testing.T) {
	unit := parse(t, `
contract E {
    function f() public view returns (uint) {
        uint a = 0x1F + 2 ether + 1 days;
        uint b = type(uint8).max;
        uint[] memory c = new uint[](3);
        g({x: 1, y: 2});
        return IToken(msg.sender).balanceOf(address(this)) ** 2;
    }
}
`)
	stmts := firstContract(t, unit).Parts[0].Function.Body.Statements
	require.Len(t, stmts, 5)

	a := stmts[0].VarDecl.Value.Target.Cond
	assert.Equal(t, "0x1F", a.Left.Postfix.Primary.Number.Value)
	require.Len(t, a.Rest, 2)
	assert.Equal(t, "ether", a.Rest[0].Right.Postfix.Primary.Number.Unit)
	assert.Equal(t, "days", a.Rest[1].Right.Postfix.Primary.Number.Unit)

	assert.Equal(t, "type(uint8).max", stmts[1].VarDecl.Value.String())
	assert.Equal(t, "new uint[](3)", stmts[2].VarDecl.Value.String())
	assert.Equal(t, "memory", stmts[2].VarDecl.Location)

	call := stmts[3].Expr.Target.Cond.Left.Postfix.Suffix[0].Call
	require.Len(t, call.Named, 2)
	assert.Equal(t, "y", call.Named[1].Name)

	ret := stmts[4].Return.Value
	assert.Equal(t, "IToken(msg.sender).balanceOf(address(this)) ** 2", ret.String())
	assert.Equal(t, "binary expression", ret.Describe())
}

func TestInterfacesLibrariesAndUsing(t *testing.T) {
	unit := parse(t, `
import "./IToken.sol";
import {A, B} from "./lib.sol";

interface IToken {
    function balanceOf(address who) external view returns (uint256);
}

library SafeMath {
    function add(uint a, uint b) internal pure returns (uint) { return a + b; }
}

contract UsesLib {
    using SafeMath for uint;
    struct Point { uint x; uint y; }
    enum State { Idle, Running, Done }
    uint constant LIMIT = 10;
}
`)
	require.Len(t, unit.Parts, 5)
	assert.Equal(t, "./IToken.sol", unit.Parts[0].Import.Path)
	assert.Equal(t, []string{"A", "B"}, unit.Parts[1].Import.Symbols)

	iface := unit.Parts[2].Contract
	assert.Equal(t, "interface", iface.Kind)
	assert.Nil(t, iface.Parts[0].Function.Body)

	lib := unit.Parts[3].Contract
	assert.Equal(t, "library", lib.Kind)

	c := unit.Parts[4].Contract
	require.Len(t, c.Parts, 4)
	assert.Equal(t, "SafeMath", c.Parts[0].Using.Library)
	assert.Equal(t, "uint", c.Parts[0].Using.Target.Path)
	assert.Len(t, c.Parts[1].Struct.Fields, 2)
	assert.Equal(t, []string{"Idle", "Running", "Done"}, c.Parts[2].Enum.Values)
	assert.Equal(t, []string{"constant"}, c.Parts[3].Variable.Attrs)
}

func TestSyntaxErrorCarriesPosition(t *testing.T) {
	_, err := grammar.ParseSource("bad.sol", "contract A {\n    uint x = ;\n}\n")
	require.Error(t, err)

	ce, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.SyntaxError, ce.Kind)
	assert.Equal(t, "bad.sol", ce.Position.Filename)
	assert.Equal(t, 2, ce.Position.Line)
}

func TestParseFileMissing(t *testing.T) {
	_, err := grammar.ParseFile("does/not/exist.sol")
	assert.True(t, errors.IsKind(err, errors.IOError))
}
