package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/internal/backend"
	"sol2rs/internal/errors"
)

const fibonacci = `
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

    function getResult(uint256 n) public view returns (uint256) {
        return results[n];
    }
}
`

const statusMessage = `
pragma solidity ^0.8.0;

contract StatusMessage {
    mapping(address => string) records;

    function setStatus(string memory status) public {
        records[msg.sender] = status;
    }

    function getStatus(address account) public view returns (string memory) {
        return records[account];
    }
}
`

const initOrder = `
pragma solidity ^0.8.0;

contract X {
    uint256 x;
    constructor(uint256 a) { x = a; }
}

contract Y is X {
    uint256 y;
    constructor(uint256 b) X(b + 1) { y = b; }
}

contract D is Y {
    uint256 d;
    constructor() Y(10) { d = 3; }
}
`

func TestCompileFibonacciInk(t *testing.T) {
	out, err := Compile("fibonacci.sol", fibonacci, backend.Ink)
	require.NoError(t, err)

	assert.Contains(t, out, "#[ink::contract]")
	assert.Contains(t, out, "#[ink(storage)]")
	assert.Contains(t, out, "Mapping<U256, U256>")
	assert.Contains(t, out, "pub fn compute(&mut self, n: U256) -> Result<()>")
	assert.Contains(t, out, "pub fn get_result(&self, n: U256) -> Result<U256>")
	assert.Contains(t, out, "pub fn results(&self, arg0: U256) -> Result<U256>")
	assert.Contains(t, out, "fn fib(&self, n: U256) -> Result<U256>")
	assert.Contains(t, out, ".unwrap_or_default()")
}

func TestCompileFibonacciSoroban(t *testing.T) {
	out, err := Compile("fibonacci.sol", fibonacci, backend.Soroban)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "#![no_std]"))
	assert.Contains(t, out, "#[contractimpl]")
	assert.Contains(t, out, "pub struct Fibonacci;")
	assert.Contains(t, out, "enum DataKey")
	assert.Contains(t, out, "Results(U256),")
	assert.Contains(t, out, "pub fn compute(env: Env, n: U256) -> Result<(), Error>")
	assert.Contains(t, out, "fn fib(env: &Env, n: U256) -> Result<U256, Error>")
	assert.Contains(t, out, "env.storage().persistent()")
	assert.Contains(t, out, "n <= U256::from_u128(&env, 1)")
	assert.Contains(t, out, "n.sub(&U256::from_u128(&env, 1))")
	assert.NotContains(t, out, "n.clone() <=")
}

func TestCompileStatusMessage(t *testing.T) {
	out, err := Compile("status.sol", statusMessage, backend.Ink)
	require.NoError(t, err)
	assert.Contains(t, out, "Mapping<AccountId, String>")
	assert.Contains(t, out, "self.env().caller()")
	assert.Contains(t, out, "pub fn get_status(&self, account: AccountId) -> Result<String>")

	out, err = Compile("status.sol", statusMessage, backend.InkV6)
	require.NoError(t, err)
	assert.Contains(t, out, "Mapping<H160, String>")

	out, err = Compile("status.sol", statusMessage, backend.Soroban)
	require.NoError(t, err)
	assert.Contains(t, out, "pub fn set_status(env: Env, caller: Address, status: String)")
	assert.Contains(t, out, "caller.require_auth();")
	assert.Contains(t, out, "Records(Address),")
	assert.Contains(t, out, ", &status);")
	assert.NotContains(t, out, "status.clone()")
}

func TestCompileFunctionOnlyContract(t *testing.T) {
	src := `contract C { function f() public pure returns (uint256) { return 1; } }`
	for _, kind := range []backend.Kind{backend.Ink, backend.InkV6, backend.Soroban} {
		out, err := Compile("c.sol", src, kind)
		require.NoError(t, err, kind)
		assert.Contains(t, out, "pub fn f(", kind)
	}
}

func TestCompileFieldInitializerWithoutConstructor(t *testing.T) {
	src := `contract C { uint256 x = 5; }`
	for _, kind := range []backend.Kind{backend.Ink, backend.Soroban} {
		var out string
		var err error
		require.NotPanics(t, func() {
			out, err = Compile("c.sol", src, kind)
		}, kind)
		require.NoError(t, err, kind)
		assert.Contains(t, out, "_init_c(", kind)
	}
}

func TestInitializersRunBaseFirst(t *testing.T) {
	out, err := Compile("init.sol", initOrder, backend.Ink)
	require.NoError(t, err)

	x := strings.Index(out, "self._init_x(")
	y := strings.Index(out, "self._init_y(")
	d := strings.Index(out, "self._init_d(")
	require.True(t, x >= 0 && y >= 0 && d >= 0, out)
	assert.Less(t, x, y)
	assert.Less(t, y, d)
}

func TestCompileSelectsContract(t *testing.T) {
	out, err := CompileWith(context.Background(), "init.sol", initOrder, backend.Ink, Options{Contract: "Y"})
	require.NoError(t, err)
	assert.Contains(t, out, "pub struct Y")
	assert.NotContains(t, out, "_init_d")

	_, err = CompileWith(context.Background(), "init.sol", initOrder, backend.Ink, Options{Contract: "Nope"})
	require.Error(t, err)
	_, ok := errors.As(err)
	assert.True(t, ok)
}

func TestCompileErrorsAreCompileErrors(t *testing.T) {
	_, err := Compile("bad.sol", "contract {", backend.Ink)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.SyntaxError))

	src := `contract M { mapping(uint256 => uint256) m = 1; }`
	_, err = Compile("m.sol", src, backend.Ink)
	assert.True(t, errors.IsKind(err, errors.MappingInit))

	_, err = Compile("fibonacci.sol", fibonacci, backend.Kind("evm"))
	assert.True(t, errors.IsKind(err, errors.UnsupportedType))
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "Fibonacci.sol")
	require.NoError(t, os.WriteFile(src, []byte(fibonacci), 0o644))

	dst := OutputPath(filepath.Join(dir, "out"), src)
	assert.Equal(t, filepath.Join(dir, "out", "fibonacci.rs"), dst)

	skipped, err := CompileFile(context.Background(), src, dst, backend.Ink, Options{})
	require.NoError(t, err)
	assert.False(t, skipped)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#[ink::contract]")

	skipped, err = CompileFile(context.Background(), src, dst, backend.Ink, Options{})
	require.NoError(t, err)
	assert.True(t, skipped)

	_, err = CompileFile(context.Background(), filepath.Join(dir, "missing.sol"), filepath.Join(dir, "missing.rs"), backend.Ink, Options{})
	assert.True(t, errors.IsKind(err, errors.IOError))
}
