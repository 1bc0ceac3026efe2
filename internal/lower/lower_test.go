package lower_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/grammar"
	"sol2rs/internal/backend/ink"
	"sol2rs/internal/backend/soroban"
	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

func lowerWith(t *testing.T, src string, b lower.Backend) (string, error) {
	t.Helper()
	unit, err := grammar.ParseSource("test.sol", src)
	require.NoError(t, err)
	pkg, err := ir.Build("test", unit, ir.NewCompilationContext())
	require.NoError(t, err)
	c, err := pkg.Main("")
	require.NoError(t, err)
	file, err := lower.Lower(c, b)
	if err != nil {
		return "", err
	}
	return rust.Print(file), nil
}

func mustLower(t *testing.T, src string, b lower.Backend) string {
	t.Helper()
	out, err := lowerWith(t, src, b)
	require.NoError(t, err)
	return out
}

const vault = `
pragma solidity ^0.8.0;

contract Vault {
    error Insufficient(uint256 available);

    address owner;
    uint256 balance;

    constructor() {
        owner = msg.sender;
    }

    modifier onlyOwner() {
        require(msg.sender == owner, "not owner");
        _;
    }

    function withdraw(uint256 amount) public onlyOwner {
        if (amount > balance) {
            revert Insufficient(balance);
        }
        balance -= amount;
    }
}
`

func TestModifiersAndErrors(t *testing.T) {
	out := mustLower(t, vault, ink.New(ink.V5))

	assert.Contains(t, out, "pub enum Error {")
	assert.Contains(t, out, "Insufficient(U256),")
	assert.Contains(t, out, "pub type Result<T> = core::result::Result<T, Error>;")
	assert.Contains(t, out, "code: 2,")
	assert.Contains(t, out, `message: String::from("not owner"),`)
	assert.Contains(t, out, "Error::Insufficient(")
	assert.Contains(t, out, "self.balance =")
	assert.Contains(t, out, "self.env().caller()")
	assert.NotContains(t, out, "fn only_owner")
}

const loops = `
pragma solidity ^0.8.0;

contract Loops {
    function sum(uint256 n) public pure returns (uint256 total) {
        for (uint256 i = 0; i < n; i++) {
            if (i == 3) {
                continue;
            }
            total += i;
        }
    }
}
`

func TestContinueRunsPostStatement(t *testing.T) {
	out := mustLower(t, loops, ink.New(ink.V5))

	assert.Contains(t, out, "let mut total")
	assert.Contains(t, out, "'l0: while")
	assert.Contains(t, out, "'c0: {")
	assert.Contains(t, out, "break 'c0;")
	assert.NotContains(t, out, "continue;")
}

const reader = `
pragma solidity ^0.8.0;

interface IToken {
    function balanceOf(address owner) external view returns (uint256);
}

contract Reader {
    function read(address token, address who) public view returns (uint256) {
        return IToken(token).balanceOf(who);
    }
}
`

func TestExternalCalls(t *testing.T) {
	out := mustLower(t, reader, ink.New(ink.V5))
	assert.Contains(t, out, "#[ink::trait_definition]")
	assert.Contains(t, out, "pub trait IToken {")
	assert.Contains(t, out, "selector = 0x70a08231")
	assert.Contains(t, out, "ink::contract_ref!(IToken)")
	assert.Contains(t, out, "token.into()")
	assert.Contains(t, out, ".balance_of(who)")

	out = mustLower(t, reader, soroban.New())
	assert.Contains(t, out, `#[contractclient(name = "ITokenClient")]`)
	assert.Contains(t, out, "ITokenClient::new(&env, &token)")
	assert.Contains(t, out, ".balance_of(&who)")
}

func TestUnusedInterfacesAreNotEmitted(t *testing.T) {
	src := `
interface IUnused { function ping() external; }
contract Plain { uint256 x; function set(uint256 v) public { x = v; } }
`
	out := mustLower(t, src, ink.New(ink.V5))
	assert.NotContains(t, out, "IUnused")
}

func TestSorobanRejectsMsgValue(t *testing.T) {
	src := `
contract Payable {
    uint256 received;
    function pay() public payable { received = msg.value; }
}
`
	_, err := lowerWith(t, src, soroban.New())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.UnsupportedType))

	out := mustLower(t, src, ink.New(ink.V5))
	assert.Contains(t, out, "payable")
	assert.Contains(t, out, "transferred_value()")
}

func TestBorrowedDropsPlaceClones(t *testing.T) {
	assert.Equal(t, "x", rust.PrintExpr(lower.Borrowed(rust.M(rust.Id("x"), "clone"))))
	assert.Equal(t, "self.owner", rust.PrintExpr(lower.Borrowed(rust.M(rust.Sel(rust.Id("self"), "owner"), "clone"))))
	assert.Equal(t, "f().clone()", rust.PrintExpr(lower.Borrowed(rust.M(rust.C("f"), "clone"))), "only place reads lose the clone")
	assert.Equal(t, "x", rust.PrintExpr(lower.Borrowed(rust.Id("x"))))
}
