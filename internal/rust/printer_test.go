package rust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol2rs/internal/errors"
)

func TestPrintExprPrecedence(t *testing.T) {
	a, b, c := Id("a"), Id("b"), Id("c")

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"lower precedence on the left", &Binary{Op: "*", Left: &Binary{Op: "+", Left: a, Right: b}, Right: c}, "(a + b) * c"},
		{"left associative", &Binary{Op: "-", Left: a, Right: &Binary{Op: "-", Left: b, Right: c}}, "a - (b - c)"},
		{"no parens needed", &Binary{Op: "+", Left: &Binary{Op: "*", Left: a, Right: b}, Right: c}, "a * b + c"},
		{"negated comparison", Not(&Binary{Op: "==", Left: a, Right: b}), "!(a == b)"},
		{"method on binary", M(&Binary{Op: "+", Left: a, Right: b}, "pow", L("2")), "(a + b).pow(2)"},
		{"cast", &Cast{X: &Binary{Op: "+", Left: a, Right: b}, Type: "u64"}, "(a + b) as u64"},
		{"negative literal receiver", M(L("-5i128"), "abs"), "(-5i128).abs()"},
		{"try", &Try{X: C("f", Id("x"))}, "f(x)?"},
		{"comparisons do not chain", &Binary{Op: "==", Left: &Binary{Op: "<", Left: a, Right: b}, Right: c}, "(a < b) == c"},
		{"reference", Ref(&Tuple{Elems: []Expr{a, b}}), "&(a, b)"},
		{"one tuple", &Tuple{Elems: []Expr{a}}, "(a,)"},
		{"macro", &Macro{Name: "panic_with_error", Args: []Expr{Ref(Id("env")), Id("e")}}, "panic_with_error!(&env, e)"},
		{"path call", &Call{Fn: Id("Self::get"), Args: []Expr{Ref(Id("env"))}}, "Self::get(&env)"},
		{"index", &IndexExpr{X: Sel(Id("self"), "items"), Index: L("0")}, "self.items[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrintExpr(tt.expr))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, Quote("plain"))
	assert.Equal(t, `"a\"b\n"`, Quote("a\"b\n"))
	assert.Equal(t, `"back\\slash"`, Quote(`back\slash`))
	assert.Equal(t, `"bell\u{7}"`, Quote("bell\a"))
	assert.Equal(t, `"héllo"`, Quote("héllo"))
	assert.Equal(t, `"x"`, Str("x").Text)
}

func TestPrintFile(t *testing.T) {
	f := &File{
		InnerAttrs: []string{"no_std"},
		Items: []Item{
			&Use{Path: "soroban_sdk::Env"},
			&Use{Path: "soroban_sdk::Address"},
			&Struct{Attrs: []string{"contract"}, Name: "Counter", Unit: true},
			&Impl{Type: "Counter", Fns: []*Fn{{
				Pub:    true,
				Name:   "get",
				Params: []*Param{{Name: "env", Type: "Env"}},
				Ret:    "u32",
				Body: &Block{
					Stmts: []Stmt{&Let{Name: "x", Type: "u32", Value: L("1u32")}},
					Tail:  Id("x"),
				},
			}}},
		},
	}

	want := `#![no_std]

use soroban_sdk::Env;
use soroban_sdk::Address;

#[contract]
pub struct Counter;

impl Counter {
    pub fn get(env: Env) -> u32 {
        let x: u32 = 1u32;
        x
    }
}
`
	assert.Equal(t, want, Print(f))
}

func TestPrintLabeledLoop(t *testing.T) {
	body := &Block{Stmts: []Stmt{
		&While{
			Label: "l0",
			Cond:  &Binary{Op: "<", Left: Id("i"), Right: Id("n")},
			Body: &Block{Stmts: []Stmt{
				&LabeledBlock{Label: "c0", Body: &Block{Stmts: []Stmt{
					&ExprStmt{X: &If{Cond: Id("skip"), Then: &Block{Stmts: []Stmt{&Break{Label: "c0"}}}}},
				}}},
				&Assign{Target: Id("i"), Op: "+=", Value: L("1")},
			}},
		},
	}}
	f := &File{Items: []Item{&Fn{Name: "run", Body: body}}}

	want := `fn run() {
    'l0: while i < n {
        'c0: {
            if skip {
                break 'c0;
            }
        }
        i += 1;
    }
}
`
	assert.Equal(t, want, Print(f))
}

func TestPrintItems(t *testing.T) {
	f := &File{Items: []Item{
		&Enum{
			Attrs: []string{"derive(Debug)"},
			Name:  "Error",
			Variants: []*Variant{
				{Name: "Revert", Fields: []*Field{{Name: "code", Type: "u32"}}},
				{Name: "Custom", Tuple: []string{"u32", "bool"}},
				{Name: "TooLow", Discriminant: "2"},
			},
		},
		&Trait{Name: "IToken", Fns: []*Fn{
			{Name: "balance_of", Receiver: "&self", Params: []*Param{{Name: "owner", Type: "AccountId"}}, Ret: "U256"},
		}},
		&TypeAlias{Name: "Result<T>", Type: "core::result::Result<T, Error>"},
	}}

	want := `#[derive(Debug)]
pub enum Error {
    Revert {
        code: u32,
    },
    Custom(u32, bool),
    TooLow = 2,
}

pub trait IToken {
    fn balance_of(&self, owner: AccountId) -> U256;
}

pub type Result<T> = core::result::Result<T, Error>;
`
	assert.Equal(t, want, Print(f))
}

func TestPrintIfElseChain(t *testing.T) {
	x := &If{
		Cond: Id("a"),
		Then: &Block{Tail: L("1")},
		Else: &If{
			Cond: Id("b"),
			Then: &Block{Tail: L("2")},
			Else: &BlockExpr{Block: &Block{Tail: L("3")}},
		},
	}
	want := "if a {\n    1\n} else if b {\n    2\n} else {\n    3\n}"
	assert.Equal(t, want, PrintExpr(x))
}

func TestPrintStructLit(t *testing.T) {
	lit := &StructLit{Name: "Transfer", Fields: []*FieldInit{
		{Name: "from", Value: Id("from")},
		{Name: "value", Value: L("5")},
	}}
	assert.Equal(t, "Transfer {\n    from,\n    value: 5,\n}", PrintExpr(lit))
	assert.Equal(t, "Empty {}", PrintExpr(&StructLit{Name: "Empty"}))
}

func TestFormatMissingBinary(t *testing.T) {
	_, err := NewFormatter("sol2rs-no-such-rustfmt").Format(context.Background(), "fn main() {}")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.FormatError))
}
