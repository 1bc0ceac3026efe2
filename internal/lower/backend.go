// Package lower turns a flattened IR contract into a Rust syntax tree. The
// walk over statements and expressions is shared; everything that depends
// on the target framework is delegated to a Backend.
package lower

import (
	"github.com/holiman/uint256"

	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

// TypeLowerer maps IR types and constants to the target.
type TypeLowerer interface {
	// Type returns the Rust spelling of a value type. Mappings are only
	// valid as storage and are rejected here.
	Type(ctx *Context, t ir.Type) (string, error)
	// IsCopy reports whether values of t can be read without cloning.
	IsCopy(t ir.Type) bool
	IntLiteral(ctx *Context, v *uint256.Int, neg bool, t *ir.IntType) (rust.Expr, error)
	StringLiteral(ctx *Context, s string) rust.Expr
	Zero(ctx *Context, t ir.Type) (rust.Expr, error)
	IntBound(ctx *Context, t *ir.IntType, max bool) (rust.Expr, error)
	EnumItem(ctx *Context, e *ir.Enum) rust.Item
	StructItem(ctx *Context, s *ir.Struct) (rust.Item, error)
}

// ExprLowerer covers operators, conversions and dynamic arrays.
type ExprLowerer interface {
	// Binary lowers an arithmetic, bitwise or comparison operator. The
	// operand types differ only for shifts and exponentiation.
	Binary(ctx *Context, op string, l, r rust.Expr, lt, rt ir.Type) (rust.Expr, error)
	Unary(ctx *Context, op string, x rust.Expr, t ir.Type) (rust.Expr, error)
	Cast(ctx *Context, x rust.Expr, from, to ir.Type) (rust.Expr, error)

	// ArrayPlace reports whether arr[i] is an assignable place.
	ArrayPlace() bool
	ArrayIndex(ctx *Context, arr, idx rust.Expr, idxType ir.Type) (rust.Expr, error)
	ArraySet(ctx *Context, arr, idx rust.Expr, idxType ir.Type, value rust.Expr) (rust.Stmt, error)
	ArrayLen(ctx *Context, arr rust.Expr) rust.Expr
	ArrayPush(ctx *Context, arr, value rust.Expr) rust.Expr
	ArrayPop(ctx *Context, arr rust.Expr) rust.Expr
	NewArray(ctx *Context, elem ir.Type, length rust.Expr, lengthType ir.Type) (rust.Expr, error)
	ArrayLit(ctx *Context, t *ir.ArrayType, elems []rust.Expr) (rust.Expr, error)
}

// EnvLowerer reads msg.sender, block.timestamp and friends.
type EnvLowerer interface {
	Env(ctx *Context, kind ir.EnvKind) (rust.Expr, error)
}

// StorageLowerer declares and accesses contract storage.
type StorageLowerer interface {
	StorageItems(ctx *Context) ([]rust.Item, error)
	// FieldPlace returns an assignable expression for a non-mapping field
	// when the target keeps it in memory.
	FieldPlace(ctx *Context, f *ir.StorageField) (rust.Expr, bool)
	// ReadField reads a field, or a mapping entry when keys are given.
	// Missing mapping entries read as the zero value.
	ReadField(ctx *Context, f *ir.StorageField, keys []rust.Expr) (rust.Expr, error)
	WriteField(ctx *Context, f *ir.StorageField, keys []rust.Expr, value rust.Expr) (rust.Stmt, error)
}

type EventLowerer interface {
	EventItems(ctx *Context, events []*ir.Event) ([]rust.Item, error)
	Emit(ctx *Context, ev *ir.Event, args []rust.Expr) (rust.Stmt, error)
}

type ErrorLowerer interface {
	ErrorItems(ctx *Context, entries []*ir.ErrorEntry) ([]rust.Item, error)
	// Revert builds the error value a function returns for entry.
	Revert(ctx *Context, entry *ir.ErrorEntry, args []rust.Expr) (rust.Expr, error)
	// ResultType wraps a return type into the target's fallible result.
	ResultType(ret string) string
}

type ExternalLowerer interface {
	InterfaceItems(ctx *Context, iface *ir.Contract) ([]rust.Item, error)
	// ExternalRef builds a typed reference to the contract at addr. The
	// returned type may be empty when Rust can infer it.
	ExternalRef(ctx *Context, iface *ir.Contract, addr rust.Expr) (rust.Expr, string, error)
	ExternalCall(ctx *Context, iface *ir.Contract, method *ir.Function, ref rust.Expr, args []rust.Expr) (rust.Expr, error)
}

// FunctionLowerer owns calling conventions.
type FunctionLowerer interface {
	// Signature builds the function shell; the engine fills in the body.
	Signature(ctx *Context, sig *Signature) (*rust.Fn, error)
	// Preamble runs before the body of the function being lowered.
	Preamble(ctx *Context, sig *Signature) []rust.Stmt
	// Call invokes another function of the contract. The result is a
	// Result value; the engine applies `?`.
	Call(ctx *Context, callee *Signature, args []rust.Expr) rust.Expr
	// Constructor builds the deploy-time entry points around the init
	// helper, which takes params and returns Result<()>.
	Constructor(ctx *Context, init *Signature) ([]*rust.Fn, error)
}

// ModuleAssembler arranges the lowered pieces into a file.
type ModuleAssembler interface {
	Assemble(ctx *Context, m *Module) (*rust.File, error)
}

// Backend bundles every lowering concern for one target.
type Backend interface {
	Name() string
	TypeLowerer
	ExprLowerer
	EnvLowerer
	StorageLowerer
	EventLowerer
	ErrorLowerer
	ExternalLowerer
	FunctionLowerer
	ModuleAssembler
}

// SignatureKind distinguishes the shapes a backend has to emit.
type SignatureKind int

const (
	// Message is a public or external entry point.
	Message SignatureKind = iota
	// Helper is an internal function, a super implementation or an
	// initializer.
	Helper
	// LibraryFn is a library function lowered into the contract.
	LibraryFn
	// Init is the constructor body behind the deploy entry point.
	Init
)

// Signature describes a Rust function before its body is lowered.
type Signature struct {
	Name     string
	Kind     SignatureKind
	Function *ir.Function // nil for synthesized initializers
	Params   []*rust.Param
	Ret      string // Rust type of the Ok value, "()" for none
	Mutates  bool
	Caller   bool
	Payable  bool
}

// Exposed reports whether the signature is an entry point.
func (s *Signature) Exposed() bool {
	return s.Kind == Message
}

// Module is the lowered contract, handed to the assembler.
type Module struct {
	Name       string // snake_case module name
	Contract   *ir.Contract
	Types      []rust.Item
	Storage    []rust.Item
	Events     []rust.Item
	Errors     []rust.Item
	Interfaces []rust.Item
	Entry      []*rust.Fn // constructors and messages
	Helpers    []*rust.Fn
}
