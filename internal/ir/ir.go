package ir

// The IR is a resolved, backend-agnostic tree of contracts, functions,
// statements and expressions. It is built once from the concrete syntax
// tree and read-only afterwards; the only shared mutable state is the
// CompilationContext registry.

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
	mapset "github.com/deckarep/golang-set/v2"
)

// Package is one compilation unit.
type Package struct {
	Name       string
	Contracts  []*Contract
	Interfaces []*Contract
	Libraries  []*Contract
	Events     []*Event
	Errors     []*ErrorDef
	Enums      []*Enum
	Structs    []*Struct
	Constants  []*Constant
	Context    *CompilationContext

	byName map[string]*Contract
}

type ContractKind string

const (
	KindContract  ContractKind = "contract"
	KindInterface ContractKind = "interface"
	KindLibrary   ContractKind = "library"
)

// Contract is a contract, interface or library. The flattened tables
// (Chain, Storage, Dispatch, ModifierTable) are filled in once the whole
// package is declared.
type Contract struct {
	Name      string
	Kind      ContractKind
	Abstract  bool
	Bases     []string // declared `is` order
	BaseCalls []*BaseCall

	Fields      []*StorageField
	Constants   []*Constant
	Functions   []*Function
	Modifiers   []*Function
	Constructor *Function
	Events      []*Event
	Errors      []*ErrorDef
	Enums       []*Enum
	Structs     []*Struct
	Usings      []*Using

	// InitUsesCaller is set when a field initializer reads msg.sender.
	InitUsesCaller bool

	// Chain is the C3 linearization, most-derived first.
	Chain []string
	// Storage lists every field of the chain, base-first.
	Storage []*StorageField
	// Dispatch holds one entry per callable function of the flattened
	// contract, base-first in first-declaration order.
	Dispatch      []*Function
	ModifierTable map[string]*Function

	Pos lexer.Position

	pkg         *Package
	dispatch    map[string]*Function
	callerUsers mapset.Set[string]
}

// BaseCall carries constructor arguments for a base, written either in the
// inheritance list or as a constructor modifier. Args are evaluated in the
// scope of Declarer's constructor.
type BaseCall struct {
	Base     string
	Declarer string
	Args     []Expr
	Pos      lexer.Position
}

type StorageField struct {
	Name         string // target identifier
	SolidityName string
	Type         Type
	Value        Expr // inline initializer, nil when absent
	Public       bool
	Immutable    bool
	Class        string
	Pos          lexer.Position
}

type Constant struct {
	Name         string // SCREAMING_SNAKE target identifier
	SolidityName string
	Type         Type
	Value        Expr
	Class        string // empty for file-level constants
	Pos          lexer.Position
}

type FunctionKind int

const (
	FunctionKindFunction FunctionKind = iota
	FunctionKindConstructor
	FunctionKindFallback
	FunctionKindReceive
	FunctionKindModifier
	FunctionKindGetter
)

func (k FunctionKind) String() string {
	switch k {
	case FunctionKindConstructor:
		return "constructor"
	case FunctionKindFallback:
		return "fallback"
	case FunctionKindReceive:
		return "receive"
	case FunctionKindModifier:
		return "modifier"
	case FunctionKindGetter:
		return "getter"
	}
	return "function"
}

type Visibility string

const (
	Public   Visibility = "public"
	External Visibility = "external"
	Internal Visibility = "internal"
	Private  Visibility = "private"
)

// Exposed reports whether the function is part of the contract interface.
func (v Visibility) Exposed() bool {
	return v == Public || v == External
}

type Mutability string

const (
	NonPayable Mutability = ""
	Pure       Mutability = "pure"
	View       Mutability = "view"
	Payable    Mutability = "payable"
)

// Mutates reports whether the function may write contract state.
func (m Mutability) Mutates() bool {
	return m == NonPayable || m == Payable
}

type Param struct {
	Name string
	Type Type
}

// Function is one entry of a dispatch table. Implementations are ordered
// most-derived first; calls resolve to the first one with a body.
type Function struct {
	Name            string
	SolidityName    string
	Kind            FunctionKind
	Visibility      Visibility
	Mutability      Mutability
	Params          []*Param
	Returns         []*Param
	Implementations []*Implementation
}

// Key identifies a function by Solidity name and arity, which is how calls
// are resolved.
func (f *Function) Key() string {
	return FunctionKey(f.SolidityName, len(f.Params))
}

func FunctionKey(name string, arity int) string {
	return fmt.Sprintf("%s/%d", name, arity)
}

// Primary returns the implementation a call dispatches to.
func (f *Function) Primary() *Implementation {
	for _, impl := range f.Implementations {
		if impl.Implemented {
			return impl
		}
	}
	if len(f.Implementations) > 0 {
		return f.Implementations[0]
	}
	return nil
}

// Next returns the implementation following class in the linearized order,
// which is what `super.f()` inside class reaches.
func (f *Function) Next(class string) *Implementation {
	found := false
	for _, impl := range f.Implementations {
		if found && impl.Implemented {
			return impl
		}
		if impl.Class == class {
			found = true
		}
	}
	return nil
}

// In returns the implementation declared by class.
func (f *Function) In(class string) *Implementation {
	for _, impl := range f.Implementations {
		if impl.Class == class {
			return impl
		}
	}
	return nil
}

// ReturnType folds Returns into a single type.
func (f *Function) ReturnType() Type {
	return returnType(f.Returns)
}

func returnType(returns []*Param) Type {
	switch len(returns) {
	case 0:
		return Unit
	case 1:
		return returns[0].Type
	}
	elems := make([]Type, len(returns))
	for i, r := range returns {
		elems[i] = r.Type
	}
	return &TupleType{Elements: elems}
}

// Implementation is the body one class contributes to a function.
type Implementation struct {
	Class     string
	Params    []*Param
	Returns   []*Param
	Modifiers []*ModifierCall
	Body      *Block
	Virtual   bool
	Override  bool

	// Implemented is known at declaration; Body is built in a later pass.
	Implemented bool

	ExternalCalls mapset.Set[string] // interface names referenced
	Calls         mapset.Set[string] // function keys called
	UsesCaller    bool
	Pos           lexer.Position
}

type ModifierCall struct {
	Name string
	Args []Expr
	Pos  lexer.Position
}

type Event struct {
	Name      string
	Fields    []*EventField
	Anonymous bool
	Class     string
	Pos       lexer.Position
}

type EventField struct {
	Name    string
	Type    Type
	Indexed bool
}

// ErrorDef is a custom `error` declaration.
type ErrorDef struct {
	Name   string
	Fields []*Param
	Class  string
	Entry  *ErrorEntry
	Pos    lexer.Position
}

type Enum struct {
	Name     string
	Variants []*EnumVariant
	Class    string
	Pos      lexer.Position
}

// EnumVariant carries its zero-based discriminant; variant 0 is the
// default value.
type EnumVariant struct {
	Name         string
	Discriminant int
	Default      bool
}

type Struct struct {
	Name   string
	Fields []*Param
	Class  string
	Pos    lexer.Position
}

// Using is `using Library for Type;`. A nil Target means `*`.
type Using struct {
	Library string
	Target  Type
}

// Contract looks up any contract, interface or library by name.
func (p *Package) Contract(name string) *Contract {
	return p.byName[name]
}

// Main selects the contract to emit. With a name it must match a concrete
// contract; otherwise the last declared concrete contract that no other
// contract inherits from is chosen.
func (p *Package) Main(name string) (*Contract, error) {
	if name != "" {
		c := p.Contract(name)
		if c == nil || c.Kind != KindContract {
			return nil, fmt.Errorf("no contract named '%s'", name)
		}
		return c, nil
	}

	inherited := mapset.NewThreadUnsafeSet[string]()
	for _, c := range p.Contracts {
		for _, b := range c.Chain[1:] {
			inherited.Add(b)
		}
	}
	var last *Contract
	for _, c := range p.Contracts {
		if c.Abstract {
			continue
		}
		if !inherited.Contains(c.Name) {
			last = c
		}
	}
	if last == nil && len(p.Contracts) > 0 {
		last = p.Contracts[len(p.Contracts)-1]
	}
	if last == nil {
		return nil, fmt.Errorf("no contract to compile")
	}
	return last, nil
}

// Lookup resolves a call by Solidity name and arity against the flattened
// dispatch table.
func (c *Contract) Lookup(name string, arity int) *Function {
	return c.dispatch[FunctionKey(name, arity)]
}

// LookupName finds a function by Solidity name when exactly one arity
// exists, which is how named arguments and getters are resolved.
func (c *Contract) LookupName(name string) *Function {
	var found *Function
	for _, f := range c.Dispatch {
		if f.SolidityName == name {
			if found != nil {
				return nil
			}
			found = f
		}
	}
	return found
}

// NeedsCaller reports whether the function, or anything it transitively
// calls or is guarded by, reads msg.sender.
func (c *Contract) NeedsCaller(f *Function) bool {
	return c.callerUsers != nil && c.callerUsers.Contains(f.Key())
}

// Field finds a storage field visible in the flattened contract.
func (c *Contract) Field(name string) *StorageField {
	for i := len(c.Storage) - 1; i >= 0; i-- {
		if c.Storage[i].SolidityName == name {
			return c.Storage[i]
		}
	}
	return nil
}

// Package returns the package the contract belongs to.
func (c *Contract) Package() *Package {
	return c.pkg
}

// ChainContracts resolves Chain to contracts, most-derived first.
func (c *Contract) ChainContracts() []*Contract {
	out := make([]*Contract, 0, len(c.Chain))
	for _, name := range c.Chain {
		if cc := c.pkg.Contract(name); cc != nil {
			out = append(out, cc)
		}
	}
	return out
}

// VisibleEvents returns file-level events followed by the events declared
// along the chain, base-first.
func (c *Contract) VisibleEvents() []*Event {
	out := append([]*Event(nil), c.pkg.Events...)
	for i := len(c.Chain) - 1; i >= 0; i-- {
		out = append(out, c.pkg.Contract(c.Chain[i]).Events...)
	}
	return out
}

func (c *Contract) VisibleEnums() []*Enum {
	out := append([]*Enum(nil), c.pkg.Enums...)
	for i := len(c.Chain) - 1; i >= 0; i-- {
		out = append(out, c.pkg.Contract(c.Chain[i]).Enums...)
	}
	return out
}

func (c *Contract) VisibleStructs() []*Struct {
	out := append([]*Struct(nil), c.pkg.Structs...)
	for i := len(c.Chain) - 1; i >= 0; i-- {
		out = append(out, c.pkg.Contract(c.Chain[i]).Structs...)
	}
	return out
}

func (c *Contract) VisibleConstants() []*Constant {
	out := append([]*Constant(nil), c.pkg.Constants...)
	for i := len(c.Chain) - 1; i >= 0; i-- {
		out = append(out, c.pkg.Contract(c.Chain[i]).Constants...)
	}
	return out
}
