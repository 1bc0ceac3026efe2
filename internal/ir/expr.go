package ir

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/holiman/uint256"
)

// Expr is a typed IR expression.
type Expr interface {
	Type() Type
	Position() lexer.Position
	exprNode()
}

type node struct {
	Pos lexer.Position
}

func (n node) Position() lexer.Position { return n.Pos }

type LiteralKind int

const (
	IntLiteral LiteralKind = iota
	BoolLiteral
	StringLiteral
)

// Literal holds an integer (already scaled by its unit), bool or string
// constant. Integer literals are typed *LiteralType until coerced.
type Literal struct {
	node
	Kind LiteralKind
	Int  *uint256.Int
	Bool bool
	Str  string
	Typ  Type
}

// Var reads a local variable or parameter.
type Var struct {
	node
	Name string
	Typ  Type
}

// FieldRef reads a storage field.
type FieldRef struct {
	node
	Field *StorageField
}

type ConstRef struct {
	node
	Const *Constant
}

// Member is struct field access.
type Member struct {
	node
	Target Expr
	Name   string
	Typ    Type
}

// Index is mapping or array element access.
type Index struct {
	node
	Target Expr
	Key    Expr
	Typ    Type
}

type Binary struct {
	node
	Op    string
	Left  Expr
	Right Expr
	Typ   Type
}

type Unary struct {
	node
	Op      string
	Operand Expr
	Typ     Type
}

// Call is an internal call resolved against the dispatch table of the
// contract being lowered. Super calls reach the implementation after Class;
// a non-empty Target names the class whose implementation runs.
type Call struct {
	node
	Name   string
	Args   []Expr
	Super  bool
	Class  string
	Target string
	Typ    Type
}

// Key is the dispatch key of the callee.
func (c *Call) Key() string { return FunctionKey(c.Name, len(c.Args)) }

type LibraryCall struct {
	node
	Library  *Contract
	Function *Function
	Args     []Expr
}

// ExternalCall is IFoo(addr).method(args).
type ExternalCall struct {
	node
	Interface *Contract
	Method    *Function
	Address   Expr
	Args      []Expr
}

type ArrayPush struct {
	node
	Array Expr
	Value Expr
}

type ArrayPop struct {
	node
	Array Expr
}

type ArrayLength struct {
	node
	Array Expr
}

type EnvKind int

const (
	EnvSender EnvKind = iota
	EnvTimestamp
	EnvBlockNumber
	EnvValue
	EnvThis
)

// Env reads the execution environment: msg.sender, block.timestamp, ...
type Env struct {
	node
	Kind EnvKind
}

type Ternary struct {
	node
	Cond Expr
	Then Expr
	Else Expr
	Typ  Type
}

type TupleExpr struct {
	node
	Elements []Expr
}

type Cast struct {
	node
	To    Type
	Value Expr
}

type EnumValue struct {
	node
	Enum    *Enum
	Variant *EnumVariant
}

type StructLit struct {
	node
	Struct *Struct
	Fields []Expr
}

// TypeBound is type(T).max or type(T).min.
type TypeBound struct {
	node
	Of  *IntType
	Max bool
}

type NewArray struct {
	node
	Elem   Type
	Length Expr
}

type ArrayLit struct {
	node
	Elements []Expr
	Typ      Type
}

// ZeroValue is the default value of a type, used for `delete` and for
// address(0).
type ZeroValue struct {
	node
	Typ Type
}

func (e *Literal) Type() Type      { return e.Typ }
func (e *Var) Type() Type          { return e.Typ }
func (e *FieldRef) Type() Type     { return e.Field.Type }
func (e *ConstRef) Type() Type     { return e.Const.Type }
func (e *Member) Type() Type       { return e.Typ }
func (e *Index) Type() Type        { return e.Typ }
func (e *Binary) Type() Type       { return e.Typ }
func (e *Unary) Type() Type        { return e.Typ }
func (e *Call) Type() Type         { return e.Typ }
func (e *LibraryCall) Type() Type  { return e.Function.ReturnType() }
func (e *ExternalCall) Type() Type { return e.Method.ReturnType() }
func (e *ArrayPush) Type() Type    { return Unit }
func (e *ArrayPop) Type() Type     { return Unit }
func (e *ArrayLength) Type() Type  { return Uint256 }
func (e *Ternary) Type() Type      { return e.Typ }
func (e *Cast) Type() Type         { return e.To }
func (e *EnumValue) Type() Type    { return &EnumType{Def: e.Enum} }
func (e *StructLit) Type() Type    { return &StructType{Def: e.Struct} }
func (e *TypeBound) Type() Type    { return e.Of }
func (e *NewArray) Type() Type     { return &ArrayType{Elem: e.Elem, Length: -1} }
func (e *ArrayLit) Type() Type     { return e.Typ }
func (e *ZeroValue) Type() Type    { return e.Typ }
func (e *TupleExpr) Type() Type {
	elems := make([]Type, len(e.Elements))
	for i, el := range e.Elements {
		if el == nil {
			elems[i] = Unit
			continue
		}
		elems[i] = el.Type()
	}
	return &TupleType{Elements: elems}
}
func (e *Env) Type() Type {
	switch e.Kind {
	case EnvSender, EnvThis:
		return Address
	}
	return Uint256
}

func (*Literal) exprNode()      {}
func (*Var) exprNode()          {}
func (*FieldRef) exprNode()     {}
func (*ConstRef) exprNode()     {}
func (*Member) exprNode()       {}
func (*Index) exprNode()        {}
func (*Binary) exprNode()       {}
func (*Unary) exprNode()        {}
func (*Call) exprNode()         {}
func (*LibraryCall) exprNode()  {}
func (*ExternalCall) exprNode() {}
func (*ArrayPush) exprNode()    {}
func (*ArrayPop) exprNode()     {}
func (*ArrayLength) exprNode()  {}
func (*Env) exprNode()          {}
func (*Ternary) exprNode()      {}
func (*TupleExpr) exprNode()    {}
func (*Cast) exprNode()         {}
func (*EnumValue) exprNode()    {}
func (*StructLit) exprNode()    {}
func (*TypeBound) exprNode()    {}
func (*NewArray) exprNode()     {}
func (*ArrayLit) exprNode()     {}
func (*ZeroValue) exprNode()    {}

// IsZeroAddress reports whether e is address(0).
func IsZeroAddress(e Expr) bool {
	z, ok := e.(*ZeroValue)
	if !ok {
		return false
	}
	_, isAddr := z.Typ.(*AddressType)
	return isAddr
}

// StorageRoot returns the storage field an lvalue expression is rooted at,
// walking through index and member accesses.
func StorageRoot(e Expr) *FieldRef {
	for {
		switch x := e.(type) {
		case *FieldRef:
			return x
		case *Index:
			e = x.Target
		case *Member:
			e = x.Target
		default:
			return nil
		}
	}
}
