// Package rust is a small Rust syntax tree covering what the backends emit,
// with a precedence-aware printer and an optional rustfmt pass.
package rust

// File is one generated source file.
type File struct {
	InnerAttrs []string // #![...] without the brackets
	Items      []Item
}

type Item interface{ item() }

type Use struct {
	Path string
}

type Module struct {
	Attrs []string
	Name  string
	Items []Item
}

type Field struct {
	Attrs []string
	Pub   bool
	Name  string
	Type  string
}

// Struct is a named struct; with no fields and Unit set it prints as
// `pub struct Name;`.
type Struct struct {
	Attrs  []string
	Name   string
	Fields []*Field
	Unit   bool
}

type Variant struct {
	Attrs        []string
	Name         string
	Fields       []*Field // struct-like variant
	Tuple        []string // tuple variant
	Discriminant string
}

type Enum struct {
	Attrs    []string
	Name     string
	Variants []*Variant
}

type TypeAlias struct {
	Name string // may carry generics, e.g. "Result<T>"
	Type string
}

type Const struct {
	Name  string
	Type  string
	Value Expr
}

type Impl struct {
	Attrs []string
	Trait string
	Type  string
	Fns   []*Fn
}

type Trait struct {
	Attrs []string
	Name  string
	Fns   []*Fn
}

type Param struct {
	Name string
	Type string
}

// Fn is a function or method. A nil Body prints a trait signature.
type Fn struct {
	Attrs    []string
	Pub      bool
	Name     string
	Receiver string // "&self", "&mut self" or empty
	Params   []*Param
	Ret      string
	Body     *Block
}

// RawItem is emitted verbatim, one line per line of Text.
type RawItem struct {
	Text string
}

func (*Use) item()       {}
func (*Module) item()    {}
func (*Struct) item()    {}
func (*Enum) item()      {}
func (*TypeAlias) item() {}
func (*Const) item()     {}
func (*Impl) item()      {}
func (*Trait) item()     {}
func (*Fn) item()        {}
func (*RawItem) item()   {}

// Block is `{ stmts; tail }`.
type Block struct {
	Stmts []Stmt
	Tail  Expr
}

type Stmt interface{ stmt() }

type Let struct {
	Mut   bool
	Name  string // identifier or pattern
	Type  string
	Value Expr
}

type ExprStmt struct {
	X Expr
}

type Assign struct {
	Target Expr
	Op     string // "=", "+=", ...
	Value  Expr
}

type While struct {
	Label string
	Cond  Expr
	Body  *Block
}

type Loop struct {
	Label string
	Body  *Block
}

// LabeledBlock is `'label: { ... }`, which `break 'label` leaves.
type LabeledBlock struct {
	Label string
	Body  *Block
}

type Break struct {
	Label string
}

type Continue struct {
	Label string
}

type Return struct {
	Value Expr
}

func (*Let) stmt()          {}
func (*ExprStmt) stmt()     {}
func (*Assign) stmt()       {}
func (*While) stmt()        {}
func (*Loop) stmt()         {}
func (*LabeledBlock) stmt() {}
func (*Break) stmt()        {}
func (*Continue) stmt()     {}
func (*Return) stmt()       {}

type Expr interface{ expr() }

// Ident is a name or path, e.g. `x`, `Self::f` or `DataKey::Owner`.
type Ident struct {
	Name string
}

// Lit is literal text such as `5u32`, `true` or `"abc"`.
type Lit struct {
	Text string
}

type FieldAccess struct {
	X    Expr
	Name string
}

type MethodCall struct {
	Recv   Expr
	Method string
	Args   []Expr
}

type Call struct {
	Fn   Expr
	Args []Expr
}

type Macro struct {
	Name string // without the bang
	Args []Expr
}

type Binary struct {
	Op    string
	Left  Expr
	Right Expr
}

type Unary struct {
	Op string // "!", "-", "*", "&", "&mut "
	X  Expr
}

type IndexExpr struct {
	X     Expr
	Index Expr
}

type Tuple struct {
	Elems []Expr
}

type FieldInit struct {
	Name  string
	Value Expr
}

type StructLit struct {
	Name   string
	Fields []*FieldInit
	Base   Expr // `..base`
}

type Cast struct {
	X    Expr
	Type string
}

type Try struct {
	X Expr
}

// If is an if expression; with Let set it is `if let <Let> = Cond`.
type If struct {
	Let  string
	Cond Expr
	Then *Block
	Else Expr // *If or *BlockExpr
}

type BlockExpr struct {
	Block *Block
}

type ArrayLit struct {
	Elems []Expr
}

func (*Ident) expr()       {}
func (*Lit) expr()         {}
func (*FieldAccess) expr() {}
func (*MethodCall) expr()  {}
func (*Call) expr()        {}
func (*Macro) expr()       {}
func (*Binary) expr()      {}
func (*Unary) expr()       {}
func (*IndexExpr) expr()   {}
func (*Tuple) expr()       {}
func (*StructLit) expr()   {}
func (*Cast) expr()        {}
func (*Try) expr()         {}
func (*If) expr()          {}
func (*BlockExpr) expr()   {}
func (*ArrayLit) expr()    {}

// Helpers used throughout the backends.

func Id(name string) *Ident { return &Ident{Name: name} }

func L(text string) *Lit { return &Lit{Text: text} }

func M(recv Expr, method string, args ...Expr) *MethodCall {
	return &MethodCall{Recv: recv, Method: method, Args: args}
}

func C(fn string, args ...Expr) *Call {
	return &Call{Fn: Id(fn), Args: args}
}

func Ref(x Expr) *Unary { return &Unary{Op: "&", X: x} }

func Not(x Expr) *Unary { return &Unary{Op: "!", X: x} }

func Sel(x Expr, name string) *FieldAccess { return &FieldAccess{X: x, Name: name} }

func Str(s string) *Lit { return &Lit{Text: Quote(s)} }
