package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/holiman/uint256"

	"sol2rs/grammar"
	"sol2rs/internal/errors"
)

var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"|":  5,
	"^":  6,
	"&":  7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
	"**": 11,
}

// builtins that parse as calls but have no lowering
var builtins = map[string]bool{
	"keccak256": true, "sha256": true, "ripemd160": true, "ecrecover": true,
	"addmod": true, "mulmod": true, "gasleft": true, "blockhash": true,
	"selfdestruct": true, "require": true, "assert": true,
}

type termKind int

const (
	termValue termKind = iota
	termType
	termTypeOf
	termNew
	termNamespace
	termContract
	termFunction
	termLibFunction
	termMethod
	termBuiltin
)

// term is a partially resolved postfix chain: a value, or something that
// only becomes a value once a member, index or call is applied.
type term struct {
	kind     termKind
	expr     Expr
	typ      Type
	name     string
	contract *Contract
	recv     Expr
	super    bool
	using    bool
	target   string
	pos      lexer.Position
}

func valueTerm(e Expr) term {
	return term{kind: termValue, expr: e, pos: e.Position()}
}

func (t term) value() (Expr, error) {
	if t.expr != nil && (t.kind == termValue || t.kind == termNamespace) {
		return t.expr, nil
	}
	return nil, errors.Unexpected(t.pos, "value", t.describe())
}

func (t term) describe() string {
	switch t.kind {
	case termType, termTypeOf:
		return "type '" + t.typ.String() + "'"
	case termNew:
		return "'new'"
	case termNamespace:
		return "'" + t.name + "'"
	case termContract:
		return string(t.contract.Kind) + " '" + t.contract.Name + "'"
	case termFunction, termLibFunction, termMethod:
		return "function '" + t.name + "'"
	case termBuiltin:
		return "builtin '" + t.name + "'"
	}
	return describeExpr(t.expr)
}

func (b *Builder) expr(e *grammar.Expression) (Expr, error) {
	if e.Op != "" {
		return nil, errors.Unexpected(e.Pos, "expression", "assignment")
	}
	return b.conditional(e.Target)
}

func (b *Builder) exprs(es []*grammar.Expression) ([]Expr, error) {
	out := make([]Expr, 0, len(es))
	for _, e := range es {
		x, err := b.expr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

func (b *Builder) conditional(c *grammar.Conditional) (Expr, error) {
	cond, err := b.binary(c.Cond)
	if err != nil || c.Then == nil {
		return cond, err
	}
	then, err := b.expr(c.Then)
	if err != nil {
		return nil, err
	}
	els, err := b.expr(c.Else)
	if err != nil {
		return nil, err
	}
	typ := then.Type()
	if _, ok := typ.(*LiteralType); ok {
		typ = els.Type()
	}
	return &Ternary{node: node{Pos: c.Pos}, Cond: cond, Then: then, Else: els, Typ: typ}, nil
}

func (b *Builder) binary(bin *grammar.Binary) (Expr, error) {
	left, err := b.unary(bin.Left)
	if err != nil || len(bin.Rest) == 0 {
		return left, err
	}
	f := &folder{operands: []Expr{left}}
	for _, r := range bin.Rest {
		right, err := b.unary(r.Right)
		if err != nil {
			return nil, err
		}
		f.operands = append(f.operands, right)
		f.ops = append(f.ops, r.Op)
		f.pos = append(f.pos, r.Pos)
	}
	return f.climb(f.operands[0], 0), nil
}

// folder applies operator precedence to a flat operand/operator list.
// Exponentiation is right-associative, everything else left.
type folder struct {
	operands []Expr
	ops      []string
	pos      []lexer.Position
	i        int
}

func (f *folder) climb(lhs Expr, min int) Expr {
	for f.i < len(f.ops) && binaryPrecedence[f.ops[f.i]] >= min {
		op, pos := f.ops[f.i], f.pos[f.i]
		prec := binaryPrecedence[op]
		f.i++
		rhs := f.operands[f.i]
		for f.i < len(f.ops) {
			next := binaryPrecedence[f.ops[f.i]]
			if next > prec {
				rhs = f.climb(rhs, prec+1)
			} else if next == prec && op == "**" {
				rhs = f.climb(rhs, prec)
			} else {
				break
			}
		}
		lhs = newBinary(pos, op, lhs, rhs)
	}
	return lhs
}

// newBinary types a binary expression and folds operations on two integer
// literals when the result fits in 256 bits.
func newBinary(pos lexer.Position, op string, left, right Expr) Expr {
	l, lok := left.(*Literal)
	r, rok := right.(*Literal)
	if lok && rok && l.Kind == IntLiteral && r.Kind == IntLiteral {
		if v, ok := foldLiterals(op, l.Int, r.Int); ok {
			return &Literal{node: node{Pos: pos}, Kind: IntLiteral, Int: v, Typ: IntConst}
		}
	}

	var typ Type
	switch op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		typ = Bool
	case "<<", ">>", "**":
		typ = left.Type()
	default:
		typ = left.Type()
		if _, ok := typ.(*LiteralType); ok {
			typ = right.Type()
		}
	}
	return &Binary{node: node{Pos: pos}, Op: op, Left: left, Right: right, Typ: typ}
}

func foldLiterals(op string, x, y *uint256.Int) (*uint256.Int, bool) {
	z := new(uint256.Int)
	switch op {
	case "+":
		_, overflow := z.AddOverflow(x, y)
		return z, !overflow
	case "-":
		if x.Lt(y) {
			return nil, false
		}
		return z.Sub(x, y), true
	case "*":
		_, overflow := z.MulOverflow(x, y)
		return z, !overflow
	case "/":
		if y.IsZero() {
			return nil, false
		}
		return z.Div(x, y), true
	case "%":
		if y.IsZero() {
			return nil, false
		}
		return z.Mod(x, y), true
	case "**":
		if y.GtUint64(256) {
			return nil, false
		}
		z.SetOne()
		for i := uint64(0); i < y.Uint64(); i++ {
			if _, overflow := z.MulOverflow(z, x); overflow {
				return nil, false
			}
		}
		return z, true
	case "<<":
		if y.GtUint64(255) || x.BitLen()+int(y.Uint64()) > 256 {
			return nil, false
		}
		return z.Lsh(x, uint(y.Uint64())), true
	case ">>":
		if y.GtUint64(255) {
			return z, true
		}
		return z.Rsh(x, uint(y.Uint64())), true
	}
	return nil, false
}

func (b *Builder) unary(u *grammar.Unary) (Expr, error) {
	if u.Postfix != nil {
		return b.postfix(u.Postfix)
	}
	switch u.Op {
	case "++", "--", "delete":
		return nil, errors.Unexpected(u.Pos, "expression", "'"+u.Op+"' inside an expression")
	}
	operand, err := b.unary(u.Operand)
	if err != nil {
		return nil, err
	}
	typ := operand.Type()
	if u.Op == "!" {
		typ = Bool
	}
	return &Unary{node: node{Pos: u.Pos}, Op: u.Op, Operand: operand, Typ: typ}, nil
}

func (b *Builder) postfix(p *grammar.Postfix) (Expr, error) {
	t, err := b.term(p)
	if err != nil {
		return nil, err
	}
	return t.value()
}

func (b *Builder) term(p *grammar.Postfix) (term, error) {
	t, err := b.primary(p.Primary)
	if err != nil {
		// IFoo(addr).f() naming an interface that was never declared
		if errors.IsKind(err, errors.NotStateVariable) && len(p.Suffix) >= 2 &&
			p.Suffix[0].Call != nil && p.Suffix[1].Member != "" {
			return term{}, errors.Unsupported(p.Pos, "undeclared interface "+p.Primary.Ident)
		}
		return term{}, err
	}
	for _, s := range p.Suffix {
		if t, err = b.suffix(t, s); err != nil {
			return term{}, err
		}
	}
	return t, nil
}

func (b *Builder) primary(p *grammar.Primary) (term, error) {
	at := node{Pos: p.Pos}
	switch {
	case p.Number != nil:
		v, err := ParseNumber(p.Number.Value, p.Number.Unit)
		if err != nil {
			return term{}, errors.NumSize(p.Pos, "%s", err)
		}
		return valueTerm(&Literal{node: at, Kind: IntLiteral, Int: v, Typ: IntConst}), nil

	case p.Strings != nil:
		return valueTerm(&Literal{node: at, Kind: StringLiteral, Str: strings.Join(p.Strings, ""), Typ: String}), nil

	case p.Bool != "":
		return valueTerm(&Literal{node: at, Kind: BoolLiteral, Bool: p.Bool == "true", Typ: Bool}), nil

	case p.TypeOf != nil:
		t, err := b.resolveType(p.TypeOf, b.contract)
		if err != nil {
			return term{}, err
		}
		return term{kind: termTypeOf, typ: t, pos: p.Pos}, nil

	case p.New != nil:
		t, err := b.resolveType(p.New, b.contract)
		if err != nil {
			return term{}, err
		}
		return term{kind: termNew, typ: t, pos: p.Pos}, nil

	case p.Tuple != nil:
		elems, err := b.exprs(p.Tuple.Elements)
		if err != nil {
			return term{}, err
		}
		if len(elems) == 1 {
			return valueTerm(elems[0]), nil
		}
		return valueTerm(&TupleExpr{node: at, Elements: elems}), nil

	case p.Array != nil:
		elems, err := b.exprs(p.Array.Elements)
		if err != nil {
			return term{}, err
		}
		var elem Type = IntConst
		for _, e := range elems {
			if _, ok := e.Type().(*LiteralType); !ok {
				elem = e.Type()
				break
			}
		}
		return valueTerm(&ArrayLit{node: at, Elements: elems, Typ: &ArrayType{Elem: elem, Length: len(elems)}}), nil
	}
	return b.ident(p.Ident, p.Pos)
}

// ident resolves a name: locals, then environment namespaces, storage and
// constants along the chain, functions, types and finally builtins.
func (b *Builder) ident(name string, pos lexer.Position) (term, error) {
	at := node{Pos: pos}
	if v := b.local(name); v != nil {
		return valueTerm(&Var{node: at, Name: v.Name, Typ: v.Type}), nil
	}

	switch name {
	case "this":
		return term{kind: termNamespace, name: name, expr: &Env{node: at, Kind: EnvThis}, pos: pos}, nil
	case "msg", "block", "tx", "abi", "super":
		return term{kind: termNamespace, name: name, pos: pos}, nil
	case "now":
		return valueTerm(&Env{node: at, Kind: EnvTimestamp}), nil
	case "payable":
		return term{kind: termType, typ: &AddressType{Payable: true}, pos: pos}, nil
	}

	if b.contract != nil {
		for _, class := range b.contract.ChainContracts() {
			for _, f := range class.Fields {
				if f.SolidityName == name {
					return valueTerm(&FieldRef{node: at, Field: f}), nil
				}
			}
			for _, k := range class.Constants {
				if k.SolidityName == name {
					return valueTerm(&ConstRef{node: at, Const: k}), nil
				}
			}
		}
	}
	for _, k := range b.pkg.Constants {
		if k.SolidityName == name {
			return valueTerm(&ConstRef{node: at, Const: k}), nil
		}
	}

	if b.contract != nil && findFunction(b.contract.ChainContracts(), name, -1) != nil {
		return term{kind: termFunction, name: name, pos: pos}, nil
	}

	if t, ok, err := elementaryType(name); ok {
		if err != nil {
			return term{}, errors.NumSize(pos, "%s", err)
		}
		return term{kind: termType, typ: t, pos: pos}, nil
	}
	if t := b.userType(name, b.contract); t != nil {
		if ct, ok := t.(*ContractType); ok {
			return term{kind: termContract, typ: t, contract: ct.Def, pos: pos}, nil
		}
		return term{kind: termType, typ: t, pos: pos}, nil
	}
	if builtins[name] {
		return term{kind: termBuiltin, name: name, pos: pos}, nil
	}
	return term{}, errors.NotState(pos, name)
}

// findFunction searches classes in order for name with the given arity; a
// negative arity matches any.
func findFunction(classes []*Contract, name string, arity int) *Function {
	for _, class := range classes {
		for _, f := range class.Functions {
			if f.SolidityName == name && (arity < 0 || len(f.Params) == arity) {
				return f
			}
		}
	}
	return nil
}

func (b *Builder) suffix(t term, s *grammar.Suffix) (term, error) {
	switch {
	case s.Member != "":
		return b.member(t, s.Member, s.Pos)
	case s.Index != nil:
		return b.index(t, s.Index)
	case s.Call != nil:
		return b.call(t, s.Call)
	}
	return term{}, errors.Unexpected(s.Pos, "expression", "'"+s.Incr+"' inside an expression")
}

func (b *Builder) usesCaller(pos lexer.Position) error {
	switch {
	case b.contract != nil && b.contract.Kind == KindLibrary:
		return errors.Unsupported(pos, "msg.sender in library "+b.contract.Name)
	case b.impl != nil:
		b.impl.UsesCaller = true
	case b.contract != nil:
		b.contract.InitUsesCaller = true
	}
	return nil
}

func (b *Builder) member(t term, name string, pos lexer.Position) (term, error) {
	at := node{Pos: pos}
	switch t.kind {
	case termNamespace:
		switch t.name + "." + name {
		case "msg.sender":
			if err := b.usesCaller(pos); err != nil {
				return term{}, err
			}
			return valueTerm(&Env{node: at, Kind: EnvSender}), nil
		case "msg.value":
			return valueTerm(&Env{node: at, Kind: EnvValue}), nil
		case "block.timestamp":
			return valueTerm(&Env{node: at, Kind: EnvTimestamp}), nil
		case "block.number":
			return valueTerm(&Env{node: at, Kind: EnvBlockNumber}), nil
		}
		switch t.name {
		case "this":
			return term{kind: termFunction, name: name, pos: pos}, nil
		case "super":
			return term{kind: termFunction, name: name, super: true, pos: pos}, nil
		}
		return term{}, errors.Unsupported(pos, t.name+"."+name)

	case termContract:
		c := t.contract
		if c.Kind == KindLibrary && findFunction([]*Contract{c}, name, -1) != nil {
			return term{kind: termLibFunction, contract: c, name: name, pos: pos}, nil
		}
		if ty := typeIn(c, name); ty != nil {
			return term{kind: termType, typ: ty, pos: pos}, nil
		}
		for _, k := range c.Constants {
			if k.SolidityName == name {
				return valueTerm(&ConstRef{node: at, Const: k}), nil
			}
		}
		if b.contract != nil && slices.Contains(b.contract.Chain, c.Name) && findFunction(c.ChainContracts(), name, -1) != nil {
			return term{kind: termFunction, name: name, target: c.Name, pos: pos}, nil
		}
		return term{}, errors.Unsupported(pos, c.Name+"."+name)

	case termType:
		if et, ok := t.typ.(*EnumType); ok {
			for _, v := range et.Def.Variants {
				if v.Name == name {
					return valueTerm(&EnumValue{node: at, Enum: et.Def, Variant: v}), nil
				}
			}
			return term{}, errors.Unexpected(pos, "variant of "+et.Def.Name, "'"+name+"'")
		}

	case termTypeOf:
		if it, ok := t.typ.(*IntType); ok && (name == "max" || name == "min") {
			return valueTerm(&TypeBound{node: at, Of: it, Max: name == "max"}), nil
		}
		return term{}, errors.Unsupported(pos, "type("+t.typ.String()+")."+name)

	case termValue:
		return b.valueMember(t.expr, name, pos)
	}
	return term{}, errors.Unexpected(pos, "value", t.describe())
}

func (b *Builder) valueMember(x Expr, name string, pos lexer.Position) (term, error) {
	if st, ok := x.Type().(*StructType); ok {
		for _, f := range st.Def.Fields {
			if f.Name == name {
				return valueTerm(&Member{node: node{Pos: pos}, Target: x, Name: name, Typ: f.Type}), nil
			}
		}
		return term{}, errors.Unexpected(pos, "field of "+st.Def.Name, "'"+name+"'")
	}

	if lib := b.usingFor(x.Type(), name); lib != nil {
		return term{kind: termMethod, recv: x, name: name, contract: lib, using: true, pos: pos}, nil
	}

	switch xt := x.Type().(type) {
	case *ArrayType:
		switch name {
		case "length":
			return valueTerm(&ArrayLength{node: node{Pos: pos}, Array: x}), nil
		case "push", "pop":
			return term{kind: termMethod, recv: x, name: name, pos: pos}, nil
		}
	case *ContractType:
		if xt.Def.Kind != KindInterface {
			return term{}, errors.Unsupported(pos, "calls to "+string(xt.Def.Kind)+" "+xt.Def.Name)
		}
		return term{kind: termMethod, recv: x, name: name, contract: xt.Def, pos: pos}, nil
	case *AddressType:
		return term{}, errors.Unsupported(pos, "address."+name)
	case *BytesType:
		return term{}, errors.Unsupported(pos, xt.String()+"."+name)
	}
	return term{}, errors.Unexpected(pos, "member of "+x.Type().String(), "'"+name+"'")
}

// usingFor finds a library attached with `using L for T` that defines name.
func (b *Builder) usingFor(t Type, name string) *Contract {
	if b.contract == nil {
		return nil
	}
	for _, class := range b.contract.ChainContracts() {
		for _, u := range class.Usings {
			if u.Target != nil && !SameType(u.Target, t) {
				continue
			}
			lib := b.pkg.Contract(u.Library)
			if f := findFunction([]*Contract{lib}, name, -1); f != nil && len(f.Params) > 0 {
				return lib
			}
		}
	}
	return nil
}

func (b *Builder) index(t term, idx *grammar.IndexSuffix) (term, error) {
	switch t.kind {
	case termType:
		length := -1
		if idx.Index != nil {
			n, err := b.arrayLength(idx.Index)
			if err != nil {
				return term{}, err
			}
			length = n
		}
		return term{kind: termType, typ: &ArrayType{Elem: t.typ, Length: length}, pos: t.pos}, nil
	case termValue:
	default:
		return term{}, errors.Unexpected(idx.Pos, "mapping or array", t.describe())
	}

	if idx.Index == nil {
		return term{}, errors.Unexpected(idx.Pos, "index", "'[]'")
	}
	key, err := b.expr(idx.Index)
	if err != nil {
		return term{}, err
	}
	at := node{Pos: idx.Pos}
	switch xt := t.expr.Type().(type) {
	case *MappingType:
		return valueTerm(&Index{node: at, Target: t.expr, Key: key, Typ: xt.Value}), nil
	case *ArrayType:
		return valueTerm(&Index{node: at, Target: t.expr, Key: key, Typ: xt.Elem}), nil
	case *BytesType:
		return term{}, errors.Unsupported(idx.Pos, "indexing "+xt.String())
	}
	return term{}, errors.Unexpected(idx.Pos, "mapping or array", t.expr.Type().String())
}

func (b *Builder) call(t term, c *grammar.CallSuffix) (term, error) {
	at := node{Pos: c.Pos}
	switch t.kind {
	case termType:
		return b.conversion(t.typ, c)

	case termContract:
		if t.contract.Kind != KindInterface {
			return term{}, errors.Unsupported(c.Pos, "calls to "+string(t.contract.Kind)+" "+t.contract.Name)
		}
		args, err := b.positional(c, 1)
		if err != nil {
			return term{}, err
		}
		return valueTerm(&Cast{node: at, To: t.typ, Value: args[0]}), nil

	case termFunction:
		return b.internalCall(t, c)

	case termLibFunction:
		return b.libraryCall(t.contract, t.name, nil, c)

	case termMethod:
		switch {
		case t.using:
			return b.libraryCall(t.contract, t.name, t.recv, c)
		case t.contract != nil:
			return b.externalCall(t.contract, t.recv, t.name, c)
		case t.name == "push":
			if len(c.Args) == 0 {
				return term{}, errors.Unsupported(c.Pos, "push() without a value")
			}
			args, err := b.positional(c, 1)
			if err != nil {
				return term{}, err
			}
			return valueTerm(&ArrayPush{node: at, Array: t.recv, Value: args[0]}), nil
		case t.name == "pop":
			if _, err := b.positional(c, 0); err != nil {
				return term{}, err
			}
			return valueTerm(&ArrayPop{node: at, Array: t.recv}), nil
		}

	case termNew:
		arr, ok := t.typ.(*ArrayType)
		if !ok {
			return term{}, errors.Unsupported(c.Pos, "contract creation")
		}
		args, err := b.positional(c, 1)
		if err != nil {
			return term{}, err
		}
		return valueTerm(&NewArray{node: at, Elem: arr.Elem, Length: args[0]}), nil

	case termBuiltin:
		return term{}, errors.Unsupported(c.Pos, t.name)
	}
	return term{}, errors.Unexpected(c.Pos, "function", t.describe())
}

// positional builds exactly n positional arguments.
func (b *Builder) positional(c *grammar.CallSuffix, n int) ([]Expr, error) {
	if len(c.Named) > 0 || len(c.Args) != n {
		return nil, errors.Unexpected(c.Pos, plural(n, "argument"), plural(len(c.Args)+len(c.Named), "argument"))
	}
	return b.exprs(c.Args)
}

// callArgs builds arguments in parameter order, reordering named ones.
func (b *Builder) callArgs(c *grammar.CallSuffix, names []string) ([]Expr, error) {
	if len(c.Named) == 0 {
		return b.exprs(c.Args)
	}
	args := make([]Expr, len(names))
	for _, na := range c.Named {
		i := slices.Index(names, na.Name)
		if i < 0 {
			return nil, errors.Unexpected(na.Pos, "parameter name", "'"+na.Name+"'")
		}
		if args[i] != nil {
			return nil, errors.Unexpected(na.Pos, "each argument once", "'"+na.Name+"' twice")
		}
		x, err := b.expr(na.Value)
		if err != nil {
			return nil, err
		}
		args[i] = x
	}
	if len(c.Named) != len(names) {
		return nil, errors.Unexpected(c.Pos, plural(len(names), "argument"), plural(len(c.Named), "argument"))
	}
	return args, nil
}

func paramNames(params []*Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func (b *Builder) conversion(typ Type, c *grammar.CallSuffix) (term, error) {
	at := node{Pos: c.Pos}
	if st, ok := typ.(*StructType); ok {
		names := make([]string, len(st.Def.Fields))
		for i, f := range st.Def.Fields {
			names[i] = f.Name
		}
		fields, err := b.callArgs(c, names)
		if err != nil {
			return term{}, err
		}
		if len(fields) != len(names) {
			return term{}, errors.Unexpected(c.Pos, plural(len(names), "field"), plural(len(fields), "field"))
		}
		return valueTerm(&StructLit{node: at, Struct: st.Def, Fields: fields}), nil
	}

	args, err := b.positional(c, 1)
	if err != nil {
		return term{}, err
	}
	value := args[0]
	if _, ok := typ.(*AddressType); ok {
		if lit, ok := value.(*Literal); ok && lit.Kind == IntLiteral && lit.Int.IsZero() {
			return valueTerm(&ZeroValue{node: at, Typ: Address}), nil
		}
		if env, ok := value.(*Env); ok && env.Kind == EnvThis {
			return valueTerm(env), nil
		}
	}
	return valueTerm(&Cast{node: at, To: typ, Value: value}), nil
}

func (b *Builder) internalCall(t term, c *grammar.CallSuffix) (term, error) {
	if b.contract == nil {
		return term{}, errors.Unexpected(c.Pos, "constant expression", "call to '"+t.name+"'")
	}
	arity := len(c.Args) + len(c.Named)

	var classes []*Contract
	switch {
	case t.target != "":
		classes = b.pkg.Contract(t.target).ChainContracts()
	case t.super:
		classes = b.contract.ChainContracts()[1:]
	default:
		classes = b.contract.ChainContracts()
	}
	fn := findFunction(classes, t.name, arity)
	if fn == nil {
		return term{}, errors.InvalidFunction(c.Pos, "no function '%s' taking %s", t.name, plural(arity, "argument"))
	}
	args, err := b.callArgs(c, paramNames(fn.Params))
	if err != nil {
		return term{}, err
	}

	if b.contract.Kind == KindLibrary {
		return valueTerm(&LibraryCall{node: node{Pos: c.Pos}, Library: b.contract, Function: fn, Args: args}), nil
	}
	if b.impl != nil {
		b.impl.Calls.Add(FunctionKey(t.name, arity))
	}
	return valueTerm(&Call{
		node:   node{Pos: c.Pos},
		Name:   t.name,
		Args:   args,
		Super:  t.super,
		Class:  b.contract.Name,
		Target: t.target,
		Typ:    fn.ReturnType(),
	}), nil
}

// libraryCall resolves L.f(args) or, with recv, x.f(args) under `using`.
func (b *Builder) libraryCall(lib *Contract, name string, recv Expr, c *grammar.CallSuffix) (term, error) {
	arity := len(c.Args) + len(c.Named)
	if recv != nil {
		arity++
	}
	fn := findFunction([]*Contract{lib}, name, arity)
	if fn == nil {
		return term{}, errors.InvalidFunction(c.Pos, "library '%s' has no function '%s' taking %s", lib.Name, name, plural(arity, "argument"))
	}
	names := paramNames(fn.Params)
	if recv != nil {
		names = names[1:]
	}
	args, err := b.callArgs(c, names)
	if err != nil {
		return term{}, err
	}
	if recv != nil {
		args = append([]Expr{recv}, args...)
	}
	return valueTerm(&LibraryCall{node: node{Pos: c.Pos}, Library: lib, Function: fn, Args: args}), nil
}

func (b *Builder) externalCall(iface *Contract, recv Expr, name string, c *grammar.CallSuffix) (term, error) {
	arity := len(c.Args) + len(c.Named)
	method := iface.Lookup(name, arity)
	if method == nil {
		return term{}, errors.InvalidFunction(c.Pos, "interface '%s' has no function '%s' taking %s", iface.Name, name, plural(arity, "argument"))
	}
	args, err := b.callArgs(c, paramNames(method.Params))
	if err != nil {
		return term{}, err
	}
	addr := recv
	if cast, ok := recv.(*Cast); ok {
		addr = cast.Value
	}
	if b.impl != nil {
		b.impl.ExternalCalls.Add(iface.Name)
	}
	return valueTerm(&ExternalCall{node: node{Pos: c.Pos}, Interface: iface, Method: method, Address: addr, Args: args}), nil
}

// primaryOf returns the postfix chain of a plain expression, or nil when
// the expression has operators.
func primaryOf(e *grammar.Expression) *grammar.Postfix {
	if e == nil || e.Op != "" || e.Target.Then != nil || len(e.Target.Cond.Rest) > 0 {
		return nil
	}
	return e.Target.Cond.Left.Postfix
}

func describeExpr(e Expr) string {
	switch x := e.(type) {
	case *Literal:
		return "literal"
	case *Var:
		return "variable '" + x.Name + "'"
	case *FieldRef:
		return "state variable '" + x.Field.SolidityName + "'"
	case *ConstRef:
		return "constant '" + x.Const.SolidityName + "'"
	case *Call, *LibraryCall, *ExternalCall:
		return "call"
	case *Binary, *Unary:
		return "operator expression"
	case *TupleExpr:
		return "tuple"
	}
	return "expression of type " + e.Type().String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
