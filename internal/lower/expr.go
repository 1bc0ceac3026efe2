package lower

import (
	"fmt"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

func (c *Context) lowerExpr(e ir.Expr) (rust.Expr, error) {
	switch x := e.(type) {
	case *ir.Literal:
		return c.literal(x, false)
	case *ir.Var:
		l := c.Lookup(x.Name)
		if l == nil {
			return nil, errors.Unexpected(x.Position(), "variable", "'"+x.Name+"'")
		}
		return rust.Id(l.Name), nil
	case *ir.FieldRef, *ir.Member, *ir.Index:
		return c.readAccess(e)
	case *ir.ConstRef:
		// constants are inlined at every use
		defer c.PushExpected(x.Const.Type)()
		return c.lowerExpr(x.Const.Value)
	case *ir.Binary:
		return c.binary(x)
	case *ir.Unary:
		return c.unary(x)
	case *ir.Call:
		return c.call(x)
	case *ir.LibraryCall:
		name := c.libraryName(x.Library, x.Function)
		sig, err := c.librarySignature(x.Function, name)
		if err != nil {
			return nil, err
		}
		args, err := c.args(x.Args, x.Function.Params)
		if err != nil {
			return nil, err
		}
		return &rust.Try{X: c.Backend.Call(c, sig, args)}, nil
	case *ir.ExternalCall:
		return c.externalCall(x)
	case *ir.ArrayLength:
		arr, err := c.lowerExpr(x.Array)
		if err != nil {
			return nil, err
		}
		return c.Backend.ArrayLen(c, arr), nil
	case *ir.ArrayPush, *ir.ArrayPop:
		return nil, errors.Unsupported(e.Position(), "push and pop inside an expression")
	case *ir.Env:
		return c.Backend.Env(c, x.Kind)
	case *ir.Ternary:
		return c.ternary(x)
	case *ir.TupleExpr:
		return c.tuple(x)
	case *ir.Cast:
		return c.cast(x)
	case *ir.EnumValue:
		return rust.Id(ir.TypeIdent(x.Enum.Name) + "::" + ir.TypeIdent(x.Variant.Name)), nil
	case *ir.StructLit:
		lit := &rust.StructLit{Name: ir.TypeIdent(x.Struct.Name)}
		for i, f := range x.Struct.Fields {
			v, err := c.OperandAs(x.Fields[i], f.Type)
			if err != nil {
				return nil, err
			}
			lit.Fields = append(lit.Fields, &rust.FieldInit{Name: ir.Ident(f.Name), Value: v})
		}
		return lit, nil
	case *ir.TypeBound:
		return c.Backend.IntBound(c, x.Of, x.Max)
	case *ir.NewArray:
		lt := indexType(x.Length)
		length, err := c.OperandAs(x.Length, lt)
		if err != nil {
			return nil, err
		}
		return c.Backend.NewArray(c, x.Elem, length, lt)
	case *ir.ArrayLit:
		at, ok := x.Typ.(*ir.ArrayType)
		if !ok {
			return nil, errors.Unexpected(x.Position(), "array", x.Typ.String())
		}
		elems := make([]rust.Expr, len(x.Elements))
		for i, el := range x.Elements {
			v, err := c.OperandAs(el, at.Elem)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return c.Backend.ArrayLit(c, at, elems)
	case *ir.ZeroValue:
		return c.Backend.Zero(c, x.Typ)
	}
	return nil, errors.Unexpected(e.Position(), "expression", fmt.Sprintf("%T", e))
}

// intTarget is the integer type a literal is coerced to: its own type once
// fixed, else the expected type, else uint256.
func (c *Context) intTarget(lit *ir.Literal) *ir.IntType {
	if t, ok := lit.Typ.(*ir.IntType); ok {
		return t
	}
	if t, ok := c.Expected().(*ir.IntType); ok {
		return t
	}
	return ir.Uint256
}

func (c *Context) literal(x *ir.Literal, neg bool) (rust.Expr, error) {
	switch x.Kind {
	case ir.BoolLiteral:
		if x.Bool {
			return rust.L("true"), nil
		}
		return rust.L("false"), nil
	case ir.StringLiteral:
		return c.Backend.StringLiteral(c, x.Str), nil
	}
	t := c.intTarget(x)
	if !ir.FitsInt(x.Int, t, neg) {
		sign := ""
		if neg {
			sign = "-"
		}
		return nil, errors.NumSize(x.Position(), "%s%s does not fit in %s", sign, x.Int.Dec(), t)
	}
	return c.Backend.IntLiteral(c, x.Int, neg, t)
}

func isLiteralType(t ir.Type) bool {
	_, ok := t.(*ir.LiteralType)
	return ok
}

// indexType is the type an index or length operand is lowered as.
func indexType(e ir.Expr) ir.Type {
	if isLiteralType(e.Type()) {
		return ir.Uint256
	}
	return e.Type()
}

func comparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// operandType picks the type both operands of a binary operator are lowered
// as: the type of the non-literal side, else the expected type.
func (c *Context) operandType(b *ir.Binary) ir.Type {
	lt, rt := b.Left.Type(), b.Right.Type()
	if shift(b.Op) {
		rt = ir.IntConst
	}
	if li, ok := lt.(*ir.IntType); ok {
		// mixed widths widen to the larger operand
		if ri, ok := rt.(*ir.IntType); ok && ri.Bits > li.Bits {
			return ri
		}
		return li
	}
	if !isLiteralType(lt) {
		return lt
	}
	if !isLiteralType(rt) {
		return rt
	}
	if !comparison(b.Op) {
		if t, ok := c.Expected().(*ir.IntType); ok {
			return t
		}
	}
	return ir.Uint256
}

// valueType is the type e has once lowered, which differs from its IR type
// for arithmetic on mixed widths.
func (c *Context) valueType(e ir.Expr) ir.Type {
	b, ok := e.(*ir.Binary)
	if !ok || comparison(b.Op) || b.Op == "&&" || b.Op == "||" {
		return e.Type()
	}
	return c.operandType(b)
}

func shift(op string) bool {
	return op == "<<" || op == ">>" || op == "**"
}

func (c *Context) binary(x *ir.Binary) (rust.Expr, error) {
	if x.Op == "&&" || x.Op == "||" {
		l, err := c.OperandAs(x.Left, ir.Bool)
		if err != nil {
			return nil, err
		}
		r, err := c.OperandAs(x.Right, ir.Bool)
		if err != nil {
			return nil, err
		}
		return &rust.Binary{Op: x.Op, Left: l, Right: r}, nil
	}

	lt := c.operandType(x)
	rt := lt
	if shift(x.Op) {
		// the exponent or shift amount keeps its own type; literals are u32
		rt = x.Right.Type()
		if isLiteralType(rt) {
			rt = &ir.IntType{Bits: 32}
		}
	}
	l, err := c.OperandAs(x.Left, lt)
	if err != nil {
		return nil, err
	}
	r, err := c.OperandAs(x.Right, rt)
	if err != nil {
		return nil, err
	}
	if comparison(x.Op) {
		l, r = Borrowed(l), Borrowed(r)
	}
	return c.Backend.Binary(c, x.Op, l, r, lt, rt)
}

func (c *Context) unary(x *ir.Unary) (rust.Expr, error) {
	switch x.Op {
	case "!":
		operand, err := c.OperandAs(x.Operand, ir.Bool)
		if err != nil {
			return nil, err
		}
		return rust.Not(operand), nil
	case "-":
		if lit, ok := x.Operand.(*ir.Literal); ok && lit.Kind == ir.IntLiteral {
			return c.literal(lit, true)
		}
	}
	t := x.Operand.Type()
	if isLiteralType(t) {
		if et, ok := c.Expected().(*ir.IntType); ok {
			t = et
		} else {
			t = ir.Uint256
		}
	}
	operand, err := c.OperandAs(x.Operand, t)
	if err != nil {
		return nil, err
	}
	return c.Backend.Unary(c, x.Op, operand, t)
}

// args lowers call arguments against the parameter types of the callee.
func (c *Context) args(args []ir.Expr, params []*ir.Param) ([]rust.Expr, error) {
	out := make([]rust.Expr, len(args))
	for i, arg := range args {
		var t ir.Type = arg.Type()
		if i < len(params) {
			t = params[i].Type
		}
		v, err := c.OperandAs(arg, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// call lowers an internal call. Plain calls reach the primary
// implementation, super calls the next one after the calling class, and
// qualified calls the implementation visible from the named base.
func (c *Context) call(x *ir.Call) (rust.Expr, error) {
	f := c.Contract.Lookup(x.Name, len(x.Args))
	if f == nil {
		return nil, errors.InvalidFunction(x.Position(), "no function '%s' taking %s", x.Name, plural(len(x.Args), "argument"))
	}

	var impl *ir.Implementation
	switch {
	case x.Super:
		impl = f.Next(x.Class)
	case x.Target != "":
		impl = c.targetImpl(f, x.Target)
	default:
		impl = f.Primary()
	}
	if impl == nil || impl.Body == nil {
		return nil, errors.InvalidFunction(x.Position(), "function '%s' has no implementation to call", x.Name)
	}

	sig, err := c.callSignature(f, impl)
	if err != nil {
		return nil, err
	}
	args, err := c.args(x.Args, impl.Params)
	if err != nil {
		return nil, err
	}
	return &rust.Try{X: c.Backend.Call(c, sig, args)}, nil
}

func (c *Context) targetImpl(f *ir.Function, target string) *ir.Implementation {
	base := c.Package.Contract(target)
	if base == nil {
		return nil
	}
	for _, class := range base.Chain {
		if impl := f.In(class); impl != nil && impl.Body != nil {
			return impl
		}
	}
	return nil
}

func (c *Context) externalCall(x *ir.ExternalCall) (rust.Expr, error) {
	addr, err := c.OperandAs(x.Address, ir.Address)
	if err != nil {
		return nil, err
	}
	name, ok := c.ref(refKey(x.Interface, addr))
	if !ok {
		return nil, errors.Unsupported(x.Position(), "external call in this position")
	}
	args, err := c.args(x.Args, x.Method.Params)
	if err != nil {
		return nil, err
	}
	return c.Backend.ExternalCall(c, x.Interface, x.Method, rust.Id(name), args)
}

func (c *Context) ternary(x *ir.Ternary) (rust.Expr, error) {
	cond, err := c.OperandAs(x.Cond, ir.Bool)
	if err != nil {
		return nil, err
	}
	t := x.Typ
	if isLiteralType(t) {
		t = c.Expected()
	}
	then, err := c.OperandAs(x.Then, t)
	if err != nil {
		return nil, err
	}
	els, err := c.OperandAs(x.Else, t)
	if err != nil {
		return nil, err
	}
	return &rust.If{
		Cond: cond,
		Then: &rust.Block{Tail: then},
		Else: &rust.BlockExpr{Block: &rust.Block{Tail: els}},
	}, nil
}

func (c *Context) tuple(x *ir.TupleExpr) (rust.Expr, error) {
	expected, _ := c.Expected().(*ir.TupleType)
	elems := make([]rust.Expr, len(x.Elements))
	for i, el := range x.Elements {
		if el == nil {
			return nil, errors.Unexpected(x.Position(), "value", "empty tuple component")
		}
		var t ir.Type = el.Type()
		if expected != nil && len(expected.Elements) == len(x.Elements) {
			t = expected.Elements[i]
		}
		v, err := c.OperandAs(el, t)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	if len(elems) == 1 {
		return elems[0], nil
	}
	return &rust.Tuple{Elems: elems}, nil
}

func (c *Context) cast(x *ir.Cast) (rust.Expr, error) {
	from := x.Value.Type()
	switch to := x.To.(type) {
	case *ir.ContractType:
		// contract references are held as their address
		return c.OperandAs(x.Value, ir.Address)
	case *ir.AddressType:
		if _, ok := from.(*ir.ContractType); ok {
			return c.Operand(x.Value)
		}
	case *ir.IntType:
		if isLiteralType(from) {
			return c.OperandAs(x.Value, to)
		}
	}
	if isLiteralType(from) {
		from = ir.Uint256
	}
	v, err := c.OperandAs(x.Value, from)
	if err != nil {
		return nil, err
	}
	if ir.SameType(from, x.To) {
		return v, nil
	}
	return c.Backend.Cast(c, v, from, x.To)
}
