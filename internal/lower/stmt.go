package lower

import (
	"fmt"
	"strings"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

func (c *Context) lowerBlock(b *ir.Block) (*rust.Block, error) {
	c.pushScope()
	defer c.popScope()
	stmts, err := c.lowerStmts(b.Stmts)
	if err != nil {
		return nil, err
	}
	return &rust.Block{Stmts: stmts}, nil
}

// lowerStmts lowers a statement list, declaring contract references for
// the external calls of each statement right before it.
func (c *Context) lowerStmts(stmts []ir.Stmt) ([]rust.Stmt, error) {
	var out []rust.Stmt
	for _, s := range stmts {
		refs, err := c.declareRefs(s)
		if err != nil {
			return nil, err
		}
		out = append(out, refs...)

		lowered, err := c.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

func externalCalls(s ir.Stmt) []*ir.ExternalCall {
	var calls []*ir.ExternalCall
	for _, e := range ir.DirectExprs(s) {
		ir.WalkExpr(e, func(x ir.Expr) bool {
			if call, ok := x.(*ir.ExternalCall); ok {
				calls = append(calls, call)
			}
			return true
		})
	}
	return calls
}

func (c *Context) declareRefs(s ir.Stmt) ([]rust.Stmt, error) {
	var out []rust.Stmt
	for _, call := range externalCalls(s) {
		addr, err := c.OperandAs(call.Address, ir.Address)
		if err != nil {
			return nil, err
		}
		key := refKey(call.Interface, addr)
		if _, ok := c.ref(key); ok {
			continue
		}
		value, typ, err := c.Backend.ExternalRef(c, call.Interface, addr)
		if err != nil {
			return nil, err
		}
		c.interfaces.Add(call.Interface.Name)
		name := c.declareRef(key, call.Interface.Name)
		out = append(out, &rust.Let{Mut: call.Method.Mutability.Mutates(), Name: name, Type: typ, Value: value})
	}
	return out, nil
}

func refKey(iface *ir.Contract, addr rust.Expr) string {
	return iface.Name + "@" + rust.PrintExpr(addr)
}

func (c *Context) lowerStmt(s ir.Stmt) ([]rust.Stmt, error) {
	switch x := s.(type) {
	case *ir.Block:
		b, err := c.lowerBlock(x)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{&rust.ExprStmt{X: &rust.BlockExpr{Block: b}}}, nil
	case *ir.DeclStmt:
		return c.declStmt(x)
	case *ir.AssignStmt:
		value, err := c.OperandAs(x.Value, x.Target.Type())
		if err != nil {
			return nil, err
		}
		return c.assign(x.Target, value)
	case *ir.ExprStmt:
		return c.exprStmt(x)
	case *ir.IfStmt:
		stmt, err := c.ifStmt(x)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{&rust.ExprStmt{X: stmt}}, nil
	case *ir.WhileStmt:
		return c.whileStmt(x)
	case *ir.ForStmt:
		return c.forStmt(x)
	case *ir.ReturnStmt:
		value, err := c.returnValue(x.Value)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{&rust.Return{Value: rust.C("Ok", value)}}, nil
	case *ir.RequireStmt:
		cond, err := c.OperandAs(x.Cond, ir.Bool)
		if err != nil {
			return nil, err
		}
		abort, err := c.revert(x.Error, nil)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{&rust.ExprStmt{X: &rust.If{
			Cond: rust.Not(cond),
			Then: &rust.Block{Stmts: []rust.Stmt{abort}},
		}}}, nil
	case *ir.RevertStmt:
		abort, err := c.revert(x.Error, x.Args)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{abort}, nil
	case *ir.EmitStmt:
		args := make([]rust.Expr, len(x.Args))
		for i, arg := range x.Args {
			v, err := c.OperandAs(arg, x.Event.Fields[i].Type)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		stmt, err := c.Backend.Emit(c, x.Event, args)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{stmt}, nil
	case *ir.BreakStmt:
		l, ok := c.currentLoop()
		if !ok {
			return nil, errors.Unexpected(x.Position(), "loop", "break")
		}
		if l.cont != "" {
			return []rust.Stmt{&rust.Break{Label: l.label}}, nil
		}
		return []rust.Stmt{&rust.Break{}}, nil
	case *ir.ContinueStmt:
		l, ok := c.currentLoop()
		if !ok {
			return nil, errors.Unexpected(x.Position(), "loop", "continue")
		}
		if l.cont != "" {
			return []rust.Stmt{&rust.Break{Label: l.cont}}, nil
		}
		return []rust.Stmt{&rust.Continue{}}, nil
	case *ir.PlaceholderStmt:
		return nil, errors.Unexpected(x.Position(), "statement", "'_' outside a modifier")
	}
	return nil, errors.Unexpected(s.Position(), "statement", fmt.Sprintf("%T", s))
}

func (c *Context) declStmt(x *ir.DeclStmt) ([]rust.Stmt, error) {
	if len(x.Vars) == 1 {
		v := x.Vars[0]
		t, err := c.Backend.Type(c, v.Type)
		if err != nil {
			return nil, err
		}
		value, err := c.OperandAs(x.Value, v.Type)
		if err != nil {
			return nil, err
		}
		name := ir.Ident(v.Name)
		c.Declare(v.Name, name, v.Type)
		return []rust.Stmt{&rust.Let{Mut: c.Mutated(v.Name), Name: name, Type: t, Value: value}}, nil
	}

	elems := make([]ir.Type, len(x.Vars))
	for i, v := range x.Vars {
		if v != nil {
			elems[i] = v.Type
		} else {
			elems[i] = ir.Unit
		}
	}
	value, err := c.OperandAs(x.Value, &ir.TupleType{Elements: elems})
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(x.Vars))
	for i, v := range x.Vars {
		if v == nil {
			parts[i] = "_"
			continue
		}
		name := ir.Ident(v.Name)
		if c.Mutated(v.Name) {
			parts[i] = "mut " + name
		} else {
			parts[i] = name
		}
		c.Declare(v.Name, name, v.Type)
	}
	return []rust.Stmt{&rust.Let{Name: "(" + strings.Join(parts, ", ") + ")", Value: value}}, nil
}

func (c *Context) exprStmt(x *ir.ExprStmt) ([]rust.Stmt, error) {
	switch y := x.X.(type) {
	case *ir.ArrayPush:
		elem := y.Value.Type()
		if at, ok := y.Array.Type().(*ir.ArrayType); ok {
			elem = at.Elem
		}
		value, err := c.OperandAs(y.Value, elem)
		if err != nil {
			return nil, err
		}
		return c.modify(y.Array, mutation{apply: func(place rust.Expr) rust.Stmt {
			return &rust.ExprStmt{X: c.Backend.ArrayPush(c, place, value)}
		}})
	case *ir.ArrayPop:
		return c.modify(y.Array, mutation{apply: func(place rust.Expr) rust.Stmt {
			return &rust.ExprStmt{X: c.Backend.ArrayPop(c, place)}
		}})
	}
	e, err := c.lowerExpr(x.X)
	if err != nil {
		return nil, err
	}
	return []rust.Stmt{&rust.ExprStmt{X: e}}, nil
}

func (c *Context) ifStmt(x *ir.IfStmt) (*rust.If, error) {
	cond, err := c.OperandAs(x.Cond, ir.Bool)
	if err != nil {
		return nil, err
	}
	then, err := c.lowerBlock(x.Then)
	if err != nil {
		return nil, err
	}
	out := &rust.If{Cond: cond, Then: then}
	if x.Else == nil {
		return out, nil
	}

	// else-if chains stay flat unless the nested condition needs a
	// contract reference declared first
	if len(x.Else.Stmts) == 1 {
		if nested, ok := x.Else.Stmts[0].(*ir.IfStmt); ok && len(externalCalls(nested)) == 0 {
			c.pushScope()
			defer c.popScope()
			elseIf, err := c.ifStmt(nested)
			if err != nil {
				return nil, err
			}
			out.Else = elseIf
			return out, nil
		}
	}
	els, err := c.lowerBlock(x.Else)
	if err != nil {
		return nil, err
	}
	out.Else = &rust.BlockExpr{Block: els}
	return out, nil
}

func (c *Context) whileStmt(x *ir.WhileStmt) ([]rust.Stmt, error) {
	if !x.DoWhile {
		cond, err := c.OperandAs(x.Cond, ir.Bool)
		if err != nil {
			return nil, err
		}
		c.pushLoop(false)
		body, err := c.lowerBlock(x.Body)
		c.popLoop()
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{&rust.While{Cond: cond, Body: body}}, nil
	}

	// do { body } while (cond): the condition is checked after the body,
	// and `continue` jumps to the check.
	cont := hasContinue(x.Body)
	l := c.pushLoop(cont)
	body, err := c.lowerBlock(x.Body)
	c.popLoop()
	if err != nil {
		return nil, err
	}
	cond, err := c.OperandAs(x.Cond, ir.Bool)
	if err != nil {
		return nil, err
	}

	exit := &rust.Break{}
	var stmts []rust.Stmt
	if cont {
		exit.Label = l.label
		stmts = append(stmts, &rust.LabeledBlock{Label: l.cont, Body: body})
	} else {
		stmts = append(stmts, body.Stmts...)
	}
	stmts = append(stmts, &rust.ExprStmt{X: &rust.If{
		Cond: rust.Not(cond),
		Then: &rust.Block{Stmts: []rust.Stmt{exit}},
	}})
	loop := &rust.Loop{Body: &rust.Block{Stmts: stmts}}
	if cont {
		loop.Label = l.label
	}
	return []rust.Stmt{loop}, nil
}

// forStmt lowers `for (init; cond; post) body` to a while loop in its own
// block. When the body continues, it runs inside a labelled block so the
// post statement still executes.
func (c *Context) forStmt(x *ir.ForStmt) ([]rust.Stmt, error) {
	c.pushScope()
	defer c.popScope()

	var init []rust.Stmt
	if x.Init != nil {
		var err error
		if init, err = c.lowerStmts([]ir.Stmt{x.Init}); err != nil {
			return nil, err
		}
	}

	var cond rust.Expr
	if x.Cond != nil {
		var err error
		if cond, err = c.OperandAs(x.Cond, ir.Bool); err != nil {
			return nil, err
		}
	}

	cont := x.Post != nil && hasContinue(x.Body)
	l := c.pushLoop(cont)
	body, err := c.lowerBlock(x.Body)
	c.popLoop()
	if err != nil {
		return nil, err
	}

	var post []rust.Stmt
	if x.Post != nil {
		if post, err = c.lowerStmts([]ir.Stmt{x.Post}); err != nil {
			return nil, err
		}
	}

	var stmts []rust.Stmt
	switch {
	case cont:
		stmts = append(stmts, &rust.LabeledBlock{Label: l.cont, Body: body})
	case declaresLocals(x.Body) && len(post) > 0:
		stmts = append(stmts, &rust.ExprStmt{X: &rust.BlockExpr{Block: body}})
	default:
		stmts = append(stmts, body.Stmts...)
	}
	stmts = append(stmts, post...)

	label := ""
	if cont {
		label = l.label
	}
	var loop rust.Stmt
	if cond == nil {
		loop = &rust.Loop{Label: label, Body: &rust.Block{Stmts: stmts}}
	} else {
		loop = &rust.While{Label: label, Cond: cond, Body: &rust.Block{Stmts: stmts}}
	}

	if len(init) == 0 {
		return []rust.Stmt{loop}, nil
	}
	return []rust.Stmt{&rust.ExprStmt{X: &rust.BlockExpr{Block: &rust.Block{Stmts: append(init, loop)}}}}, nil
}

func declaresLocals(b *ir.Block) bool {
	for _, s := range b.Stmts {
		if _, ok := s.(*ir.DeclStmt); ok {
			return true
		}
	}
	return false
}

// returnValue lowers the operand of a return statement, or the default
// return value for a bare `return`.
func (c *Context) returnValue(e ir.Expr) (rust.Expr, error) {
	if e == nil {
		return c.defaultReturn()
	}
	switch len(c.results) {
	case 0:
		return nil, errors.Unexpected(e.Position(), "no return value", describe(e))
	case 1:
		return c.OperandAs(e, c.results[0].Type)
	}

	tuple, ok := e.(*ir.TupleExpr)
	if !ok {
		return c.lowerExpr(e)
	}
	if len(tuple.Elements) != len(c.results) {
		return nil, errors.Unexpected(e.Position(), plural(len(c.results), "value"), plural(len(tuple.Elements), "value"))
	}
	elems := make([]rust.Expr, len(tuple.Elements))
	for i, el := range tuple.Elements {
		v, err := c.OperandAs(el, c.results[i].Type)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return &rust.Tuple{Elems: elems}, nil
}

// revert builds `return Err(..)` for an error entry. Custom error
// arguments are coerced to the declared field types.
func (c *Context) revert(entry *ir.ErrorEntry, args []ir.Expr) (rust.Stmt, error) {
	values := make([]rust.Expr, len(args))
	for i, arg := range args {
		t := arg.Type()
		if entry.Custom != nil && i < len(entry.Custom.Fields) {
			t = entry.Custom.Fields[i].Type
		}
		v, err := c.OperandAs(arg, t)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	e, err := c.Backend.Revert(c, entry, values)
	if err != nil {
		return nil, err
	}
	return &rust.Return{Value: rust.C("Err", e)}, nil
}

func describe(e ir.Expr) string {
	return "expression of type " + e.Type().String()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
