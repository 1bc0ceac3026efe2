package lower

import (
	mapset "github.com/deckarep/golang-set/v2"

	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
)

// inlineModifiers wraps the body of impl in its modifiers, outermost first.
// Modifier parameters become locals bound to the invocation arguments and
// every `_` is replaced by the guarded body. A return inside the guarded
// body leaves the whole function, skipping the rest of the modifier.
func (c *Context) inlineModifiers(impl *ir.Implementation) (*ir.Block, error) {
	body := impl.Body
	for i := len(impl.Modifiers) - 1; i >= 0; i-- {
		call := impl.Modifiers[i]
		mod, err := c.modifier(call)
		if err != nil {
			return nil, err
		}
		if len(call.Args) != len(mod.Params) {
			return nil, errors.Unexpected(call.Pos, plural(len(mod.Params), "argument"), plural(len(call.Args), "argument"))
		}

		stmts := make([]ir.Stmt, 0, len(mod.Params)+len(mod.Body.Stmts))
		for j, p := range mod.Params {
			stmts = append(stmts, &ir.DeclStmt{
				Vars:  []*ir.LocalVar{{Name: p.Name, Type: p.Type}},
				Value: call.Args[j],
			})
		}
		stmts = append(stmts, replacePlaceholder(mod.Body, body).Stmts...)
		body = &ir.Block{Stmts: stmts}
	}
	return body, nil
}

// modifier resolves an invocation to the single implementation along the
// chain.
func (c *Context) modifier(call *ir.ModifierCall) (*ir.Implementation, error) {
	entry := c.Contract.ModifierTable[call.Name]
	if entry == nil {
		return nil, errors.Modifier(call.Pos, call.Name, 0)
	}
	var found []*ir.Implementation
	for _, impl := range entry.Implementations {
		if impl.Body != nil {
			found = append(found, impl)
		}
	}
	if len(found) != 1 {
		return nil, errors.Modifier(call.Pos, call.Name, len(found))
	}
	return found[0], nil
}

func replacePlaceholder(b *ir.Block, body *ir.Block) *ir.Block {
	out := &ir.Block{Stmts: make([]ir.Stmt, len(b.Stmts)), Unchecked: b.Unchecked}
	for i, s := range b.Stmts {
		out.Stmts[i] = replaceIn(s, body)
	}
	return out
}

func replaceIn(s ir.Stmt, body *ir.Block) ir.Stmt {
	switch x := s.(type) {
	case *ir.PlaceholderStmt:
		return body
	case *ir.Block:
		return replacePlaceholder(x, body)
	case *ir.IfStmt:
		y := *x
		y.Then = replacePlaceholder(x.Then, body)
		if x.Else != nil {
			y.Else = replacePlaceholder(x.Else, body)
		}
		return &y
	case *ir.WhileStmt:
		y := *x
		y.Body = replacePlaceholder(x.Body, body)
		return &y
	case *ir.ForStmt:
		y := *x
		y.Body = replacePlaceholder(x.Body, body)
		return &y
	}
	return s
}

// mutatedLocals collects the locals a body assigns to or mutates in place.
func mutatedLocals(b *ir.Block) mapset.Set[string] {
	set := mapset.NewThreadUnsafeSet[string]()
	ir.WalkStmt(b, func(s ir.Stmt) {
		switch x := s.(type) {
		case *ir.AssignStmt:
			markRoot(set, x.Target)
		case *ir.ExprStmt:
			switch y := x.X.(type) {
			case *ir.ArrayPush:
				markRoot(set, y.Array)
			case *ir.ArrayPop:
				markRoot(set, y.Array)
			}
		}
	})
	return set
}

func markRoot(set mapset.Set[string], target ir.Expr) {
	if t, ok := target.(*ir.TupleExpr); ok {
		for _, el := range t.Elements {
			if el != nil {
				markRoot(set, el)
			}
		}
		return
	}
	root, _ := accessPath(target)
	if v, ok := root.(*ir.Var); ok {
		set.Add(v.Name)
	}
}

// hasContinue reports whether b continues the loop it belongs to, not
// counting nested loops.
func hasContinue(b *ir.Block) bool {
	for _, s := range b.Stmts {
		switch x := s.(type) {
		case *ir.ContinueStmt:
			return true
		case *ir.Block:
			if hasContinue(x) {
				return true
			}
		case *ir.IfStmt:
			if hasContinue(x.Then) || (x.Else != nil && hasContinue(x.Else)) {
				return true
			}
		}
	}
	return false
}
