package lower

import (
	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

// step is one index or member access on the way from a root to a place.
type step struct {
	at     ir.Expr // the access itself, for positions
	index  ir.Expr // nil for member steps
	member string
	on     ir.Type // type being accessed
}

// accessPath splits a[i].f[j] into its root and the steps applied to it,
// outermost first.
func accessPath(e ir.Expr) (ir.Expr, []step) {
	var steps []step
	for {
		switch x := e.(type) {
		case *ir.Index:
			steps = append(steps, step{at: x, index: x.Key, on: x.Target.Type()})
			e = x.Target
		case *ir.Member:
			steps = append(steps, step{at: x, member: x.Name, on: x.Target.Type()})
			e = x.Target
		default:
			for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
				steps[i], steps[j] = steps[j], steps[i]
			}
			return e, steps
		}
	}
}

// isPlace reports whether e lowers to an expression Rust can borrow or move
// from, as opposed to a freshly computed value.
func isPlace(c *Context, e ir.Expr) bool {
	root, path := accessPath(e)
	switch r := root.(type) {
	case *ir.Var:
	case *ir.FieldRef:
		depth, _ := ir.MappingDepth(r.Field.Type)
		if depth > 0 {
			return false
		}
		if _, ok := c.Backend.FieldPlace(c, r.Field); !ok {
			return false
		}
	default:
		return false
	}
	for _, s := range path {
		if s.index != nil && !c.Backend.ArrayPlace() {
			return false
		}
	}
	return true
}

// storageKeys splits off the mapping keys of a storage access and lowers
// them against the key types.
func (c *Context) storageKeys(f *ir.StorageField, path []step, pos ir.Expr) ([]rust.Expr, []step, error) {
	keyTypes := ir.MappingKeys(f.Type)
	if len(keyTypes) == 0 {
		return nil, path, nil
	}
	if len(path) < len(keyTypes) {
		return nil, nil, errors.Mapping(pos.Position(), "mapping '%s' needs %s", f.SolidityName, plural(len(keyTypes), "key"))
	}
	keys := make([]rust.Expr, len(keyTypes))
	for i, kt := range keyTypes {
		if path[i].index == nil {
			return nil, nil, errors.Mapping(path[i].at.Position(), "mapping '%s' indexed with a member access", f.SolidityName)
		}
		k, err := c.OperandAs(path[i].index, kt)
		if err != nil {
			return nil, nil, err
		}
		keys[i] = k
	}
	return keys, path[len(keyTypes):], nil
}

func (c *Context) readAccess(e ir.Expr) (rust.Expr, error) {
	root, path := accessPath(e)

	var x rust.Expr
	var err error
	switch r := root.(type) {
	case *ir.FieldRef:
		f := r.Field
		if ir.IsMapping(f.Type) {
			var keys []rust.Expr
			if keys, path, err = c.storageKeys(f, path, e); err != nil {
				return nil, err
			}
			x, err = c.Backend.ReadField(c, f, keys)
		} else if place, ok := c.Backend.FieldPlace(c, f); ok {
			x = place
		} else {
			x, err = c.Backend.ReadField(c, f, nil)
		}
	default:
		x, err = c.lowerExpr(root)
	}
	if err != nil {
		return nil, err
	}

	for _, s := range path {
		if x, err = c.applyStep(x, s); err != nil {
			return nil, err
		}
	}
	return x, nil
}

func (c *Context) applyStep(x rust.Expr, s step) (rust.Expr, error) {
	if s.index == nil {
		return rust.Sel(x, ir.Ident(s.member)), nil
	}
	if ir.IsMapping(s.on) {
		return nil, errors.Mapping(s.at.Position(), "mappings are only supported as state variables")
	}
	it := indexType(s.index)
	idx, err := c.OperandAs(s.index, it)
	if err != nil {
		return nil, err
	}
	return c.Backend.ArrayIndex(c, x, idx, it)
}

// mutation is what happens to a place: it is either overwritten with value
// or changed in place by apply.
type mutation struct {
	value rust.Expr
	apply func(place rust.Expr) rust.Stmt
}

func (m mutation) at(place rust.Expr) rust.Stmt {
	if m.apply != nil {
		return m.apply(place)
	}
	return &rust.Assign{Target: place, Op: "=", Value: m.value}
}

// assign stores value into target. Tuple targets are destructured through
// temporaries first.
func (c *Context) assign(target ir.Expr, value rust.Expr) ([]rust.Stmt, error) {
	tuple, ok := target.(*ir.TupleExpr)
	if !ok {
		return c.modify(target, mutation{value: value})
	}

	names := make([]string, len(tuple.Elements))
	pattern := ""
	for i, el := range tuple.Elements {
		if i > 0 {
			pattern += ", "
		}
		if el == nil {
			pattern += "_"
			continue
		}
		names[i] = c.Temp("t")
		pattern += names[i]
	}
	stmts := []rust.Stmt{&rust.Let{Name: "(" + pattern + ")", Value: value}}
	for i, el := range tuple.Elements {
		if el == nil {
			continue
		}
		assigned, err := c.assign(el, rust.Id(names[i]))
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, assigned...)
	}
	return stmts, nil
}

// modify applies m to the place target denotes. Storage the backend cannot
// address in place is read into a temporary, modified and written back.
func (c *Context) modify(target ir.Expr, m mutation) ([]rust.Stmt, error) {
	root, path := accessPath(target)
	switch r := root.(type) {
	case *ir.Var:
		l := c.Lookup(r.Name)
		if l == nil {
			return nil, errors.Unexpected(r.Position(), "variable", "'"+r.Name+"'")
		}
		return c.modifyPath(rust.Id(l.Name), path, m)

	case *ir.FieldRef:
		f := r.Field
		keys, rest, err := c.storageKeys(f, path, target)
		if err != nil {
			return nil, err
		}
		if keys == nil {
			if place, ok := c.Backend.FieldPlace(c, f); ok {
				return c.modifyPath(place, path, m)
			}
		}
		if len(rest) == 0 && m.apply == nil {
			st, err := c.Backend.WriteField(c, f, keys, m.value)
			if err != nil {
				return nil, err
			}
			return []rust.Stmt{st}, nil
		}

		var stmts []rust.Stmt
		for i, k := range keys {
			if simple(k) {
				continue
			}
			name := c.Temp("key")
			stmts = append(stmts, &rust.Let{Name: name, Value: k})
			keys[i] = rust.Id(name)
		}
		read, err := c.Backend.ReadField(c, f, cloneKeys(keys))
		if err != nil {
			return nil, err
		}
		tmp := c.Temp("value")
		stmts = append(stmts, &rust.Let{Mut: true, Name: tmp, Value: read})
		inner, err := c.modifyPath(rust.Id(tmp), rest, m)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, inner...)
		write, err := c.Backend.WriteField(c, f, keys, rust.Id(tmp))
		if err != nil {
			return nil, err
		}
		return append(stmts, write), nil
	}
	return nil, errors.Unexpected(target.Position(), "assignable expression", describe(target))
}

func (c *Context) modifyPath(base rust.Expr, path []step, m mutation) ([]rust.Stmt, error) {
	if len(path) == 0 {
		return []rust.Stmt{m.at(base)}, nil
	}
	s := path[0]
	if s.index == nil {
		return c.modifyPath(rust.Sel(base, ir.Ident(s.member)), path[1:], m)
	}
	if ir.IsMapping(s.on) {
		return nil, errors.Mapping(s.at.Position(), "mappings are only supported as state variables")
	}

	it := indexType(s.index)
	idx, err := c.OperandAs(s.index, it)
	if err != nil {
		return nil, err
	}
	if c.Backend.ArrayPlace() {
		el, err := c.Backend.ArrayIndex(c, base, idx, it)
		if err != nil {
			return nil, err
		}
		return c.modifyPath(el, path[1:], m)
	}
	if len(path) == 1 && m.apply == nil {
		st, err := c.Backend.ArraySet(c, base, idx, it, m.value)
		if err != nil {
			return nil, err
		}
		return []rust.Stmt{st}, nil
	}

	var stmts []rust.Stmt
	if !simple(idx) {
		name := c.Temp("idx")
		stmts = append(stmts, &rust.Let{Name: name, Value: idx})
		idx = rust.Id(name)
	}
	read, err := c.Backend.ArrayIndex(c, base, idx, it)
	if err != nil {
		return nil, err
	}
	tmp := c.Temp("elem")
	stmts = append(stmts, &rust.Let{Mut: true, Name: tmp, Value: read})
	inner, err := c.modifyPath(rust.Id(tmp), path[1:], m)
	if err != nil {
		return nil, err
	}
	stmts = append(stmts, inner...)
	write, err := c.Backend.ArraySet(c, base, idx, it, rust.Id(tmp))
	if err != nil {
		return nil, err
	}
	return append(stmts, write), nil
}

// simple reports whether evaluating x twice is free of side effects and
// cheap.
func simple(x rust.Expr) bool {
	switch y := x.(type) {
	case *rust.Ident, *rust.Lit:
		return true
	case *rust.FieldAccess:
		return simple(y.X)
	case *rust.MethodCall:
		return y.Method == "clone" && len(y.Args) == 0 && simple(y.Recv)
	}
	return false
}

// Borrowed drops the clone Operand puts on a place read, for operands the
// generated code only borrows.
func Borrowed(x rust.Expr) rust.Expr {
	if m, ok := x.(*rust.MethodCall); ok && m.Method == "clone" && len(m.Args) == 0 && simple(m.Recv) {
		return m.Recv
	}
	return x
}

// cloneKeys clones identifier keys that are read before being moved into
// the write.
func cloneKeys(keys []rust.Expr) []rust.Expr {
	out := make([]rust.Expr, len(keys))
	for i, k := range keys {
		if id, ok := k.(*rust.Ident); ok {
			out[i] = rust.M(id, "clone")
			continue
		}
		out[i] = k
	}
	return out
}
