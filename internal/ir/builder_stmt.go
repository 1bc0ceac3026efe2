package ir

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/holiman/uint256"

	"sol2rs/grammar"
	"sol2rs/internal/errors"
)

// Pass 5: bodies, initializers and call arguments.
func (b *Builder) bodies() error {
	for _, p := range b.pending {
		if err := b.body(p); err != nil {
			return err
		}
	}
	b.contract, b.impl, b.scopes = nil, nil, nil
	return nil
}

func (b *Builder) body(p pendingBody) error {
	b.contract, b.impl = p.contract, p.impl
	b.modifier = p.mod != nil
	b.loops = 0
	b.scopes = nil
	b.push()
	defer b.pop()

	if p.impl != nil {
		for _, param := range p.impl.Params {
			b.declareLocal(param.Name, param.Type)
		}
		for _, r := range p.impl.Returns {
			if r.Name != "" {
				b.declareLocal(r.Name, r.Type)
			}
		}
	}

	var err error
	switch {
	case p.fn != nil:
		p.impl.Body, err = b.block(p.fn.Body)
	case p.mod != nil:
		p.impl.Body, err = b.block(p.mod.Body)
	case p.field != nil:
		p.field.Value, err = b.expr(p.value)
	case p.constant != nil:
		p.constant.Value, err = b.expr(p.value)
	case p.base != nil:
		p.base.Args, err = b.exprs(p.args)
	case p.modCall != nil:
		p.modCall.Args, err = b.exprs(p.args)
	}
	return err
}

func (b *Builder) push() {
	b.scopes = append(b.scopes, make(map[string]*LocalVar))
}

func (b *Builder) pop() {
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *Builder) declareLocal(name string, t Type) *LocalVar {
	v := &LocalVar{Name: name, Type: t}
	b.scopes[len(b.scopes)-1][name] = v
	return v
}

func (b *Builder) local(name string) *LocalVar {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if v, ok := b.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

func (b *Builder) block(def *grammar.Block) (*Block, error) {
	b.push()
	defer b.pop()

	block := &Block{node: node{Pos: def.Pos}}
	for _, s := range def.Statements {
		st, err := b.stmt(s)
		if err != nil {
			return nil, err
		}
		if st != nil {
			block.Stmts = append(block.Stmts, st)
		}
	}
	return block, nil
}

// nested builds the body of if/for/while, which may be a single statement.
func (b *Builder) nested(s *grammar.Statement) (*Block, error) {
	if s.Block != nil {
		return b.block(s.Block)
	}
	b.push()
	defer b.pop()
	st, err := b.stmt(s)
	if err != nil {
		return nil, err
	}
	block := &Block{node: node{Pos: s.Pos}}
	if st != nil {
		block.Stmts = []Stmt{st}
	}
	return block, nil
}

func (b *Builder) stmt(s *grammar.Statement) (Stmt, error) {
	at := node{Pos: s.Pos}
	switch {
	case s.Block != nil:
		return b.block(s.Block)

	case s.Unchecked != nil:
		block, err := b.block(s.Unchecked)
		if err != nil {
			return nil, err
		}
		block.Unchecked = true
		return block, nil

	case s.If != nil:
		cond, err := b.expr(s.If.Cond)
		if err != nil {
			return nil, err
		}
		then, err := b.nested(s.If.Then)
		if err != nil {
			return nil, err
		}
		st := &IfStmt{node: at, Cond: cond, Then: then}
		if s.If.Else != nil {
			if st.Else, err = b.nested(s.If.Else); err != nil {
				return nil, err
			}
		}
		return st, nil

	case s.For != nil:
		return b.forStmt(s.For)

	case s.While != nil:
		cond, err := b.expr(s.While.Cond)
		if err != nil {
			return nil, err
		}
		body, err := b.loopBody(s.While.Body)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{node: at, Cond: cond, Body: body}, nil

	case s.DoWhile != nil:
		body, err := b.loopBody(s.DoWhile.Body)
		if err != nil {
			return nil, err
		}
		cond, err := b.expr(s.DoWhile.Cond)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{node: at, Cond: cond, Body: body, DoWhile: true}, nil

	case s.Return != nil:
		st := &ReturnStmt{node: at}
		if s.Return.Value != nil {
			value, err := b.expr(s.Return.Value)
			if err != nil {
				return nil, err
			}
			st.Value = value
		}
		return st, nil

	case s.Emit != nil:
		return b.emitStmt(s.Emit)

	case s.Revert != nil:
		return b.revertStmt(s.Revert)

	case s.Break, s.Continue:
		if b.loops == 0 {
			word := "break"
			if s.Continue {
				word = "continue"
			}
			return nil, errors.Unexpected(s.Pos, "statement", "'"+word+"' outside a loop")
		}
		if s.Break {
			return &BreakStmt{node: at}, nil
		}
		return &ContinueStmt{node: at}, nil

	case s.Placeholder:
		if !b.modifier {
			return nil, errors.Unexpected(s.Pos, "statement", "'_' outside a modifier")
		}
		return &PlaceholderStmt{node: at}, nil

	case s.Expr != nil:
		return b.exprStmt(s.Expr)

	case s.TupleDecl != nil:
		return b.tupleDecl(s.TupleDecl)

	case s.VarDecl != nil:
		return b.varDecl(s.VarDecl)
	}
	return nil, errors.Unexpected(s.Pos, "statement", "nothing")
}

func (b *Builder) loopBody(s *grammar.Statement) (*Block, error) {
	b.loops++
	defer func() { b.loops-- }()
	return b.nested(s)
}

func (b *Builder) forStmt(def *grammar.ForStatement) (Stmt, error) {
	b.push()
	defer b.pop()

	st := &ForStmt{node: node{Pos: def.Pos}}
	if def.Init != nil {
		var init Stmt
		var err error
		if def.Init.VarDecl != nil {
			init, err = b.varDecl(def.Init.VarDecl)
		} else {
			init, err = b.exprStmt(def.Init.Expr)
		}
		if err != nil {
			return nil, err
		}
		st.Init = init
	}
	if def.Cond != nil {
		cond, err := b.expr(def.Cond)
		if err != nil {
			return nil, err
		}
		st.Cond = cond
	}
	if def.Post != nil {
		post, err := b.exprStmt(def.Post)
		if err != nil {
			return nil, err
		}
		st.Post = post
	}
	body, err := b.loopBody(def.Body)
	if err != nil {
		return nil, err
	}
	st.Body = body
	return st, nil
}

func (b *Builder) varDecl(def *grammar.VariableDeclaration) (Stmt, error) {
	t, err := b.resolveType(def.Type, b.contract)
	if err != nil {
		return nil, err
	}
	if IsMapping(t) {
		return nil, errors.Mapping(def.Pos, "local variable '%s' cannot be a mapping", def.Name)
	}

	var value Expr = &ZeroValue{node: node{Pos: def.Pos}, Typ: t}
	if def.Value != nil {
		if value, err = b.expr(def.Value); err != nil {
			return nil, err
		}
	}
	v := b.declareLocal(def.Name, t)
	return &DeclStmt{node: node{Pos: def.Pos}, Vars: []*LocalVar{v}, Value: value}, nil
}

func (b *Builder) tupleDecl(def *grammar.TupleDeclaration) (Stmt, error) {
	value, err := b.expr(def.Value)
	if err != nil {
		return nil, err
	}
	st := &DeclStmt{node: node{Pos: def.Pos}, Value: value}
	for _, tv := range def.Vars {
		t, err := b.resolveType(tv.Type, b.contract)
		if err != nil {
			return nil, err
		}
		st.Vars = append(st.Vars, b.declareLocal(tv.Name, t))
	}
	return st, nil
}

func (b *Builder) exprStmt(e *grammar.Expression) (Stmt, error) {
	at := node{Pos: e.Pos}
	if e.Op != "" {
		target, err := b.conditional(e.Target)
		if err != nil {
			return nil, err
		}
		if err := b.assignable(target, e.Pos); err != nil {
			return nil, err
		}
		value, err := b.expr(e.Value)
		if err != nil {
			return nil, err
		}
		if op := strings.TrimSuffix(e.Op, "="); op != "" {
			value = newBinary(e.Pos, op, target, value)
		}
		return &AssignStmt{node: at, Target: target, Value: value}, nil
	}

	if e.Target.Then == nil && len(e.Target.Cond.Rest) == 0 {
		u := e.Target.Cond.Left
		switch {
		case u.Op == "++" || u.Op == "--":
			return b.increment(u.Operand, nil, u.Op, e.Pos)
		case u.Op == "delete":
			target, err := b.unary(u.Operand)
			if err != nil {
				return nil, err
			}
			if err := b.assignable(target, e.Pos); err != nil {
				return nil, err
			}
			return &AssignStmt{node: at, Target: target, Value: &ZeroValue{node: at, Typ: target.Type()}}, nil
		case u.Postfix != nil:
			p := u.Postfix
			if n := len(p.Suffix); n > 0 && p.Suffix[n-1].Incr != "" {
				trimmed := &grammar.Postfix{Pos: p.Pos, Primary: p.Primary, Suffix: p.Suffix[:n-1]}
				return b.increment(nil, trimmed, p.Suffix[n-1].Incr, e.Pos)
			}
			if st, ok, err := b.requireStmt(p); ok {
				return st, err
			}
		}
	}

	x, err := b.expr(e)
	if err != nil {
		return nil, err
	}
	return &ExprStmt{node: at, X: x}, nil
}

func (b *Builder) increment(operand *grammar.Unary, postfix *grammar.Postfix, op string, pos lexer.Position) (Stmt, error) {
	var target Expr
	var err error
	if operand != nil {
		target, err = b.unary(operand)
	} else {
		target, err = b.postfix(postfix)
	}
	if err != nil {
		return nil, err
	}
	if err := b.assignable(target, pos); err != nil {
		return nil, err
	}
	one := &Literal{node: node{Pos: pos}, Kind: IntLiteral, Int: uint256.NewInt(1), Typ: IntConst}
	return &AssignStmt{node: node{Pos: pos}, Target: target, Value: newBinary(pos, op[:1], target, one)}, nil
}

// assignable rejects writes to anything but locals, storage and their
// elements. Whole mappings cannot be replaced.
func (b *Builder) assignable(e Expr, pos lexer.Position) error {
	switch x := e.(type) {
	case *Var, *Index, *Member:
	case *FieldRef:
		if IsMapping(x.Field.Type) {
			return errors.Mapping(pos, "mapping '%s' cannot be assigned as a whole", x.Field.SolidityName)
		}
	case *TupleExpr:
		for _, el := range x.Elements {
			if el == nil {
				continue
			}
			if err := b.assignable(el, pos); err != nil {
				return err
			}
		}
	case *ConstRef:
		return errors.Unexpected(pos, "assignable expression", "constant '"+x.Const.SolidityName+"'")
	default:
		return errors.Unexpected(pos, "assignable expression", describeExpr(e))
	}
	return nil
}

// requireStmt recognizes require(cond[, "message"]) and assert(cond).
func (b *Builder) requireStmt(p *grammar.Postfix) (Stmt, bool, error) {
	name := p.Primary.Ident
	if (name != "require" && name != "assert") || len(p.Suffix) != 1 || p.Suffix[0].Call == nil || b.local(name) != nil {
		return nil, false, nil
	}
	call := p.Suffix[0].Call
	if len(call.Named) > 0 || len(call.Args) == 0 || len(call.Args) > 2 || (name == "assert" && len(call.Args) != 1) {
		return nil, true, errors.Unexpected(p.Pos, name+"(condition[, message])", "call with "+plural(len(call.Args)+len(call.Named), "argument"))
	}

	cond, err := b.expr(call.Args[0])
	if err != nil {
		return nil, true, err
	}
	message := ""
	if len(call.Args) == 2 {
		if message, err = b.message(call.Args[1]); err != nil {
			return nil, true, err
		}
	}
	if name == "assert" {
		message = "assertion failed"
	}
	return &RequireStmt{node: node{Pos: p.Pos}, Cond: cond, Error: b.ctx.RegisterMessage(message)}, true, nil
}

// message extracts a string literal abort reason.
func (b *Builder) message(e *grammar.Expression) (string, error) {
	x, err := b.expr(e)
	if err != nil {
		return "", err
	}
	lit, ok := x.(*Literal)
	if !ok || lit.Kind != StringLiteral {
		return "", errors.MessageType(e.Pos, describeExpr(x))
	}
	return lit.Str, nil
}

func (b *Builder) revertStmt(def *grammar.RevertStatement) (Stmt, error) {
	at := node{Pos: def.Pos}
	value := def.Value
	primary := primaryOf(value)
	if primary == nil {
		return nil, errors.MessageType(value.Pos, value.Describe())
	}

	// revert() and revert("message") parse as tuples
	if primary.Primary.Tuple != nil && len(primary.Suffix) == 0 {
		elems := primary.Primary.Tuple.Elements
		switch len(elems) {
		case 0:
			return &RevertStmt{node: at, Error: b.ctx.RegisterMessage("")}, nil
		case 1:
			message, err := b.message(elems[0])
			if err != nil {
				return nil, err
			}
			return &RevertStmt{node: at, Error: b.ctx.RegisterMessage(message)}, nil
		}
		return nil, errors.MessageType(value.Pos, "tuple")
	}

	// revert CustomError(args)
	if name := primary.Primary.Ident; name != "" && len(primary.Suffix) == 1 && primary.Suffix[0].Call != nil {
		def := b.lookupError(name)
		if def == nil {
			return nil, errors.MessageType(value.Pos, "'"+name+"' is not an error")
		}
		names := make([]string, len(def.Fields))
		for i, f := range def.Fields {
			names[i] = f.Name
		}
		args, err := b.callArgs(primary.Suffix[0].Call, names)
		if err != nil {
			return nil, err
		}
		if len(args) != len(def.Fields) {
			return nil, errors.Unexpected(value.Pos, plural(len(def.Fields), "argument"), plural(len(args), "argument"))
		}
		return &RevertStmt{node: at, Error: def.Entry, Args: args}, nil
	}
	return nil, errors.MessageType(value.Pos, value.Describe())
}

func (b *Builder) emitStmt(def *grammar.EmitStatement) (Stmt, error) {
	primary := primaryOf(def.Event)
	if primary == nil || primary.Primary.Ident == "" || len(primary.Suffix) != 1 || primary.Suffix[0].Call == nil {
		return nil, errors.Unexpected(def.Pos, "event invocation", def.Event.Describe())
	}
	name := primary.Primary.Ident
	ev := b.lookupEvent(name)
	if ev == nil {
		return nil, errors.Unexpected(def.Pos, "event", "'"+name+"'")
	}
	names := make([]string, len(ev.Fields))
	for i, f := range ev.Fields {
		names[i] = f.Name
	}
	args, err := b.callArgs(primary.Suffix[0].Call, names)
	if err != nil {
		return nil, err
	}
	if len(args) != len(ev.Fields) {
		return nil, errors.Unexpected(def.Pos, plural(len(ev.Fields), "argument"), plural(len(args), "argument"))
	}
	return &EmitStmt{node: node{Pos: def.Pos}, Event: ev, Args: args}, nil
}

func (b *Builder) lookupEvent(name string) *Event {
	if b.contract != nil {
		for _, class := range b.contract.ChainContracts() {
			for _, ev := range class.Events {
				if ev.Name == name {
					return ev
				}
			}
		}
	}
	for _, ev := range b.pkg.Events {
		if ev.Name == name {
			return ev
		}
	}
	return nil
}

func (b *Builder) lookupError(name string) *ErrorDef {
	if b.contract != nil {
		for _, class := range b.contract.ChainContracts() {
			for _, e := range class.Errors {
				if e.Name == name {
					return e
				}
			}
		}
	}
	for _, e := range b.pkg.Errors {
		if e.Name == name {
			return e
		}
	}
	return nil
}
