package lower

import (
	"sol2rs/internal/errors"
	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

// lowerConstructor emits the deploy entry points, the `_init` helper that
// binds base constructor arguments and every `_init_<class>` helper. Base
// arguments are bound derived to base; initializers then run base to
// derived, the linearized chain reversed.
func (c *Context) lowerConstructor() (entry, helpers []*rust.Fn, err error) {
	main := c.Contract
	chain := main.ChainContracts()

	var params []*ir.Param
	if main.Constructor != nil {
		params = main.Constructor.Primary().Params
	}

	var classes []*ir.Contract
	for _, class := range chain {
		if needsInit(class) {
			classes = append(classes, class)
		}
	}
	if len(classes) == 0 && len(params) == 0 && !c.hasBaseArgs() {
		entry, err = c.Backend.Constructor(c, nil)
		return entry, nil, err
	}

	rparams, err := c.params(params)
	if err != nil {
		return nil, nil, err
	}
	caller := main.ConstructorNeedsCaller()
	init := &Signature{Name: "_init", Kind: Init, Params: rparams, Ret: "()", Mutates: true, Caller: caller}

	stmts, sigs, err := c.initCalls(init, params, classes)
	if err != nil {
		return nil, nil, err
	}

	fn, err := c.Backend.Signature(c, init)
	if err != nil {
		return nil, nil, err
	}
	fn.Body = &rust.Block{Stmts: stmts, Tail: rust.C("Ok", rust.L("()"))}
	helpers = append(helpers, fn)

	for i, sig := range sigs {
		fn, err := c.lowerInit(classes[len(classes)-1-i], sig)
		if err != nil {
			return nil, nil, err
		}
		helpers = append(helpers, fn)
	}

	entry, err = c.Backend.Constructor(c, init)
	if err != nil {
		return nil, nil, err
	}
	return entry, helpers, nil
}

// initCalls builds the body of `_init`: base arguments bound into locals,
// then one call per class initializer, base first.
func (c *Context) initCalls(init *Signature, params []*ir.Param, classes []*ir.Contract) ([]rust.Stmt, []*Signature, error) {
	main := c.Contract
	c.enter(nil, init)
	defer c.popScope()
	for _, p := range params {
		c.Declare(p.Name, ir.Ident(p.Name), p.Type)
	}

	stmts, bound, err := c.bindBaseArgs(main.ChainContracts())
	if err != nil {
		return nil, nil, err
	}

	sigs := make([]*Signature, 0, len(classes))
	for i := len(classes) - 1; i >= 0; i-- {
		class := classes[i]
		sig, err := c.initSignature(class, init.Caller)
		if err != nil {
			return nil, nil, err
		}
		var args []rust.Expr
		if class == main {
			for i, p := range params {
				args = append(args, rust.Id(paramName(p, i)))
			}
		} else {
			args = bound[class.Name]
		}
		stmts = append(stmts, &rust.ExprStmt{X: &rust.Try{X: c.Backend.Call(c, sig, args)}})
		sigs = append(sigs, sig)
	}
	return stmts, sigs, nil
}

func needsInit(class *ir.Contract) bool {
	if class.Constructor != nil {
		return true
	}
	for _, f := range class.Fields {
		if f.Value != nil {
			return true
		}
	}
	return false
}

func (c *Context) hasBaseArgs() bool {
	for _, class := range c.Contract.ChainContracts() {
		for _, call := range class.BaseCalls {
			if len(call.Args) > 0 {
				return true
			}
		}
	}
	return false
}

// baseCall finds the arguments supplied for base, looking at the most
// derived declarer first.
func (c *Context) baseCall(base string) *ir.BaseCall {
	for _, class := range c.Contract.ChainContracts() {
		for _, call := range class.BaseCalls {
			if call.Base == base {
				return call
			}
		}
	}
	return nil
}

// bindBaseArgs evaluates base constructor arguments into locals named
// <base>_<param>, each in the scope of the constructor that supplies it.
func (c *Context) bindBaseArgs(chain []*ir.Contract) ([]rust.Stmt, map[string][]rust.Expr, error) {
	var stmts []rust.Stmt
	bound := make(map[string][]rust.Expr)
	names := make(map[string]map[string]string) // class -> param -> bound local

	for _, class := range chain[1:] {
		call := c.baseCall(class.Name)
		if class.Constructor == nil {
			if call != nil && len(call.Args) > 0 {
				return nil, nil, errors.MissingConstructor(call.Pos, class.Name)
			}
			continue
		}
		params := class.Constructor.Primary().Params
		if len(params) == 0 {
			continue
		}
		if call == nil || call.Args == nil {
			return nil, nil, errors.InvalidFunction(c.Contract.Pos, "no arguments for the constructor of base '%s'", class.Name).
				WithHelp("pass them in the inheritance list or as a constructor modifier")
		}
		if len(call.Args) != len(params) {
			return nil, nil, errors.Unexpected(call.Pos, plural(len(params), "argument"), plural(len(call.Args), "argument"))
		}

		c.pushScope()
		if call.Declarer != c.Contract.Name {
			decl := c.Package.Contract(call.Declarer)
			if decl != nil && decl.Constructor != nil {
				for _, p := range decl.Constructor.Primary().Params {
					if local, ok := names[call.Declarer][p.Name]; ok {
						c.Declare(p.Name, local, p.Type)
					}
				}
			}
		}

		names[class.Name] = make(map[string]string)
		for i, p := range params {
			value, err := c.OperandAs(call.Args[i], p.Type)
			if err != nil {
				c.popScope()
				return nil, nil, err
			}
			local := ir.Ident(class.Name) + "_" + trimRaw(paramName(p, i))
			stmts = append(stmts, &rust.Let{Name: local, Value: value})
			bound[class.Name] = append(bound[class.Name], rust.Id(local))
			names[class.Name][p.Name] = local
		}
		c.popScope()
	}
	return stmts, bound, nil
}

func (c *Context) initSignature(class *ir.Contract, caller bool) (*Signature, error) {
	var params []*ir.Param
	if class.Constructor != nil {
		params = class.Constructor.Primary().Params
	}
	rparams, err := c.params(params)
	if err != nil {
		return nil, err
	}
	return &Signature{
		Name:    "_init_" + trimRaw(ir.Ident(class.Name)),
		Kind:    Helper,
		Params:  rparams,
		Ret:     "()",
		Mutates: true,
		Caller:  caller,
	}, nil
}

// lowerInit emits the initializer of one class: its field initializers
// followed by its constructor body.
func (c *Context) lowerInit(class *ir.Contract, sig *Signature) (*rust.Fn, error) {
	var ctor *ir.Function
	var impl *ir.Implementation
	if class.Constructor != nil {
		ctor = class.Constructor
		impl = ctor.Primary()
	}
	c.enter(ctor, sig)
	defer c.popScope()

	var body *ir.Block
	if impl != nil && impl.Body != nil {
		var err error
		if body, err = c.inlineModifiers(impl); err != nil {
			return nil, err
		}
	}

	var stmts []ir.Stmt
	for _, f := range class.Fields {
		if f.Value != nil {
			stmts = append(stmts, &ir.AssignStmt{Target: &ir.FieldRef{Field: f}, Value: f.Value})
		}
	}
	all := &ir.Block{Stmts: stmts}
	if body != nil {
		all.Stmts = append(all.Stmts, body.Stmts...)
	}
	c.mutated = mutatedLocals(all)

	if impl != nil {
		for i, p := range impl.Params {
			if p.Name == "" {
				continue
			}
			if c.Mutated(p.Name) {
				sig.Params[i] = &rust.Param{Name: "mut " + sig.Params[i].Name, Type: sig.Params[i].Type}
			}
			c.Declare(p.Name, ir.Ident(p.Name), p.Type)
		}
	}

	fn, err := c.Backend.Signature(c, sig)
	if err != nil {
		return nil, err
	}
	lowered, err := c.lowerStmts(all.Stmts)
	if err != nil {
		return nil, err
	}
	fn.Body = &rust.Block{Stmts: append(c.Backend.Preamble(c, sig), lowered...)}
	if !ir.EndsInReturn(all) {
		fn.Body.Tail = rust.C("Ok", rust.L("()"))
	}
	return fn, nil
}
