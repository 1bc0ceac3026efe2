package lower

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"sol2rs/internal/ir"
	"sol2rs/internal/rust"
)

// Local is a variable visible to the statement being lowered.
type Local struct {
	Name string // Rust identifier
	Type ir.Type
}

type scope struct {
	locals map[string]*Local
	refs   map[string]string // interface@address -> reference variable
}

type loop struct {
	label string
	cont  string // labelled block that `continue` leaves, if any
}

// Context carries the state of one contract lowering: the expected-type
// stack, scoped locals, registered external references, the function being
// lowered and the queue of implementations still to emit.
type Context struct {
	Package  *ir.Package
	Contract *ir.Contract
	Backend  Backend

	// Function and Sig describe the function whose body is being lowered.
	Function *ir.Function
	Sig      *Signature

	expected []ir.Type
	scopes   []*scope
	loops    []loop
	results  []*ir.Param
	returns  []*Local // named returns of the current function
	mutated  mapset.Set[string]
	labels   int
	temps    int
	refCount map[string]int

	imports    mapset.Set[string]
	interfaces mapset.Set[string]
	queue      []*pending
	queued     map[string]*pending
}

func NewContext(c *ir.Contract, backend Backend) *Context {
	return &Context{
		Package:    c.Package(),
		Contract:   c,
		Backend:    backend,
		refCount:   make(map[string]int),
		imports:    mapset.NewThreadUnsafeSet[string](),
		interfaces: mapset.NewThreadUnsafeSet[string](),
		queued:     make(map[string]*pending),
	}
}

// PushExpected makes t the type literals are coerced to until the returned
// function is called. Callers defer the pop so every exit path restores the
// stack.
func (c *Context) PushExpected(t ir.Type) func() {
	depth := len(c.expected)
	c.expected = append(c.expected, t)
	return func() {
		c.expected = c.expected[:depth]
	}
}

// Expected returns the innermost expected type, or nil.
func (c *Context) Expected() ir.Type {
	if len(c.expected) == 0 {
		return nil
	}
	return c.expected[len(c.expected)-1]
}

// Use records an import the assembled file needs.
func (c *Context) Use(path string) {
	c.imports.Add(path)
}

// Imports returns the recorded imports sorted.
func (c *Context) Imports() []string {
	out := c.imports.ToSlice()
	sort.Strings(out)
	return out
}

func (c *Context) pushScope() {
	c.scopes = append(c.scopes, &scope{
		locals: make(map[string]*Local),
		refs:   make(map[string]string),
	})
}

func (c *Context) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// Declare binds a Solidity local name to a Rust identifier in the
// innermost scope.
func (c *Context) Declare(name, rustName string, t ir.Type) *Local {
	l := &Local{Name: rustName, Type: t}
	c.scopes[len(c.scopes)-1].locals[name] = l
	return l
}

// Lookup finds a local by its Solidity name.
func (c *Context) Lookup(name string) *Local {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if l, ok := c.scopes[i].locals[name]; ok {
			return l
		}
	}
	return nil
}

// Mutated reports whether a local is assigned after its declaration and
// therefore needs `mut`.
func (c *Context) Mutated(name string) bool {
	return c.mutated != nil && c.mutated.Contains(name)
}

func (c *Context) ref(key string) (string, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if name, ok := c.scopes[i].refs[key]; ok {
			return name, true
		}
	}
	return "", false
}

func (c *Context) declareRef(key, iface string) string {
	n := c.refCount[iface]
	c.refCount[iface]++
	name := fmt.Sprintf("%s_%d", ir.Ident(iface), n)
	c.scopes[len(c.scopes)-1].refs[key] = name
	return name
}

// Temp returns a fresh temporary identifier.
func (c *Context) Temp(prefix string) string {
	c.temps++
	return fmt.Sprintf("%s_%d", prefix, c.temps)
}

func (c *Context) pushLoop(withContinue bool) loop {
	l := loop{label: fmt.Sprintf("l%d", c.labels)}
	if withContinue {
		l.cont = fmt.Sprintf("c%d", c.labels)
	}
	c.labels++
	c.loops = append(c.loops, l)
	return l
}

func (c *Context) popLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *Context) currentLoop() (loop, bool) {
	if len(c.loops) == 0 {
		return loop{}, false
	}
	return c.loops[len(c.loops)-1], true
}

// enter resets the per-function state.
func (c *Context) enter(f *ir.Function, sig *Signature) {
	c.Function, c.Sig = f, sig
	c.expected = nil
	c.scopes = nil
	c.loops = nil
	c.results = nil
	c.returns = nil
	c.mutated = nil
	c.labels = 0
	c.temps = 0
	c.refCount = make(map[string]int)
	c.pushScope()
}

// pending is an implementation emitted under its own name: a super target,
// a base-qualified call target or a library function.
type pending struct {
	name string
	fn   *ir.Function
	impl *ir.Implementation
	lib  *ir.Contract
}

// implName returns the helper name for impl, queueing it the first time.
func (c *Context) implName(fn *ir.Function, impl *ir.Implementation) string {
	key := "impl:" + impl.Class + ":" + fn.Key()
	if p, ok := c.queued[key]; ok {
		return p.name
	}
	p := &pending{
		name: fmt.Sprintf("_%s_%s", trimRaw(fn.Name), ir.Ident(impl.Class)),
		fn:   fn,
		impl: impl,
	}
	c.queued[key] = p
	c.queue = append(c.queue, p)
	return p.name
}

// libraryName returns the helper name for a library function.
func (c *Context) libraryName(lib *ir.Contract, fn *ir.Function) string {
	key := "lib:" + lib.Name + ":" + fn.Key()
	if p, ok := c.queued[key]; ok {
		return p.name
	}
	p := &pending{
		name: ir.Ident(lib.Name) + "_" + trimRaw(fn.Name),
		fn:   fn,
		impl: fn.Primary(),
		lib:  lib,
	}
	c.queued[key] = p
	c.queue = append(c.queue, p)
	return p.name
}

func (c *Context) next() *pending {
	if len(c.queue) == 0 {
		return nil
	}
	p := c.queue[0]
	c.queue = c.queue[1:]
	return p
}

func trimRaw(name string) string {
	if len(name) > 2 && name[:2] == "r#" {
		return name[2:]
	}
	return name
}

// Operand lowers e for use as a value, cloning reads of non-Copy places.
func (c *Context) Operand(e ir.Expr) (rust.Expr, error) {
	x, err := c.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	if isPlace(c, e) && !c.Backend.IsCopy(e.Type()) {
		return rust.M(x, "clone"), nil
	}
	return x, nil
}

// OperandAs lowers e with t pushed as the expected type. Integers of a
// different width or signedness are converted implicitly.
func (c *Context) OperandAs(e ir.Expr, t ir.Type) (rust.Expr, error) {
	defer c.PushExpected(t)()
	x, err := c.Operand(e)
	if err != nil {
		return nil, err
	}
	from, ok := c.valueType(e).(*ir.IntType)
	to, ok2 := t.(*ir.IntType)
	if ok && ok2 && !ir.SameType(from, to) {
		return c.Backend.Cast(c, x, from, to)
	}
	return x, nil
}
