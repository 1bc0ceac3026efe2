package ir

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tliron/commonlog"

	"sol2rs/grammar"
	"sol2rs/internal/errors"
	"sol2rs/internal/linearize"
)

var log = commonlog.GetLogger("sol2rs.ir")

// Builder converts the concrete syntax tree into a Package. Building runs
// in passes: declare names, linearize, resolve signatures and types,
// flatten, build bodies, and finally propagate caller use.
type Builder struct {
	ctx   *CompilationContext
	pkg   *Package
	graph *linearize.Graph

	contracts map[*grammar.ContractDefinition]*Contract
	structs   map[*grammar.StructDefinition]*Struct
	pending   []pendingBody

	// body state
	contract *Contract
	impl     *Implementation
	scopes   []map[string]*LocalVar
	modifier bool
	loops    int
}

// pendingBody is code whose expressions can only be built once every
// signature is known.
type pendingBody struct {
	contract *Contract
	impl     *Implementation
	fn       *grammar.FunctionDefinition
	mod      *grammar.ModifierDefinition
	field    *StorageField
	constant *Constant
	value    *grammar.Expression
	base     *BaseCall
	modCall  *ModifierCall
	args     []*grammar.Expression
}

// NewBuilder creates a builder registering errors into ctx.
func NewBuilder(ctx *CompilationContext) *Builder {
	return &Builder{
		ctx:       ctx,
		graph:     linearize.NewGraph(),
		contracts: make(map[*grammar.ContractDefinition]*Contract),
		structs:   make(map[*grammar.StructDefinition]*Struct),
	}
}

// Build is the entry point converting a parsed source unit into IR.
func Build(name string, unit *grammar.SourceUnit, ctx *CompilationContext) (*Package, error) {
	return NewBuilder(ctx).Build(name, unit)
}

func (b *Builder) Build(name string, unit *grammar.SourceUnit) (*Package, error) {
	b.pkg = &Package{
		Name:    name,
		Context: b.ctx,
		byName:  make(map[string]*Contract),
	}

	steps := []struct {
		name string
		run  func(*grammar.SourceUnit) error
	}{
		{"declare", b.declare},
		{"linearize", b.linearize},
		{"resolve", b.resolve},
		{"flatten", func(*grammar.SourceUnit) error { return b.flatten() }},
		{"bodies", func(*grammar.SourceUnit) error { return b.bodies() }},
		{"callers", func(*grammar.SourceUnit) error { b.propagateCallers(); return nil }},
	}
	for _, step := range steps {
		log.Debugf("%s: %s", name, step.name)
		if err := step.run(unit); err != nil {
			return nil, err
		}
	}
	return b.pkg, nil
}

// Pass 1: names of contracts, structs and enums, so that types can refer to
// anything declared anywhere in the unit.
func (b *Builder) declare(unit *grammar.SourceUnit) error {
	for _, part := range unit.Parts {
		switch {
		case part.Import != nil:
			log.Warningf("import of %s is not followed", part.Import.Path)
		case part.Contract != nil:
			if err := b.declareContract(part.Contract); err != nil {
				return err
			}
		case part.Struct != nil:
			s := &Struct{Name: part.Struct.Name, Pos: part.Struct.Pos}
			b.structs[part.Struct] = s
			b.pkg.Structs = append(b.pkg.Structs, s)
		case part.Enum != nil:
			b.pkg.Enums = append(b.pkg.Enums, buildEnum(part.Enum, ""))
		case part.Function != nil:
			return errors.Unsupported(part.Function.Pos, "free function '"+part.Function.Name+"'")
		}
	}
	return nil
}

func (b *Builder) declareContract(def *grammar.ContractDefinition) error {
	if prev := b.pkg.byName[def.Name]; prev != nil {
		return errors.Unexpected(def.Pos, "a unique contract name", fmt.Sprintf("second declaration of '%s'", def.Name))
	}

	c := &Contract{
		Name:     def.Name,
		Kind:     ContractKind(def.Kind),
		Abstract: def.Abstract,
		Pos:      def.Pos,
		pkg:      b.pkg,
	}
	for _, base := range def.Bases {
		c.Bases = append(c.Bases, base.Name)
	}

	b.contracts[def] = c
	b.pkg.byName[c.Name] = c
	switch c.Kind {
	case KindInterface:
		b.pkg.Interfaces = append(b.pkg.Interfaces, c)
	case KindLibrary:
		b.pkg.Libraries = append(b.pkg.Libraries, c)
	default:
		b.pkg.Contracts = append(b.pkg.Contracts, c)
	}

	for _, part := range def.Parts {
		switch {
		case part.Struct != nil:
			s := &Struct{Name: part.Struct.Name, Class: c.Name, Pos: part.Struct.Pos}
			b.structs[part.Struct] = s
			c.Structs = append(c.Structs, s)
		case part.Enum != nil:
			c.Enums = append(c.Enums, buildEnum(part.Enum, c.Name))
		}
	}
	return nil
}

func buildEnum(def *grammar.EnumDefinition, class string) *Enum {
	e := &Enum{Name: def.Name, Class: class, Pos: def.Pos}
	for i, v := range def.Values {
		e.Variants = append(e.Variants, &EnumVariant{Name: v, Discriminant: i, Default: i == 0})
	}
	return e
}

// Pass 2: C3 linearization of every contract. Solidity lists bases from
// most base to most derived, so the list is reversed for the graph.
func (b *Builder) linearize(unit *grammar.SourceUnit) error {
	all := b.allContracts()
	for _, c := range all {
		bases := make([]linearize.Class, 0, len(c.Bases))
		for i := len(c.Bases) - 1; i >= 0; i-- {
			bases = append(bases, linearize.Class(c.Bases[i]))
		}
		b.graph.AddClass(linearize.Class(c.Name), bases...)
	}

	for _, c := range all {
		chain, err := b.graph.Linearize(linearize.Class(c.Name))
		if err != nil {
			return errors.Linearization(c.Name, err).At(c.Pos)
		}
		c.Chain = make([]string, len(chain))
		for i, class := range chain {
			c.Chain[i] = string(class)
		}
		log.Debugf("linearized %s: %v", c.Name, c.Chain)
	}
	return nil
}

func (b *Builder) allContracts() []*Contract {
	var all []*Contract
	all = append(all, b.pkg.Contracts...)
	all = append(all, b.pkg.Interfaces...)
	all = append(all, b.pkg.Libraries...)
	slices.SortStableFunc(all, func(x, y *Contract) int {
		if x.Pos.Offset != y.Pos.Offset {
			return x.Pos.Offset - y.Pos.Offset
		}
		return 0
	})
	return all
}

// Pass 3: signatures, fields, events, errors and struct layouts, in source
// order so that custom errors are registered in declaration order.
func (b *Builder) resolve(unit *grammar.SourceUnit) error {
	for _, part := range unit.Parts {
		var err error
		switch {
		case part.Contract != nil:
			err = b.resolveContract(b.contracts[part.Contract], part.Contract)
		case part.Struct != nil:
			err = b.resolveStruct(b.structs[part.Struct], part.Struct, nil)
		case part.Event != nil:
			var ev *Event
			if ev, err = b.resolveEvent(part.Event, nil); err == nil {
				b.pkg.Events = append(b.pkg.Events, ev)
			}
		case part.Error != nil:
			var def *ErrorDef
			if def, err = b.resolveError(part.Error, nil); err == nil {
				b.pkg.Errors = append(b.pkg.Errors, def)
			}
		case part.Constant != nil:
			err = b.resolveConstant(part.Constant, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) resolveContract(c *Contract, def *grammar.ContractDefinition) error {
	for _, base := range def.Bases {
		if base.HasArgs {
			call := &BaseCall{Base: base.Name, Declarer: c.Name, Pos: base.Pos}
			c.BaseCalls = append(c.BaseCalls, call)
			b.pending = append(b.pending, pendingBody{contract: c, base: call, args: base.Args})
		}
	}

	for _, part := range def.Parts {
		var err error
		switch {
		case part.Using != nil:
			err = b.resolveUsing(c, part.Using)
		case part.Struct != nil:
			err = b.resolveStruct(b.structs[part.Struct], part.Struct, c)
		case part.Event != nil:
			var ev *Event
			if ev, err = b.resolveEvent(part.Event, c); err == nil {
				c.Events = append(c.Events, ev)
			}
		case part.Error != nil:
			var e *ErrorDef
			if e, err = b.resolveError(part.Error, c); err == nil {
				c.Errors = append(c.Errors, e)
			}
		case part.Modifier != nil:
			err = b.resolveModifier(c, part.Modifier)
		case part.Function != nil:
			err = b.resolveFunction(c, part.Function)
		case part.Variable != nil:
			err = b.resolveVariable(c, part.Variable)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) resolveUsing(c *Contract, def *grammar.UsingDirective) error {
	lib := b.pkg.Contract(def.Library)
	if lib == nil || lib.Kind != KindLibrary {
		return errors.Unsupported(def.Pos, "library "+def.Library)
	}
	u := &Using{Library: lib.Name}
	if !def.Wildcard {
		t, err := b.resolveType(def.Target, c)
		if err != nil {
			return err
		}
		u.Target = t
	}
	c.Usings = append(c.Usings, u)
	return nil
}

func (b *Builder) resolveStruct(s *Struct, def *grammar.StructDefinition, scope *Contract) error {
	for _, f := range def.Fields {
		t, err := b.resolveType(f.Type, scope)
		if err != nil {
			return err
		}
		if IsMapping(t) {
			return errors.Unsupported(f.Pos, "mapping inside struct "+s.Name)
		}
		s.Fields = append(s.Fields, &Param{Name: f.Name, Type: t})
	}
	return nil
}

func (b *Builder) resolveEvent(def *grammar.EventDefinition, scope *Contract) (*Event, error) {
	ev := &Event{Name: def.Name, Anonymous: def.Anonymous, Pos: def.Pos}
	if scope != nil {
		ev.Class = scope.Name
	}
	for i, p := range def.Params {
		t, err := b.resolveType(p.Type, scope)
		if err != nil {
			return nil, err
		}
		name := p.Name
		if name == "" {
			name = "field_" + strconv.Itoa(i)
		}
		ev.Fields = append(ev.Fields, &EventField{Name: name, Type: t, Indexed: p.Indexed})
	}
	return ev, nil
}

func (b *Builder) resolveError(def *grammar.ErrorDefinition, scope *Contract) (*ErrorDef, error) {
	e := &ErrorDef{Name: def.Name, Pos: def.Pos}
	if scope != nil {
		e.Class = scope.Name
	}
	params, err := b.resolveParams(def.Params, scope, "field_")
	if err != nil {
		return nil, err
	}
	e.Fields = params
	b.ctx.RegisterCustom(e)
	return e, nil
}

func (b *Builder) resolveParams(defs []*grammar.Parameter, scope *Contract, unnamed string) ([]*Param, error) {
	params := make([]*Param, 0, len(defs))
	for i, p := range defs {
		t, err := b.resolveType(p.Type, scope)
		if err != nil {
			return nil, err
		}
		name := p.Name
		if name == "" && unnamed != "" {
			name = unnamed + strconv.Itoa(i)
		}
		params = append(params, &Param{Name: name, Type: t})
	}
	return params, nil
}

func (b *Builder) resolveModifier(c *Contract, def *grammar.ModifierDefinition) error {
	params, err := b.resolveParams(def.Params, c, "_")
	if err != nil {
		return err
	}
	impl := newImplementation(c.Name, def.Pos)
	impl.Params = params
	impl.Virtual = slices.Contains(def.Attrs, "virtual")
	impl.Override = slices.Contains(def.Attrs, "override")
	impl.Implemented = def.Body != nil

	c.Modifiers = append(c.Modifiers, &Function{
		Name:            Ident(def.Name),
		SolidityName:    def.Name,
		Kind:            FunctionKindModifier,
		Visibility:      Internal,
		Params:          params,
		Implementations: []*Implementation{impl},
	})
	if def.Body != nil {
		b.pending = append(b.pending, pendingBody{contract: c, impl: impl, mod: def})
	}
	return nil
}

func newImplementation(class string, pos lexer.Position) *Implementation {
	return &Implementation{
		Class:         class,
		ExternalCalls: mapset.NewThreadUnsafeSet[string](),
		Calls:         mapset.NewThreadUnsafeSet[string](),
		Pos:           pos,
	}
}

func (b *Builder) resolveFunction(c *Contract, def *grammar.FunctionDefinition) error {
	f := &Function{
		Visibility: Public,
		Mutability: NonPayable,
	}
	switch def.Kind {
	case "constructor":
		f.Kind, f.Name, f.SolidityName = FunctionKindConstructor, "new", "constructor"
	case "fallback":
		f.Kind, f.Name, f.SolidityName = FunctionKindFallback, "fallback", "fallback"
		f.Visibility = External
	case "receive":
		f.Kind, f.Name, f.SolidityName = FunctionKindReceive, "receive", "receive"
		f.Visibility, f.Mutability = External, Payable
	default:
		if def.Name == "" {
			return errors.InvalidFunction(def.Pos, "function without a name")
		}
		f.Kind, f.Name, f.SolidityName = FunctionKindFunction, Ident(def.Name), def.Name
	}
	if c.Kind == KindInterface {
		f.Visibility = External
	}
	if c.Kind == KindLibrary {
		f.Visibility = Internal
	}

	impl := newImplementation(c.Name, def.Pos)
	impl.Implemented = def.Body != nil
	for _, attr := range def.Attrs {
		switch {
		case attr.Visibility != "":
			f.Visibility = Visibility(attr.Visibility)
		case attr.Mutability != "":
			f.Mutability = Mutability(attr.Mutability)
			if attr.Mutability == "constant" {
				f.Mutability = View
			}
		case attr.Virtual:
			impl.Virtual = true
		case attr.Override:
			impl.Override = true
		case attr.Modifier != nil:
			b.resolveInvocation(c, f, impl, attr.Modifier)
		}
	}

	var err error
	if impl.Params, err = b.resolveParams(def.Params, c, "_"); err != nil {
		return err
	}
	if impl.Returns, err = b.resolveParams(def.Returns, c, ""); err != nil {
		return err
	}
	f.Params, f.Returns = impl.Params, impl.Returns
	f.Implementations = []*Implementation{impl}

	if f.Kind == FunctionKindConstructor && len(f.Returns) > 0 {
		return errors.InvalidFunction(def.Pos, "constructor of '%s' cannot return values", c.Name)
	}

	switch f.Kind {
	case FunctionKindConstructor:
		if c.Constructor != nil {
			return errors.InvalidFunction(def.Pos, "'%s' declares more than one constructor", c.Name)
		}
		c.Constructor = f
	default:
		c.Functions = append(c.Functions, f)
	}

	if def.Body != nil {
		b.pending = append(b.pending, pendingBody{contract: c, impl: impl, fn: def})
	}
	return nil
}

// resolveInvocation records a modifier invocation, or base constructor
// arguments when the name is a base of c.
func (b *Builder) resolveInvocation(c *Contract, f *Function, impl *Implementation, inv *grammar.ModifierInvocation) {
	if f.Kind == FunctionKindConstructor && slices.Contains(c.Chain[1:], inv.Name) {
		call := &BaseCall{Base: inv.Name, Declarer: c.Name, Pos: inv.Pos}
		c.BaseCalls = append(c.BaseCalls, call)
		b.pending = append(b.pending, pendingBody{contract: c, impl: impl, base: call, args: inv.Args})
		return
	}
	mc := &ModifierCall{Name: inv.Name, Pos: inv.Pos}
	impl.Modifiers = append(impl.Modifiers, mc)
	if len(inv.Args) > 0 {
		b.pending = append(b.pending, pendingBody{contract: c, impl: impl, modCall: mc, args: inv.Args})
	}
}

func (b *Builder) resolveVariable(c *Contract, def *grammar.StateVariable) error {
	t, err := b.resolveType(def.Type, c)
	if err != nil {
		return err
	}

	if slices.Contains(def.Attrs, "constant") {
		return b.resolveConstant(def, c)
	}

	if IsMapping(t) && def.Value != nil {
		return errors.MappingInitialized(def.Pos, def.Name)
	}

	field := &StorageField{
		Name:         Ident(def.Name),
		SolidityName: def.Name,
		Type:         t,
		Public:       slices.Contains(def.Attrs, "public"),
		Immutable:    slices.Contains(def.Attrs, "immutable"),
		Class:        c.Name,
		Pos:          def.Pos,
	}
	c.Fields = append(c.Fields, field)
	if def.Value != nil {
		b.pending = append(b.pending, pendingBody{contract: c, field: field, value: def.Value})
	}
	return nil
}

func (b *Builder) resolveConstant(def *grammar.StateVariable, scope *Contract) error {
	t, err := b.resolveType(def.Type, scope)
	if err != nil {
		return err
	}
	if def.Value == nil {
		return errors.InvalidFunction(def.Pos, "constant '%s' has no value", def.Name)
	}
	k := &Constant{
		Name:         ConstIdent(def.Name),
		SolidityName: def.Name,
		Type:         t,
		Pos:          def.Pos,
	}
	if scope != nil {
		k.Class = scope.Name
		scope.Constants = append(scope.Constants, k)
	} else {
		b.pkg.Constants = append(b.pkg.Constants, k)
	}
	b.pending = append(b.pending, pendingBody{contract: scope, constant: k, value: def.Value})
	return nil
}

// resolveType maps a syntactic type to the IR. User-defined names are looked
// up along the chain of scope, then at file level.
func (b *Builder) resolveType(t *grammar.TypeName, scope *Contract) (Type, error) {
	var base Type
	switch {
	case t.Mapping != nil:
		key, err := b.resolveType(t.Mapping.Key, scope)
		if err != nil {
			return nil, err
		}
		if IsMapping(key) {
			return nil, errors.Mapping(t.Pos, "mapping keys cannot be mappings")
		}
		value, err := b.resolveType(t.Mapping.Value, scope)
		if err != nil {
			return nil, err
		}
		base = &MappingType{Key: key, Value: value}
	default:
		resolved, err := b.namedType(t.Path, t.Pos, scope)
		if err != nil {
			return nil, err
		}
		if t.Payable {
			if _, ok := resolved.(*AddressType); ok {
				resolved = &AddressType{Payable: true}
			}
		}
		base = resolved
	}

	for _, dim := range t.Dims {
		length := -1
		if dim.Size != nil {
			n, err := b.arrayLength(dim.Size)
			if err != nil {
				return nil, err
			}
			length = n
		}
		base = &ArrayType{Elem: base, Length: length}
	}
	return base, nil
}

func (b *Builder) arrayLength(e *grammar.Expression) (int, error) {
	lit, err := b.expr(e)
	if err != nil {
		return 0, err
	}
	l, ok := lit.(*Literal)
	if !ok || l.Kind != IntLiteral || !l.Int.IsUint64() {
		return 0, errors.Unexpected(e.Pos, "constant array length", e.Describe())
	}
	return int(l.Int.Uint64()), nil
}

func (b *Builder) namedType(path string, pos lexer.Position, scope *Contract) (Type, error) {
	if t, ok, err := elementaryType(path); ok {
		if err != nil {
			return nil, errors.NumSize(pos, "%s", err)
		}
		return t, nil
	}
	if t := b.userType(path, scope); t != nil {
		return t, nil
	}
	return nil, errors.Unsupported(pos, path)
}

// userType finds a struct, enum or contract type. Dotted paths name a
// declaration inside a contract.
func (b *Builder) userType(path string, scope *Contract) Type {
	if i := indexByte(path, '.'); i >= 0 {
		owner := b.pkg.Contract(path[:i])
		if owner == nil {
			return nil
		}
		return typeIn(owner, path[i+1:])
	}

	if scope != nil {
		for _, class := range scope.ChainContracts() {
			if t := typeIn(class, path); t != nil {
				return t
			}
		}
	}
	for _, s := range b.pkg.Structs {
		if s.Name == path {
			return &StructType{Def: s}
		}
	}
	for _, e := range b.pkg.Enums {
		if e.Name == path {
			return &EnumType{Def: e}
		}
	}
	if c := b.pkg.Contract(path); c != nil {
		return &ContractType{Def: c}
	}
	return nil
}

func typeIn(c *Contract, name string) Type {
	for _, s := range c.Structs {
		if s.Name == name {
			return &StructType{Def: s}
		}
	}
	for _, e := range c.Enums {
		if e.Name == name {
			return &EnumType{Def: e}
		}
	}
	return nil
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
