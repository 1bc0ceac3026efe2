package ir

import (
	"fmt"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"sol2rs/internal/errors"
)

// Pass 4: flatten every contract along its chain. Storage is laid out
// base-first; the dispatch table keeps first-declaration order and collects
// overriding implementations most-derived first.
func (b *Builder) flatten() error {
	for _, c := range b.allContracts() {
		if err := flattenContract(c); err != nil {
			return err
		}
	}
	return nil
}

func flattenContract(c *Contract) error {
	chain := c.ChainContracts()
	c.Storage = nil
	c.Dispatch = nil
	c.dispatch = make(map[string]*Function)
	c.ModifierTable = make(map[string]*Function)

	for i := len(chain) - 1; i >= 0; i-- {
		class := chain[i]
		c.Storage = append(c.Storage, class.Fields...)
		for _, f := range class.Functions {
			c.merge(f)
		}
		for _, m := range class.Modifiers {
			impl := m.Implementations[0]
			if prev, ok := c.ModifierTable[m.SolidityName]; ok {
				prev.Implementations = append([]*Implementation{impl}, prev.Implementations...)
				continue
			}
			entry := *m
			entry.Implementations = []*Implementation{impl}
			c.ModifierTable[m.SolidityName] = &entry
		}
	}

	if c.Kind == KindContract {
		addGetters(c)
	}
	nameOverloads(c)

	if c.Kind == KindContract && !c.Abstract {
		for _, f := range c.Dispatch {
			if !f.Primary().Implemented {
				return errors.InvalidFunction(c.Pos, "function '%s' has no implementation in '%s'", f.SolidityName, c.Name).
					WithHelp("implement it or mark the contract abstract")
			}
		}
	}
	return nil
}

func (c *Contract) merge(f *Function) {
	impl := f.Implementations[0]
	key := f.Key()
	if prev, ok := c.dispatch[key]; ok {
		prev.Implementations = append([]*Implementation{impl}, prev.Implementations...)
		prev.Visibility = f.Visibility
		prev.Mutability = f.Mutability
		prev.Params, prev.Returns = f.Params, f.Returns
		return
	}
	entry := *f
	entry.Implementations = []*Implementation{impl}
	c.dispatch[key] = &entry
	c.Dispatch = append(c.Dispatch, &entry)
}

// nameOverloads suffixes the arity to functions sharing a Solidity name.
func nameOverloads(c *Contract) {
	count := make(map[string]int)
	for _, f := range c.Dispatch {
		count[f.SolidityName]++
	}
	for _, f := range c.Dispatch {
		if count[f.SolidityName] > 1 {
			f.Name = Ident(f.SolidityName) + "_" + strconv.Itoa(len(f.Params))
		}
	}
}

func (c *Contract) hasFunctionNamed(name string) bool {
	for _, f := range c.Dispatch {
		if f.SolidityName == name {
			return true
		}
	}
	return false
}

// addGetters synthesizes a view function for every public field that no
// function of the same name shadows.
func addGetters(c *Contract) {
	for _, field := range c.Storage {
		if !field.Public || c.hasFunctionNamed(field.SolidityName) {
			continue
		}
		getter := newGetter(field)
		c.dispatch[getter.Key()] = getter
		c.Dispatch = append(c.Dispatch, getter)
	}
}

func newGetter(field *StorageField) *Function {
	at := node{Pos: field.Pos}
	var params []*Param
	var value Expr = &FieldRef{node: at, Field: field}
	t := field.Type

	for done := false; !done; {
		name := fmt.Sprintf("arg%d", len(params))
		switch x := t.(type) {
		case *MappingType:
			params = append(params, &Param{Name: name, Type: x.Key})
			value = &Index{node: at, Target: value, Key: &Var{node: at, Name: name, Typ: x.Key}, Typ: x.Value}
			t = x.Value
		case *ArrayType:
			params = append(params, &Param{Name: name, Type: Uint256})
			value = &Index{node: at, Target: value, Key: &Var{node: at, Name: name, Typ: Uint256}, Typ: x.Elem}
			t = x.Elem
		default:
			done = true
		}
	}

	returns := []*Param{{Type: t}}
	impl := newImplementation(field.Class, field.Pos)
	impl.Params = params
	impl.Returns = returns
	impl.Body = &Block{node: at, Stmts: []Stmt{&ReturnStmt{node: at, Value: value}}}
	impl.Implemented = true

	return &Function{
		Name:            field.Name,
		SolidityName:    field.SolidityName,
		Kind:            FunctionKindGetter,
		Visibility:      External,
		Mutability:      View,
		Params:          params,
		Returns:         returns,
		Implementations: []*Implementation{impl},
	}
}

// Pass 6: a function needs the caller when any of its implementations, the
// modifiers guarding them, or any function they call reads msg.sender.
func (b *Builder) propagateCallers() {
	for _, c := range b.pkg.Contracts {
		users := mapset.NewThreadUnsafeSet[string]()
		for _, f := range c.Dispatch {
			if c.usesCallerDirectly(f.Implementations) {
				users.Add(f.Key())
			}
		}

		for changed := true; changed; {
			changed = false
			for _, f := range c.Dispatch {
				if users.Contains(f.Key()) {
					continue
				}
				if c.callsAny(f.Implementations, users) {
					users.Add(f.Key())
					changed = true
				}
			}
		}
		c.callerUsers = users
		log.Debugf("%s: caller needed by %v", c.Name, users.ToSlice())
	}
}

func (c *Contract) usesCallerDirectly(impls []*Implementation) bool {
	for _, impl := range impls {
		if impl.UsesCaller {
			return true
		}
		for _, m := range impl.Modifiers {
			if mod := c.ModifierTable[m.Name]; mod != nil && c.usesCallerDirectly(mod.Implementations) {
				return true
			}
		}
	}
	return false
}

func (c *Contract) callsAny(impls []*Implementation, users mapset.Set[string]) bool {
	for _, impl := range impls {
		for _, key := range impl.Calls.ToSlice() {
			if users.Contains(key) {
				return true
			}
		}
		for _, m := range impl.Modifiers {
			if mod := c.ModifierTable[m.Name]; mod != nil && c.callsAny(mod.Implementations, users) {
				return true
			}
		}
	}
	return false
}

// ConstructorNeedsCaller reports whether building the contract reads
// msg.sender, through field initializers or any constructor in the chain.
func (c *Contract) ConstructorNeedsCaller() bool {
	for _, class := range c.ChainContracts() {
		if class.InitUsesCaller {
			return true
		}
		if class.Constructor == nil {
			continue
		}
		impls := class.Constructor.Implementations
		if c.usesCallerDirectly(impls) || (c.callerUsers != nil && c.callsAny(impls, c.callerUsers)) {
			return true
		}
	}
	return false
}
