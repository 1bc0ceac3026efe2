package soroban

import (
	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

// StorageItems declares DataKey with one variant per field; mapping
// fields carry their keys as tuple data.
func (b *Backend) StorageItems(ctx *lower.Context) ([]rust.Item, error) {
	if len(ctx.Contract.Storage) == 0 {
		return nil, nil
	}
	ctx.Use("contracttype")
	key := &rust.Enum{
		Attrs: []string{"contracttype", "derive(Clone)"},
		Name:  "DataKey",
	}
	for _, f := range ctx.Contract.Storage {
		v := &rust.Variant{Name: ir.TypeIdent(f.Name)}
		for _, k := range ir.MappingKeys(f.Type) {
			t, err := b.Type(ctx, k)
			if err != nil {
				return nil, err
			}
			v.Tuple = append(v.Tuple, t)
		}
		// validate the value type early
		_, value := ir.MappingDepth(f.Type)
		if _, err := b.Type(ctx, value); err != nil {
			return nil, err
		}
		key.Variants = append(key.Variants, v)
	}
	return []rust.Item{key}, nil
}

func dataKey(f *ir.StorageField, keys []rust.Expr) rust.Expr {
	name := "DataKey::" + ir.TypeIdent(f.Name)
	if len(keys) == 0 {
		return rust.Id(name)
	}
	return rust.C(name, keys...)
}

func persistent() rust.Expr {
	return rust.M(rust.M(rust.Id("env"), "storage"), "persistent")
}

// FieldPlace is never available: every field lives in host storage.
func (b *Backend) FieldPlace(ctx *lower.Context, f *ir.StorageField) (rust.Expr, bool) {
	return nil, false
}

// ReadField reads a field, falling back to the zero value for entries that
// were never written. Types without a zero value unwrap.
func (b *Backend) ReadField(ctx *lower.Context, f *ir.StorageField, keys []rust.Expr) (rust.Expr, error) {
	_, value := ir.MappingDepth(f.Type)
	t, err := b.Type(ctx, value)
	if err != nil {
		return nil, err
	}
	get := rust.M(persistent(), "get::<DataKey, "+t+">", rust.Ref(dataKey(f, keys)))
	zero, err := b.Zero(ctx, value)
	if err != nil {
		return rust.M(get, "unwrap"), nil
	}
	return rust.M(get, "unwrap_or", zero), nil
}

func (b *Backend) WriteField(ctx *lower.Context, f *ir.StorageField, keys []rust.Expr, value rust.Expr) (rust.Stmt, error) {
	return &rust.ExprStmt{X: rust.M(persistent(), "set", rust.Ref(dataKey(f, keys)), borrow(value))}, nil
}

// EventItems declares nothing: Soroban events are published ad hoc.
func (b *Backend) EventItems(ctx *lower.Context, events []*ir.Event) ([]rust.Item, error) {
	return nil, nil
}

// Emit publishes the event name and indexed fields as topics and the
// remaining fields as data.
func (b *Backend) Emit(ctx *lower.Context, ev *ir.Event, args []rust.Expr) (rust.Stmt, error) {
	ctx.Use("Symbol")
	topics := []rust.Expr{&rust.Call{Fn: rust.Id("Symbol::new"), Args: []rust.Expr{env(), rust.Str(ev.Name)}}}
	var data []rust.Expr
	for i, f := range ev.Fields {
		if f.Indexed {
			topics = append(topics, args[i])
		} else {
			data = append(data, args[i])
		}
	}
	var payload rust.Expr = rust.L("()")
	if len(data) > 0 {
		payload = &rust.Tuple{Elems: data}
	}
	events := rust.M(rust.Id("env"), "events")
	return &rust.ExprStmt{X: rust.M(events, "publish", &rust.Tuple{Elems: topics}, payload)}, nil
}
