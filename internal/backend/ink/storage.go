package ink

import (
	"fmt"
	"strings"

	"sol2rs/internal/ir"
	"sol2rs/internal/lower"
	"sol2rs/internal/rust"
)

// StorageItems declares the storage struct. Mappings become ink! Mappings;
// nested mappings are keyed by a tuple of their keys.
func (b *Backend) StorageItems(ctx *lower.Context) ([]rust.Item, error) {
	s := &rust.Struct{
		Attrs: []string{"ink(storage)", "derive(Default)"},
		Name:  ir.TypeIdent(ctx.Contract.Name),
	}
	for _, f := range ctx.Contract.Storage {
		t, err := b.fieldType(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, &rust.Field{Name: f.Name, Type: t})
	}
	if len(s.Fields) == 0 {
		s.Unit = true
	}
	return []rust.Item{s}, nil
}

func (b *Backend) fieldType(ctx *lower.Context, t ir.Type) (string, error) {
	keys := ir.MappingKeys(t)
	if len(keys) == 0 {
		return b.Type(ctx, t)
	}
	_, value := ir.MappingDepth(t)
	names := make([]string, len(keys))
	for i, k := range keys {
		s, err := b.Type(ctx, k)
		if err != nil {
			return "", err
		}
		names[i] = s
	}
	v, err := b.Type(ctx, value)
	if err != nil {
		return "", err
	}
	ctx.Use("ink::storage::Mapping")
	key := names[0]
	if len(names) > 1 {
		key = "(" + strings.Join(names, ", ") + ")"
	}
	return "Mapping<" + key + ", " + v + ">", nil
}

func self(field string) rust.Expr {
	return rust.Sel(rust.Id("self"), field)
}

func mappingKey(keys []rust.Expr) rust.Expr {
	if len(keys) == 1 {
		return rust.Ref(keys[0])
	}
	return rust.Ref(&rust.Tuple{Elems: keys})
}

func (b *Backend) FieldPlace(ctx *lower.Context, f *ir.StorageField) (rust.Expr, bool) {
	if ir.IsMapping(f.Type) {
		return nil, false
	}
	return self(f.Name), true
}

// ReadField reads a mapping entry, defaulting missing entries to zero.
func (b *Backend) ReadField(ctx *lower.Context, f *ir.StorageField, keys []rust.Expr) (rust.Expr, error) {
	if len(keys) == 0 {
		return self(f.Name), nil
	}
	return rust.M(rust.M(self(f.Name), "get", mappingKey(keys)), "unwrap_or_default"), nil
}

func (b *Backend) WriteField(ctx *lower.Context, f *ir.StorageField, keys []rust.Expr, value rust.Expr) (rust.Stmt, error) {
	if len(keys) == 0 {
		return &rust.Assign{Target: self(f.Name), Op: "=", Value: value}, nil
	}
	return &rust.ExprStmt{X: rust.M(self(f.Name), "insert", mappingKey(keys), rust.Ref(value))}, nil
}

// EventItems declares one `#[ink(event)]` struct per event; indexed
// parameters become topics.
func (b *Backend) EventItems(ctx *lower.Context, events []*ir.Event) ([]rust.Item, error) {
	var items []rust.Item
	for _, ev := range events {
		attr := "ink(event)"
		if ev.Anonymous {
			attr = "ink(event, anonymous)"
		}
		s := &rust.Struct{Attrs: []string{attr}, Name: ir.TypeIdent(ev.Name), Unit: len(ev.Fields) == 0}
		for i, f := range ev.Fields {
			t, err := b.Type(ctx, f.Type)
			if err != nil {
				return nil, err
			}
			field := &rust.Field{Pub: true, Name: eventField(f, i), Type: t}
			if f.Indexed {
				field.Attrs = []string{"ink(topic)"}
			}
			s.Fields = append(s.Fields, field)
		}
		items = append(items, s)
	}
	return items, nil
}

func eventField(f *ir.EventField, i int) string {
	if f.Name == "" {
		return fmt.Sprintf("field_%d", i)
	}
	return ir.Ident(f.Name)
}

func (b *Backend) Emit(ctx *lower.Context, ev *ir.Event, args []rust.Expr) (rust.Stmt, error) {
	var value rust.Expr = rust.Id(ir.TypeIdent(ev.Name))
	if len(ev.Fields) > 0 {
		lit := &rust.StructLit{Name: ir.TypeIdent(ev.Name)}
		for i, f := range ev.Fields {
			lit.Fields = append(lit.Fields, &rust.FieldInit{Name: eventField(f, i), Value: args[i]})
		}
		value = lit
	}
	return &rust.ExprStmt{X: rust.M(rust.M(rust.Id("self"), "env"), "emit_event", value)}, nil
}
