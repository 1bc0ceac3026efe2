package grammar

import (
	"fmt"
	"strings"
)

// String renders the type as it would be written in Solidity.
func (t *TypeName) String() string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	if t.Mapping != nil {
		b.WriteString(t.Mapping.String())
	} else {
		b.WriteString(t.Path)
	}
	if t.Payable {
		b.WriteString(" payable")
	}
	for _, d := range t.Dims {
		b.WriteString("[")
		if d.Size != nil {
			b.WriteString(d.Size.String())
		}
		b.WriteString("]")
	}
	return b.String()
}

func (m *MappingType) String() string {
	return fmt.Sprintf("mapping(%s => %s)", m.Key, m.Value)
}

func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	if e.Op == "" {
		return e.Target.String()
	}
	return fmt.Sprintf("%s %s %s", e.Target, e.Op, e.Value)
}

func (c *Conditional) String() string {
	if c.Then == nil {
		return c.Cond.String()
	}
	return fmt.Sprintf("%s ? %s : %s", c.Cond, c.Then, c.Else)
}

func (b *Binary) String() string {
	var sb strings.Builder
	sb.WriteString(b.Left.String())
	for _, r := range b.Rest {
		sb.WriteString(" " + r.Op + " " + r.Right.String())
	}
	return sb.String()
}

func (u *Unary) String() string {
	if u.Postfix != nil {
		return u.Postfix.String()
	}
	if u.Op == "delete" {
		return "delete " + u.Operand.String()
	}
	return u.Op + u.Operand.String()
}

func (p *Postfix) String() string {
	var b strings.Builder
	b.WriteString(p.Primary.String())
	for _, s := range p.Suffix {
		b.WriteString(s.String())
	}
	return b.String()
}

func (s *Suffix) String() string {
	switch {
	case s.Member != "":
		return "." + s.Member
	case s.Index != nil:
		return "[" + s.Index.Index.String() + "]"
	case s.Call != nil:
		return s.Call.String()
	default:
		return s.Incr
	}
}

func (c *CallSuffix) String() string {
	if len(c.Named) > 0 {
		parts := make([]string, len(c.Named))
		for i, n := range c.Named {
			parts[i] = n.Name + ": " + n.Value.String()
		}
		return "({" + strings.Join(parts, ", ") + "})"
	}
	return "(" + joinExpressions(c.Args) + ")"
}

func (p *Primary) String() string {
	switch {
	case p.Number != nil:
		if p.Number.Unit != "" {
			return p.Number.Value + " " + p.Number.Unit
		}
		return p.Number.Value
	case p.Strings != nil:
		return fmt.Sprintf("%q", strings.Join(p.Strings, ""))
	case p.Bool != "":
		return p.Bool
	case p.TypeOf != nil:
		return "type(" + p.TypeOf.String() + ")"
	case p.New != nil:
		return "new " + p.New.String()
	case p.Tuple != nil:
		return "(" + joinExpressions(p.Tuple.Elements) + ")"
	case p.Array != nil:
		return "[" + joinExpressions(p.Array.Elements) + "]"
	default:
		return p.Ident
	}
}

func joinExpressions(exprs []*Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Describe names the shape of an expression for diagnostics, e.g. "call"
// or "literal".
func (e *Expression) Describe() string {
	switch {
	case e == nil:
		return "nothing"
	case e.Op != "":
		return "assignment"
	case e.Target.Then != nil:
		return "conditional"
	case len(e.Target.Cond.Rest) > 0:
		return "binary expression"
	}
	u := e.Target.Cond.Left
	if u.Postfix == nil {
		return "unary expression"
	}
	if n := len(u.Postfix.Suffix); n > 0 {
		last := u.Postfix.Suffix[n-1]
		switch {
		case last.Call != nil:
			return "call"
		case last.Index != nil:
			return "index access"
		case last.Member != "":
			return "member access"
		}
		return "unary expression"
	}
	p := u.Postfix.Primary
	switch {
	case p.Number != nil, p.Strings != nil, p.Bool != "":
		return "literal"
	case p.Tuple != nil:
		return "tuple"
	case p.Array != nil:
		return "array literal"
	case p.TypeOf != nil, p.New != nil:
		return "type expression"
	}
	return "identifier"
}
