package ir

import (
	"fmt"
	"strings"
)

// Printer provides pretty-printing for IR
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates a new IR printer
func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print returns the string representation of the flattened contract c
func Print(c *Contract) string {
	p := NewPrinter()
	p.printContract(c)
	return p.output.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

func (p *Printer) printContract(c *Contract) {
	p.writeLine("%s %s (IR)", strings.ToUpper(string(c.Kind)), c.Name)
	p.writeLine("")

	p.writeLine("LINEARIZATION: %s", strings.Join(c.Chain, " -> "))
	p.writeLine("")

	if len(c.Storage) > 0 {
		p.writeLine("STORAGE LAYOUT:")
		p.indent++
		for i, field := range c.Storage {
			flags := ""
			if field.Public {
				flags += " public"
			}
			if field.Immutable {
				flags += " immutable"
			}
			line := fmt.Sprintf("slot[%d] %-12s : %s", i, field.Name, field.Type)
			if field.Value != nil {
				line += " = " + FormatExpr(field.Value)
			}
			p.writeLine("%s  ; %s%s", line, field.Class, flags)
		}
		p.indent--
		p.writeLine("")
	}

	if errs := c.Package().Context.Errors(); len(errs) > 0 {
		p.writeLine("ERRORS:")
		p.indent++
		for _, e := range errs {
			if e.Custom != nil {
				p.writeLine("%d: error %s(%s)", e.Code, e.Custom.Name, formatParams(e.Custom.Fields))
				continue
			}
			p.writeLine("%d: %q", e.Code, e.Message)
		}
		p.indent--
		p.writeLine("")
	}

	if events := c.VisibleEvents(); len(events) > 0 {
		p.writeLine("EVENTS:")
		p.indent++
		for _, ev := range events {
			fields := make([]string, len(ev.Fields))
			for i, f := range ev.Fields {
				fields[i] = f.Type.String()
				if f.Indexed {
					fields[i] += " indexed"
				}
				fields[i] += " " + f.Name
			}
			p.writeLine("%s(%s)", ev.Name, strings.Join(fields, ", "))
		}
		p.indent--
		p.writeLine("")
	}

	if c.Constructor != nil {
		p.printFunction(c, c.Constructor)
	}
	for _, f := range c.Dispatch {
		p.printFunction(c, f)
	}
}

func (p *Printer) printFunction(c *Contract, f *Function) {
	header := fmt.Sprintf("%s %s(%s)", f.Kind, f.Name, formatParams(f.Params))
	if len(f.Returns) > 0 {
		header += " returns (" + formatParams(f.Returns) + ")"
	}
	header += " " + string(f.Visibility)
	if f.Mutability != NonPayable {
		header += " " + string(f.Mutability)
	}
	if c.NeedsCaller(f) {
		header += " [caller]"
	}
	p.writeLine("%s", header)

	p.indent++
	for _, impl := range f.Implementations {
		mods := ""
		for _, m := range impl.Modifiers {
			mods += fmt.Sprintf(" %s(%s)", m.Name, formatExprs(m.Args))
		}
		if impl.Body == nil {
			p.writeLine("@%s:%s <no body>", impl.Class, mods)
			continue
		}
		p.writeLine("@%s:%s", impl.Class, mods)
		p.indent++
		p.printBlock(impl.Body)
		p.indent--
	}
	p.indent--
	p.writeLine("")
}

func (p *Printer) printBlock(b *Block) {
	for _, s := range b.Stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printNested(head string, b *Block) {
	p.writeLine("%s {", head)
	p.indent++
	p.printBlock(b)
	p.indent--
	p.writeLine("}")
}

func (p *Printer) printStmt(s Stmt) {
	switch x := s.(type) {
	case *Block:
		head := ""
		if x.Unchecked {
			head = "unchecked "
		}
		p.printNested(head, x)
	case *DeclStmt:
		names := make([]string, len(x.Vars))
		for i, v := range x.Vars {
			if v != nil {
				names[i] = v.Type.String() + " " + v.Name
			}
		}
		decl := strings.Join(names, ", ")
		if len(names) > 1 {
			decl = "(" + decl + ")"
		}
		p.writeLine("let %s = %s", decl, FormatExpr(x.Value))
	case *AssignStmt:
		p.writeLine("%s = %s", FormatExpr(x.Target), FormatExpr(x.Value))
	case *ExprStmt:
		p.writeLine("%s", FormatExpr(x.X))
	case *IfStmt:
		p.printNested("if "+FormatExpr(x.Cond), x.Then)
		if x.Else != nil {
			p.printNested("else", x.Else)
		}
	case *WhileStmt:
		if x.DoWhile {
			p.printNested("do", x.Body)
			p.writeLine("while %s", FormatExpr(x.Cond))
			return
		}
		p.printNested("while "+FormatExpr(x.Cond), x.Body)
	case *ForStmt:
		p.writeLine("for")
		p.indent++
		if x.Init != nil {
			p.printStmt(x.Init)
		}
		p.writeLine("cond %s", FormatExpr(x.Cond))
		if x.Post != nil {
			p.printStmt(x.Post)
		}
		p.indent--
		p.printNested("loop", x.Body)
	case *ReturnStmt:
		if x.Value == nil {
			p.writeLine("return")
			return
		}
		p.writeLine("return %s", FormatExpr(x.Value))
	case *RequireStmt:
		p.writeLine("require %s else error[%d]", FormatExpr(x.Cond), x.Error.Code)
	case *RevertStmt:
		p.writeLine("revert error[%d](%s)", x.Error.Code, formatExprs(x.Args))
	case *EmitStmt:
		p.writeLine("emit %s(%s)", x.Event.Name, formatExprs(x.Args))
	case *BreakStmt:
		p.writeLine("break")
	case *ContinueStmt:
		p.writeLine("continue")
	case *PlaceholderStmt:
		p.writeLine("_")
	default:
		p.writeLine("; unknown statement %T", s)
	}
}

func formatParams(params []*Param) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = strings.TrimSpace(param.Type.String() + " " + param.Name)
	}
	return strings.Join(parts, ", ")
}

func formatExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = FormatExpr(e)
	}
	return strings.Join(parts, ", ")
}

// FormatExpr renders an expression in a Solidity-like notation with every
// binary operation parenthesized.
func FormatExpr(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "_"
	case *Literal:
		switch x.Kind {
		case BoolLiteral:
			return fmt.Sprint(x.Bool)
		case StringLiteral:
			return fmt.Sprintf("%q", x.Str)
		}
		return x.Int.Dec()
	case *Var:
		return x.Name
	case *FieldRef:
		return "self." + x.Field.Name
	case *ConstRef:
		return x.Const.Name
	case *Member:
		return FormatExpr(x.Target) + "." + x.Name
	case *Index:
		return FormatExpr(x.Target) + "[" + FormatExpr(x.Key) + "]"
	case *Binary:
		return "(" + FormatExpr(x.Left) + " " + x.Op + " " + FormatExpr(x.Right) + ")"
	case *Unary:
		return x.Op + FormatExpr(x.Operand)
	case *Call:
		prefix := ""
		switch {
		case x.Super:
			prefix = "super."
		case x.Target != "":
			prefix = x.Target + "."
		}
		return prefix + x.Name + "(" + formatExprs(x.Args) + ")"
	case *LibraryCall:
		return x.Library.Name + "." + x.Function.SolidityName + "(" + formatExprs(x.Args) + ")"
	case *ExternalCall:
		return x.Interface.Name + "(" + FormatExpr(x.Address) + ")." + x.Method.SolidityName + "(" + formatExprs(x.Args) + ")"
	case *ArrayPush:
		return FormatExpr(x.Array) + ".push(" + FormatExpr(x.Value) + ")"
	case *ArrayPop:
		return FormatExpr(x.Array) + ".pop()"
	case *ArrayLength:
		return FormatExpr(x.Array) + ".length"
	case *Env:
		return [...]string{"msg.sender", "block.timestamp", "block.number", "msg.value", "this"}[x.Kind]
	case *Ternary:
		return "(" + FormatExpr(x.Cond) + " ? " + FormatExpr(x.Then) + " : " + FormatExpr(x.Else) + ")"
	case *TupleExpr:
		return "(" + formatExprs(x.Elements) + ")"
	case *Cast:
		return x.To.String() + "(" + FormatExpr(x.Value) + ")"
	case *EnumValue:
		return x.Enum.Name + "." + x.Variant.Name
	case *StructLit:
		return x.Struct.Name + "(" + formatExprs(x.Fields) + ")"
	case *TypeBound:
		if x.Max {
			return "type(" + x.Of.String() + ").max"
		}
		return "type(" + x.Of.String() + ").min"
	case *NewArray:
		return "new " + x.Elem.String() + "[](" + FormatExpr(x.Length) + ")"
	case *ArrayLit:
		return "[" + formatExprs(x.Elements) + "]"
	case *ZeroValue:
		return "default(" + x.Typ.String() + ")"
	}
	return fmt.Sprintf("<%T>", e)
}
