package rust

import (
	"fmt"
	"strings"
)

// Printer writes Rust source with four-space indentation.
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer {
	return &Printer{indent: 0}
}

// Print renders a file.
func Print(f *File) string {
	p := NewPrinter()
	p.printFile(f)
	return p.output.String()
}

// PrintExpr renders a single expression, mostly for tests and diagnostics.
func PrintExpr(e Expr) string {
	p := NewPrinter()
	p.expr(e, 0)
	return p.output.String()
}

// Quote returns s as a Rust string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Helper methods

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("    ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	if line := fmt.Sprintf(format, args...); line != "" {
		p.writeIndent()
		p.output.WriteString(line)
	}
	p.output.WriteString("\n")
}

func (p *Printer) write(s string) {
	p.output.WriteString(s)
}

func (p *Printer) attrs(attrs []string) {
	for _, a := range attrs {
		p.writeLine("#[%s]", a)
	}
}

func (p *Printer) printFile(f *File) {
	for _, a := range f.InnerAttrs {
		p.writeLine("#![%s]", a)
	}
	if len(f.InnerAttrs) > 0 && len(f.Items) > 0 {
		p.writeLine("")
	}
	p.items(f.Items)
}

// items separates items with blank lines, keeping runs of `use` together.
func (p *Printer) items(items []Item) {
	for i, it := range items {
		if i > 0 {
			_, prevUse := items[i-1].(*Use)
			_, isUse := it.(*Use)
			if !(prevUse && isUse) {
				p.writeLine("")
			}
		}
		p.item(it)
	}
}

func (p *Printer) item(it Item) {
	switch x := it.(type) {
	case *Use:
		p.writeLine("use %s;", x.Path)
	case *Module:
		p.attrs(x.Attrs)
		p.writeLine("pub mod %s {", x.Name)
		p.indent++
		p.items(x.Items)
		p.indent--
		p.writeLine("}")
	case *Struct:
		p.attrs(x.Attrs)
		if x.Unit && len(x.Fields) == 0 {
			p.writeLine("pub struct %s;", x.Name)
			return
		}
		p.writeLine("pub struct %s {", x.Name)
		p.indent++
		p.fields(x.Fields)
		p.indent--
		p.writeLine("}")
	case *Enum:
		p.attrs(x.Attrs)
		p.writeLine("pub enum %s {", x.Name)
		p.indent++
		for _, v := range x.Variants {
			p.variant(v)
		}
		p.indent--
		p.writeLine("}")
	case *TypeAlias:
		p.writeLine("pub type %s = %s;", x.Name, x.Type)
	case *Const:
		p.writeIndent()
		p.write(fmt.Sprintf("const %s: %s = ", x.Name, x.Type))
		p.expr(x.Value, 0)
		p.write(";\n")
	case *Impl:
		p.attrs(x.Attrs)
		if x.Trait != "" {
			p.writeLine("impl %s for %s {", x.Trait, x.Type)
		} else {
			p.writeLine("impl %s {", x.Type)
		}
		p.indent++
		for i, fn := range x.Fns {
			if i > 0 {
				p.writeLine("")
			}
			p.fn(fn)
		}
		p.indent--
		p.writeLine("}")
	case *Trait:
		p.attrs(x.Attrs)
		p.writeLine("pub trait %s {", x.Name)
		p.indent++
		for i, fn := range x.Fns {
			if i > 0 {
				p.writeLine("")
			}
			p.fn(fn)
		}
		p.indent--
		p.writeLine("}")
	case *Fn:
		p.fn(x)
	case *RawItem:
		for _, line := range strings.Split(strings.TrimRight(x.Text, "\n"), "\n") {
			if line == "" {
				p.writeLine("")
				continue
			}
			p.writeLine("%s", line)
		}
	}
}

func (p *Printer) fields(fields []*Field) {
	for _, f := range fields {
		p.attrs(f.Attrs)
		pub := ""
		if f.Pub {
			pub = "pub "
		}
		p.writeLine("%s%s: %s,", pub, f.Name, f.Type)
	}
}

func (p *Printer) variant(v *Variant) {
	p.attrs(v.Attrs)
	switch {
	case len(v.Fields) > 0:
		p.writeLine("%s {", v.Name)
		p.indent++
		p.fields(v.Fields)
		p.indent--
		p.writeLine("},")
	case len(v.Tuple) > 0:
		p.writeLine("%s(%s),", v.Name, strings.Join(v.Tuple, ", "))
	case v.Discriminant != "":
		p.writeLine("%s = %s,", v.Name, v.Discriminant)
	default:
		p.writeLine("%s,", v.Name)
	}
}

func (p *Printer) fn(f *Fn) {
	p.attrs(f.Attrs)
	params := make([]string, 0, len(f.Params)+1)
	if f.Receiver != "" {
		params = append(params, f.Receiver)
	}
	for _, param := range f.Params {
		params = append(params, param.Name+": "+param.Type)
	}
	sig := "fn " + f.Name + "(" + strings.Join(params, ", ") + ")"
	if f.Pub {
		sig = "pub " + sig
	}
	if f.Ret != "" && f.Ret != "()" {
		sig += " -> " + f.Ret
	}
	if f.Body == nil {
		p.writeLine("%s;", sig)
		return
	}
	p.writeIndent()
	p.write(sig + " ")
	p.block(f.Body)
	p.write("\n")
}

// block writes `{ ... }` starting at the current column and leaves the
// cursor after the closing brace.
func (p *Printer) block(b *Block) {
	if len(b.Stmts) == 0 && b.Tail == nil {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, s := range b.Stmts {
		p.stmt(s)
	}
	if b.Tail != nil {
		p.writeIndent()
		p.expr(b.Tail, 0)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func label(l string) string {
	if l == "" {
		return ""
	}
	return "'" + l + ": "
}

func (p *Printer) stmt(s Stmt) {
	switch x := s.(type) {
	case *Let:
		p.writeIndent()
		p.write("let ")
		if x.Mut {
			p.write("mut ")
		}
		p.write(x.Name)
		if x.Type != "" {
			p.write(": " + x.Type)
		}
		if x.Value != nil {
			p.write(" = ")
			p.expr(x.Value, 0)
		}
		p.write(";\n")
	case *ExprStmt:
		p.writeIndent()
		p.expr(x.X, 0)
		switch x.X.(type) {
		case *If, *BlockExpr:
			p.write("\n")
		default:
			p.write(";\n")
		}
	case *Assign:
		p.writeIndent()
		p.expr(x.Target, 0)
		p.write(" " + x.Op + " ")
		p.expr(x.Value, 0)
		p.write(";\n")
	case *While:
		p.writeIndent()
		p.write(label(x.Label) + "while ")
		p.expr(x.Cond, 0)
		p.write(" ")
		p.block(x.Body)
		p.write("\n")
	case *Loop:
		p.writeIndent()
		p.write(label(x.Label) + "loop ")
		p.block(x.Body)
		p.write("\n")
	case *LabeledBlock:
		p.writeIndent()
		p.write(label(x.Label))
		p.block(x.Body)
		p.write("\n")
	case *Break:
		if x.Label != "" {
			p.writeLine("break '%s;", x.Label)
			return
		}
		p.writeLine("break;")
	case *Continue:
		if x.Label != "" {
			p.writeLine("continue '%s;", x.Label)
			return
		}
		p.writeLine("continue;")
	case *Return:
		if x.Value == nil {
			p.writeLine("return;")
			return
		}
		p.writeIndent()
		p.write("return ")
		p.expr(x.Value, 0)
		p.write(";\n")
	}
}

// Operator precedence, higher binds tighter.
const (
	precLowest = iota
	precOr
	precAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precCast
	precUnary
	precPostfix
	precAtom
)

var binaryPrec = map[string]int{
	"||": precOr,
	"&&": precAnd,
	"==": precCompare, "!=": precCompare, "<": precCompare, "<=": precCompare, ">": precCompare, ">=": precCompare,
	"|":  precBitOr,
	"^":  precBitXor,
	"&":  precBitAnd,
	"<<": precShift, ">>": precShift,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "%": precMul,
}

func precedence(e Expr) int {
	switch x := e.(type) {
	case *Binary:
		return binaryPrec[x.Op]
	case *Cast:
		return precCast
	case *Unary:
		return precUnary
	case *MethodCall, *FieldAccess, *Call, *IndexExpr, *Try, *Macro:
		return precPostfix
	case *If, *BlockExpr:
		return precLowest
	case *Lit:
		if strings.HasPrefix(x.Text, "-") {
			return precUnary
		}
	}
	return precAtom
}

func (p *Printer) expr(e Expr, min int) {
	if precedence(e) < min {
		p.write("(")
		defer p.write(")")
	}

	switch x := e.(type) {
	case *Ident:
		p.write(x.Name)
	case *Lit:
		p.write(x.Text)
	case *FieldAccess:
		p.expr(x.X, precPostfix)
		p.write("." + x.Name)
	case *MethodCall:
		p.expr(x.Recv, precPostfix)
		p.write("." + x.Method + "(")
		p.exprList(x.Args)
		p.write(")")
	case *Call:
		p.expr(x.Fn, precPostfix)
		p.write("(")
		p.exprList(x.Args)
		p.write(")")
	case *Macro:
		p.write(x.Name + "!(")
		p.exprList(x.Args)
		p.write(")")
	case *Binary:
		prec := binaryPrec[x.Op]
		left, right := prec, prec+1
		if prec == precCompare {
			left = prec + 1
		}
		p.expr(x.Left, left)
		p.write(" " + x.Op + " ")
		p.expr(x.Right, right)
	case *Unary:
		p.write(x.Op)
		p.expr(x.X, precUnary)
	case *IndexExpr:
		p.expr(x.X, precPostfix)
		p.write("[")
		p.expr(x.Index, 0)
		p.write("]")
	case *Tuple:
		p.write("(")
		p.exprList(x.Elems)
		if len(x.Elems) == 1 {
			p.write(",")
		}
		p.write(")")
	case *ArrayLit:
		p.write("[")
		p.exprList(x.Elems)
		p.write("]")
	case *StructLit:
		p.structLit(x)
	case *Cast:
		p.expr(x.X, precCast)
		p.write(" as " + x.Type)
	case *Try:
		p.expr(x.X, precPostfix)
		p.write("?")
	case *If:
		p.ifExpr(x)
	case *BlockExpr:
		p.block(x.Block)
	}
}

func (p *Printer) exprList(exprs []Expr) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e, 0)
	}
}

func (p *Printer) structLit(s *StructLit) {
	if len(s.Fields) == 0 && s.Base == nil {
		p.write(s.Name + " {}")
		return
	}
	p.write(s.Name + " {\n")
	p.indent++
	for _, f := range s.Fields {
		p.writeIndent()
		if id, ok := f.Value.(*Ident); ok && id.Name == f.Name {
			p.write(f.Name + ",\n")
			continue
		}
		p.write(f.Name + ": ")
		p.expr(f.Value, 0)
		p.write(",\n")
	}
	if s.Base != nil {
		p.writeIndent()
		p.write("..")
		p.expr(s.Base, precPostfix)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *Printer) ifExpr(x *If) {
	p.write("if ")
	if x.Let != "" {
		p.write("let " + x.Let + " = ")
	}
	p.expr(x.Cond, precOr)
	p.write(" ")
	p.block(x.Then)
	if x.Else != nil {
		p.write(" else ")
		switch e := x.Else.(type) {
		case *If:
			p.ifExpr(e)
		case *BlockExpr:
			p.block(e.Block)
		default:
			p.block(&Block{Tail: e})
		}
	}
}
