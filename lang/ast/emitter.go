package ast

import (
	"fmt"
	"io"
	"strings"
)

// FuncName, LocalName, GlobalName, and StaticName implement the
// deterministic identifier scheme (spec §4.9): a name is a function of the
// defining bytecode offset alone, never of emission order, so two runs over
// the same program produce byte-identical output regardless of the order
// the Structurer happens to visit subroutines in (spec §8, property 4).
func FuncName(offset uint32) string   { return fmt.Sprintf("fn_%x", offset) }
func LocalName(offset uint32) string  { return fmt.Sprintf("loc_%x", offset) }
func GlobalName(offset uint32) string { return fmt.Sprintf("var_%x", offset) }
func StaticName(offset uint32) string { return fmt.Sprintf("sta_%x", offset) }

// FieldName is the placeholder name for a struct field at the given index;
// the bytecode carries no field names, only ordinal positions (spec §3,
// "structural ops preserving field order").
func FieldName(index int) string { return fmt.Sprintf("f%d", index) }

// Emitter replaces the teacher's tree-dumping Printer: instead of printing
// one indented line per node for debugging, it serializes NSS source text.
// Output is four-space indented, never has trailing whitespace on a line,
// and always ends with a single trailing newline.
type Emitter struct {
	w      io.Writer
	indent int
	err    error
}

// NewEmitter returns an Emitter writing to w.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit serializes prog's function definitions in order, separated by a
// single blank line.
func (e *Emitter) Emit(prog *Program) error {
	for i, fn := range prog.Funcs {
		if i > 0 {
			e.raw("\n")
		}
		e.function(fn)
	}
	return e.err
}

func (e *Emitter) raw(s string) {
	if e.err != nil {
		return
	}
	_, e.err = io.WriteString(e.w, s)
}

func (e *Emitter) line(s string) {
	s = strings.TrimRight(s, " \t")
	if s == "" {
		e.raw("\n")
		return
	}
	e.raw(strings.Repeat("    ", e.indent))
	e.raw(s)
	e.raw("\n")
}

func (e *Emitter) function(fn *FunctionDef) {
	params := make([]string, len(fn.ParamNames))
	for i, name := range fn.ParamNames {
		params[i] = fn.ParamTypes[i].String() + " " + name
	}
	e.line(fmt.Sprintf("%s %s(%s)", fn.ReturnType.String(), fn.Name, strings.Join(params, ", ")))
	e.line("{")
	e.indent++
	e.block(fn.Body)
	e.indent--
	e.line("}")
}

func (e *Emitter) block(b *Block) {
	for _, s := range b.Stmts {
		e.stmt(s)
	}
}

func (e *Emitter) stmt(s Stmt) {
	switch n := s.(type) {
	case *VarDecl:
		if n.Init != nil {
			e.line(fmt.Sprintf("%s %s = %s;", n.Typ.String(), n.Name, e.expr(n.Init)))
		} else {
			e.line(fmt.Sprintf("%s %s;", n.Typ.String(), n.Name))
		}
	case *ExprStmt:
		e.line(e.expr(n.Expr) + ";")
	case *Return:
		if n.Value != nil {
			e.line("return " + e.expr(n.Value) + ";")
		} else {
			e.line("return;")
		}
	case *Break:
		e.line("break;")
	case *Continue:
		e.line("continue;")
	case *Goto:
		e.line("goto " + n.Label + ";")
	case *Label:
		e.line(n.Name + ":")
	case *If:
		e.line(fmt.Sprintf("if (%s)", e.expr(n.Cond)))
		e.line("{")
		e.indent++
		e.block(n.Then)
		e.indent--
		if n.Else != nil {
			e.line("}")
			e.elseBranch(n.Else)
		} else {
			e.line("}")
		}
	case *While:
		e.line(fmt.Sprintf("while (%s)", e.expr(n.Cond)))
		e.line("{")
		e.indent++
		e.block(n.Body)
		e.indent--
		e.line("}")
	case *DoWhile:
		e.line("do")
		e.line("{")
		e.indent++
		e.block(n.Body)
		e.indent--
		e.line(fmt.Sprintf("} while (%s);", e.expr(n.Cond)))
	case *For:
		init, post := "", ""
		if n.Init != nil {
			init = e.inlineStmt(n.Init)
		}
		if n.Post != nil {
			post = e.inlineStmt(n.Post)
		}
		cond := ""
		if n.Cond != nil {
			cond = e.expr(n.Cond)
		}
		e.line(fmt.Sprintf("for (%s; %s; %s)", init, cond, post))
		e.line("{")
		e.indent++
		e.block(n.Body)
		e.indent--
		e.line("}")
	case *Switch:
		e.line(fmt.Sprintf("switch (%s)", e.expr(n.Disc)))
		e.line("{")
		e.indent++
		for _, c := range n.Cases {
			e.caseArm(c)
		}
		e.indent--
		e.line("}")
	default:
		e.line(fmt.Sprintf("/* unrecognized statement %T */;", s))
	}
}

// elseBranch emits "else if (...)" without an extra nested block when Else
// collapses a chained "else if" (a single *If statement), and "else { ... }"
// otherwise (spec §4.8: "chained else if collapses to a single AElse
// containing one AIf, emitted as else if (...)").
func (e *Emitter) elseBranch(blk *Block) {
	if len(blk.Stmts) == 1 {
		if inner, ok := blk.Stmts[0].(*If); ok {
			e.raw(strings.Repeat("    ", e.indent) + "else ")
			e.inlineIf(inner)
			return
		}
	}
	e.line("else")
	e.line("{")
	e.indent++
	e.block(blk)
	e.indent--
	e.line("}")
}

func (e *Emitter) inlineIf(n *If) {
	e.raw(fmt.Sprintf("if (%s)\n", e.expr(n.Cond)))
	e.line("{")
	e.indent++
	e.block(n.Then)
	e.indent--
	if n.Else != nil {
		e.line("}")
		e.elseBranch(n.Else)
	} else {
		e.line("}")
	}
}

func (e *Emitter) caseArm(c *Case) {
	if len(c.Values) == 0 {
		e.line("default:")
	} else {
		for _, v := range c.Values {
			e.line(fmt.Sprintf("case %s:", e.expr(v)))
		}
	}
	e.indent++
	e.block(c.Body)
	e.indent--
}

// inlineStmt renders a for-loop's init/post clause without a trailing
// semicolon or its own line, for embedding inside the "for (...; ...; ...)"
// header.
func (e *Emitter) inlineStmt(s Stmt) string {
	switch n := s.(type) {
	case *VarDecl:
		if n.Init != nil {
			return fmt.Sprintf("%s %s = %s", n.Typ.String(), n.Name, e.expr(n.Init))
		}
		return n.Typ.String() + " " + n.Name
	case *ExprStmt:
		return e.expr(n.Expr)
	default:
		return fmt.Sprintf("/* unrecognized clause %T */", s)
	}
}

// precedence mirrors NSS's (and its C ancestor's) binary operator binding
// strength, highest first; unary prefix operators bind tighter than any
// binary operator.
func precedence(op string) int {
	switch op {
	case "*", "/", "%":
		return 11
	case "+", "-":
		return 10
	case "<<", ">>":
		return 9
	case "<", "<=", ">", ">=":
		return 8
	case "==", "!=":
		return 7
	case "&":
		return 6
	case "^":
		return 5
	case "|":
		return 4
	case "&&":
		return 3
	case "||":
		return 2
	default:
		return 0
	}
}

const unaryPrecedence = 12

// expr renders ex with the minimal parenthesization its operator precedence
// requires (spec §3: "parenthesization is a pure formatting concern tracked
// via operator precedence").
func (e *Emitter) expr(ex Expr) string { return e.exprPrec(ex, 0) }

func (e *Emitter) exprPrec(ex Expr, parentPrec int) string {
	switch n := ex.(type) {
	case *Literal:
		return n.litText()
	case *Ident:
		return n.Name
	case *ParenExpr:
		return "(" + e.exprPrec(n.Expr, 0) + ")"
	case *UnaryOp:
		s := n.Op + e.exprPrec(n.Right, unaryPrecedence)
		if parentPrec > unaryPrecedence {
			return "(" + s + ")"
		}
		return s
	case *BinaryOp:
		p := precedence(n.Op)
		s := e.exprPrec(n.Left, p) + " " + n.Op + " " + e.exprPrec(n.Right, p+1)
		if p < parentPrec {
			return "(" + s + ")"
		}
		return s
	case *Assign:
		s := e.exprPrec(n.Left, 0) + " = " + e.exprPrec(n.Right, 1)
		if parentPrec > 0 {
			return "(" + s + ")"
		}
		return s
	case *ActionCall:
		return n.Name + "(" + e.argList(n.Args) + ")"
	case *UserCall:
		return n.Callee + "(" + e.argList(n.Args) + ")"
	case *VectorCtor:
		return fmt.Sprintf("Vector(%s, %s, %s)", e.expr(n.X), e.expr(n.Y), e.expr(n.Z))
	case *FieldAccess:
		return e.exprPrec(n.Target, unaryPrecedence) + "." + FieldName(n.Field)
	default:
		return fmt.Sprintf("/* unrecognized expr %T */", ex)
	}
}

func (e *Emitter) argList(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = e.expr(a)
	}
	return strings.Join(parts, ", ")
}

