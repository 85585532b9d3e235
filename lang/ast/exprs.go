package ast

import (
	"fmt"
	"strconv"

	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

type (
	// Literal is a constant value pushed by a CONST or RSADD instruction
	// (spec §3).
	Literal struct {
		At   uint32
		Typ  types.Type
		Int  int32
		Flt  float32
		Str  string
	}

	// Ident references a named local, global, or parameter by its
	// deterministically synthesized name (spec §4.9).
	Ident struct {
		At   uint32
		Name string
		Typ  types.Type
	}

	// UnaryOp is a NEG/COMP/NOT applied to a single operand.
	UnaryOp struct {
		At    uint32
		Op    string // "-", "~", "!"
		Right Expr
		Typ   types.Type
	}

	// BinaryOp is an arithmetic, bitwise, or comparison operator applied to
	// two operands (spec §4.7).
	BinaryOp struct {
		At    uint32
		Op    string
		Left  Expr
		Right Expr
		Typ   types.Type
	}

	// ActionCall invokes an engine-provided action by index (spec §4.1,
	// §4.7).
	ActionCall struct {
		At    uint32
		Index int
		Name  string
		Args  []Expr
		Typ   types.Type
	}

	// UserCall invokes a JSR-reachable subroutine by its inferred signature
	// (spec §4.6, §4.7).
	UserCall struct {
		At     uint32
		Callee string
		Args   []Expr
		Typ    types.Type
	}

	// Assign is a CPDOWNSP/CPDOWNBP materialized as a source-level
	// assignment expression.
	Assign struct {
		At    uint32
		Left  Expr
		Right Expr
	}

	// VectorCtor folds three consecutive float pushes into a vector
	// constructor literal (spec §4.7, edge cases).
	VectorCtor struct {
		At         uint32
		X, Y, Z    Expr
	}

	// FieldAccess addresses one field of a struct-shaped value (spec §4.7,
	// structural ops preserving field order).
	FieldAccess struct {
		At     uint32
		Target Expr
		Field  int
		Typ    types.Type
	}

	// ParenExpr is a purely cosmetic grouping inserted by the Emitter when
	// operator precedence requires it (spec §3, §4.9).
	ParenExpr struct {
		At   uint32
		Expr Expr
	}
)

func (n *Literal) expr()     {}
func (n *Ident) expr()       {}
func (n *UnaryOp) expr()     {}
func (n *BinaryOp) expr()    {}
func (n *ActionCall) expr()  {}
func (n *UserCall) expr()    {}
func (n *Assign) expr()      {}
func (n *VectorCtor) expr()  {}
func (n *FieldAccess) expr() {}
func (n *ParenExpr) expr()   {}

func (n *Literal) Offset() uint32     { return n.At }
func (n *Ident) Offset() uint32       { return n.At }
func (n *UnaryOp) Offset() uint32     { return n.At }
func (n *BinaryOp) Offset() uint32    { return n.At }
func (n *ActionCall) Offset() uint32  { return n.At }
func (n *UserCall) Offset() uint32    { return n.At }
func (n *Assign) Offset() uint32      { return n.At }
func (n *VectorCtor) Offset() uint32  { return n.At }
func (n *FieldAccess) Offset() uint32 { return n.At }
func (n *ParenExpr) Offset() uint32   { return n.At }

func (n *Literal) Walk(_ Visitor) {}
func (n *Ident) Walk(_ Visitor)   {}
func (n *UnaryOp) Walk(v Visitor) { Walk(v, n.Right) }
func (n *BinaryOp) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *ActionCall) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *UserCall) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *Assign) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}
func (n *VectorCtor) Walk(v Visitor) {
	Walk(v, n.X)
	Walk(v, n.Y)
	Walk(v, n.Z)
}
func (n *FieldAccess) Walk(v Visitor) { Walk(v, n.Target) }
func (n *ParenExpr) Walk(v Visitor)   { Walk(v, n.Expr) }

func (n *Literal) Format(f fmt.State, verb rune) { format(f, verb, n, "literal "+n.litText(), nil) }
func (n *Literal) litText() string {
	switch n.Typ.Kind {
	case types.Int:
		return strconv.FormatInt(int64(n.Int), 10)
	case types.Float:
		return strconv.FormatFloat(float64(n.Flt), 'g', -1, 32)
	case types.String:
		return strconv.Quote(n.Str)
	default:
		return n.Str
	}
}

func (n *Ident) Format(f fmt.State, verb rune)      { format(f, verb, n, "ident "+n.Name, nil) }
func (n *UnaryOp) Format(f fmt.State, verb rune)     { format(f, verb, n, "unary "+n.Op, nil) }
func (n *BinaryOp) Format(f fmt.State, verb rune)    { format(f, verb, n, "binary "+n.Op, nil) }
func (n *ActionCall) Format(f fmt.State, verb rune) {
	format(f, verb, n, "action "+n.Name, map[string]int{"args": len(n.Args)})
}
func (n *UserCall) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call "+n.Callee, map[string]int{"args": len(n.Args)})
}
func (n *Assign) Format(f fmt.State, verb rune)     { format(f, verb, n, "assign", nil) }
func (n *VectorCtor) Format(f fmt.State, verb rune) { format(f, verb, n, "vector", nil) }
func (n *FieldAccess) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("field %d", n.Field), nil)
}
func (n *ParenExpr) Format(f fmt.State, verb rune) { format(f, verb, n, "paren", nil) }
