package ast

import (
	"fmt"

	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

type (
	// Block is a sequence of statements (spec §3).
	Block struct {
		At    uint32
		Stmts []Stmt
	}

	// If is a structured conditional, possibly with a single-arm Else or a
	// collapsed "else if" chain represented by an Else whose sole statement
	// is another *If (spec §4.8).
	If struct {
		At   uint32
		Cond Expr
		Then *Block
		Else *Block // nil if no else branch
	}

	// While is a pre-tested loop (spec §4.8, head = conditional JZ with one
	// in-loop target).
	While struct {
		At   uint32
		Cond Expr
		Body *Block
	}

	// DoWhile is a post-tested loop (spec §4.8, head unconditional, latch
	// conditional).
	DoWhile struct {
		At   uint32
		Body *Block
		Cond Expr
	}

	// For is a While rewritten because its body has a canonical
	// init-before/increment-at-tail shape (spec §4.8).
	For struct {
		At   uint32
		Init Stmt // may be nil
		Cond Expr
		Post Stmt // may be nil
		Body *Block
	}

	// Switch groups contiguous case targets that share a body as one Case
	// with multiple values (fall-through), default always last (spec §4.8,
	// §8 S4).
	Switch struct {
		At    uint32
		Disc  Expr
		Cases []*Case
	}

	// Case is one arm of a Switch. Values is empty for the default case,
	// which Switch always orders last.
	Case struct {
		At     uint32
		Values []Expr
		Body   *Block
	}

	// Break exits the innermost loop or switch (spec §4.8).
	Break struct{ At uint32 }

	// Continue restarts the innermost loop (spec §4.8).
	Continue struct{ At uint32 }

	// Return yields control to the caller, optionally with a value (spec
	// §4.7, RETN).
	Return struct {
		At    uint32
		Value Expr // nil for a void return
	}

	// ExprStmt is an expression evaluated for its side effects, e.g. a
	// UserCall or ActionCall whose result is discarded (spec §4.7).
	ExprStmt struct {
		At   uint32
		Expr Expr
	}

	// VarDecl introduces a local variable, materializing a MOVSP-implied
	// destruction point or an RSADD default-initialized slot (spec §4.7).
	VarDecl struct {
		At   uint32
		Name string
		Typ  types.Type
		Init Expr // nil if default-initialized
	}

	// FunctionDef is a decompiled subroutine: its inferred Signature
	// rendered as a name/params/return plus its structured body (spec
	// §4.6, §4.8, §4.9).
	FunctionDef struct {
		At         uint32
		Name       string
		ParamNames []string
		ParamTypes []types.Type
		ReturnType types.Type
		Body       *Block
	}

	// Goto is the unstructured-jump fallback: a jump the Structurer could
	// not classify as break/continue/if/loop, always paired with an
	// UnstructuredJump diagnostic (spec §4.8).
	Goto struct {
		At    uint32
		Label string
	}

	// Label marks a Goto's target.
	Label struct {
		At   uint32
		Name string
	}
)

func (n *Block) BlockEnding() bool    { return false }
func (n *If) BlockEnding() bool       { return false }
func (n *While) BlockEnding() bool    { return false }
func (n *DoWhile) BlockEnding() bool  { return false }
func (n *For) BlockEnding() bool      { return false }
func (n *Switch) BlockEnding() bool   { return false }
func (n *Break) BlockEnding() bool    { return true }
func (n *Continue) BlockEnding() bool { return true }
func (n *Return) BlockEnding() bool   { return true }
func (n *ExprStmt) BlockEnding() bool { return false }
func (n *VarDecl) BlockEnding() bool  { return false }
func (n *Goto) BlockEnding() bool     { return true }
func (n *Label) BlockEnding() bool    { return false }

func (n *Block) Offset() uint32       { return n.At }
func (n *If) Offset() uint32          { return n.At }
func (n *While) Offset() uint32       { return n.At }
func (n *DoWhile) Offset() uint32     { return n.At }
func (n *For) Offset() uint32         { return n.At }
func (n *Switch) Offset() uint32      { return n.At }
func (n *Case) Offset() uint32        { return n.At }
func (n *Break) Offset() uint32       { return n.At }
func (n *Continue) Offset() uint32    { return n.At }
func (n *Return) Offset() uint32      { return n.At }
func (n *ExprStmt) Offset() uint32    { return n.At }
func (n *VarDecl) Offset() uint32     { return n.At }
func (n *FunctionDef) Offset() uint32 { return n.At }
func (n *Goto) Offset() uint32        { return n.At }
func (n *Label) Offset() uint32       { return n.At }

func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *If) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *While) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}
func (n *DoWhile) Walk(v Visitor) {
	Walk(v, n.Body)
	Walk(v, n.Cond)
}
func (n *For) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	if n.Post != nil {
		Walk(v, n.Post)
	}
	Walk(v, n.Body)
}
func (n *Switch) Walk(v Visitor) {
	Walk(v, n.Disc)
	for _, c := range n.Cases {
		Walk(v, c)
	}
}
func (n *Case) Walk(v Visitor) {
	for _, val := range n.Values {
		Walk(v, val)
	}
	Walk(v, n.Body)
}
func (n *Break) Walk(_ Visitor)    {}
func (n *Continue) Walk(_ Visitor) {}
func (n *Return) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *ExprStmt) Walk(v Visitor) { Walk(v, n.Expr) }
func (n *VarDecl) Walk(v Visitor) {
	if n.Init != nil {
		Walk(v, n.Init)
	}
}
func (n *FunctionDef) Walk(v Visitor) { Walk(v, n.Body) }
func (n *Goto) Walk(_ Visitor)        {}
func (n *Label) Walk(_ Visitor)       {}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *If) Format(f fmt.State, verb rune) {
	lbl := "if"
	if n.Else != nil {
		lbl = "if/else"
	}
	format(f, verb, n, lbl, nil)
}
func (n *While) Format(f fmt.State, verb rune)   { format(f, verb, n, "while", nil) }
func (n *DoWhile) Format(f fmt.State, verb rune) { format(f, verb, n, "do-while", nil) }
func (n *For) Format(f fmt.State, verb rune)     { format(f, verb, n, "for", nil) }
func (n *Switch) Format(f fmt.State, verb rune) {
	format(f, verb, n, "switch", map[string]int{"cases": len(n.Cases)})
}
func (n *Case) Format(f fmt.State, verb rune) {
	lbl := "case"
	if len(n.Values) == 0 {
		lbl = "default"
	}
	format(f, verb, n, lbl, nil)
}
func (n *Break) Format(f fmt.State, verb rune)    { format(f, verb, n, "break", nil) }
func (n *Continue) Format(f fmt.State, verb rune) { format(f, verb, n, "continue", nil) }
func (n *Return) Format(f fmt.State, verb rune)   { format(f, verb, n, "return", nil) }
func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr-stmt", nil) }
func (n *VarDecl) Format(f fmt.State, verb rune)  { format(f, verb, n, "var "+n.Name, nil) }
func (n *FunctionDef) Format(f fmt.State, verb rune) {
	format(f, verb, n, "func "+n.Name, map[string]int{"params": len(n.ParamNames)})
}
func (n *Goto) Format(f fmt.State, verb rune)  { format(f, verb, n, "goto "+n.Label, nil) }
func (n *Label) Format(f fmt.State, verb rune) { format(f, verb, n, "label "+n.Name, nil) }
