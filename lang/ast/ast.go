// Package ast defines the NSS expression/statement tree the Stack Simulator
// (lang/machine) builds and the Control-Flow Structurer (lang/cfg) shapes,
// plus the Visitor used to walk it and the Emitter used to print it back
// out as NSS source text (spec §3, §4.9).
//
// Unlike a parsed-source AST, position information here is a single
// bytecode byte offset per node — the offset of the instruction that
// produced it — not a line/column span into any text; there is no lossless
// source to reproduce, only a bytecode origin to report in diagnostics and
// to key deterministic identifier synthesis on (spec §4.9).
package ast

import (
	"fmt"
	"sort"
	"strings"
)

// Node represents any node in the tree.
type Node interface {
	// Every Node implements the fmt.Formatter interface so they can print a
	// description of themselves. The only supported verbs are 'v' and 's'.
	// The '#' flag can be used to print count information about children
	// nodes. A width can be set to define the number of runes to print for
	// the node description - by default, that width is padded with spaces
	// on the left if the description is shorter, otherwise it is truncated
	// to that width. The '-' flag can be used to pad with spaces on the
	// right instead, and the '+' flag can be used to prevent padding
	// altogether - it only truncates if longer.
	fmt.Formatter

	// Offset reports the bytecode offset this node was derived from.
	Offset() uint32

	// Walk enters each node inside itself to implement the Visitor pattern.
	Walk(v Visitor)
}

// Expr represents an expression in the tree.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement in the tree.
type Stmt interface {
	Node

	// BlockEnding returns true if the statement should only appear as the
	// last statement in a block (return, break, continue).
	BlockEnding() bool
}

// Program is the root of a decompiled unit: the ordered list of function
// definitions the Pipeline Driver emits (spec §4.10). Ordering follows the
// call-graph topological order the Structurer processes subroutines in
// (spec §4.8, "ordering guarantee"), not offset order.
type Program struct {
	Funcs []*FunctionDef
}

func (n *Program) Format(f fmt.State, verb rune) {
	format(f, verb, n, "program", map[string]int{"funcs": len(n.Funcs)})
}
func (n *Program) Offset() uint32 { return 0 }
func (n *Program) Walk(v Visitor) {
	for _, fn := range n.Funcs {
		Walk(v, fn)
	}
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	// replace tabs and newlines with the corresponding unicode key
	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
