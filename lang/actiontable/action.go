// Package actiontable implements the Action Table Loader (spec §4.1): it
// reads the engine-action catalogue out of a companion nwscript.nss-style
// source text and indexes it by the explicit numeric index that precedes
// each entry, because indices may skip and unrelated declarations may sit
// between two action signatures.
package actiontable

import (
	"fmt"

	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

// Action describes one engine-provided primitive callable by ACTION opcode
// index.
type Action struct {
	Index          int
	Name           string
	Return         types.Type
	Params         []types.Type
	Defaults       []*bytecode.Literal // Defaults[i] is nil if param i has no default
	RequiredParams int
}

// ParamSize returns the number of stack slots the given prefix of
// parameters occupies, matching spec §3's invariant on ACTION operand
// consumption ("sum of per-type sizes").
func (a *Action) ParamSize(n int) int {
	size := 0
	for i := 0; i < n && i < len(a.Params); i++ {
		size += a.Params[i].Size()
	}
	return size
}

// Dump renders the debug form described in spec §4.1: `"<name>" <ret-code>
// <paramSize>`.
func (a *Action) Dump() string {
	return fmt.Sprintf("%q %s %d", a.Name, a.Return, a.ParamSize(len(a.Params)))
}

// ActionTableMissingError is returned by ActionTable.Action when the
// requested index was never bound to a signature (spec §4.1, Failures).
type ActionTableMissingError struct{ Index int }

func (e *ActionTableMissingError) Error() string {
	return fmt.Sprintf("action table: no entry at index %d", e.Index)
}

// ActionTable is a read-only, index-keyed catalogue of engine actions.
type ActionTable struct {
	byIndex map[int]*Action
	max     int
}

// Action returns the entry bound to index i, or ActionTableMissingError if
// no signature was ever bound to that explicit index.
func (t *ActionTable) Action(i int) (*Action, error) {
	a, ok := t.byIndex[i]
	if !ok {
		return nil, &ActionTableMissingError{Index: i}
	}
	return a, nil
}

// Len returns one past the highest bound index, for iteration/dump
// purposes; gaps are possible and must be tolerated by callers.
func (t *ActionTable) Len() int { return t.max + 1 }
