package prototype

import (
	"strings"

	"github.com/nwscript-tools/ncsdecomp/lang/types"
)

// Signature is a subroutine's inferred calling shape: how many parameters it
// reads, their types, and its return type (spec §4.6). A freshly-seeded
// Signature (before any inference pass has run) has ParamCount 0, no
// ParamTypes, and ReturnType Any — not Void; Any is the "nothing observed
// yet" state the fixed point widens away from, while Void is a real,
// observed answer (an empty subroutine returns Void, not Any).
type Signature struct {
	ParamCount int
	ParamTypes []types.Type
	ReturnType types.Type
}

func seedSignature() *Signature {
	return &Signature{ReturnType: types.TAny}
}

// Equal reports whether s and o describe the same shape, used by the
// fixed-point loop to detect that a pass produced no change.
func (s *Signature) Equal(o *Signature) bool {
	if s.ParamCount != o.ParamCount || !s.ReturnType.Equal(o.ReturnType) {
		return false
	}
	if len(s.ParamTypes) != len(o.ParamTypes) {
		return false
	}
	for i, t := range s.ParamTypes {
		if !t.Equal(o.ParamTypes[i]) {
			return false
		}
	}
	return true
}

func (s *Signature) clone() *Signature {
	cp := &Signature{ParamCount: s.ParamCount, ReturnType: s.ReturnType}
	cp.ParamTypes = append([]types.Type(nil), s.ParamTypes...)
	return cp
}

// String renders the signature the way the Emitter would write a prototype,
// e.g. "int fn(int, float)".
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString(s.ReturnType.String())
	b.WriteString(" fn(")
	for i, t := range s.ParamTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

// hasAny reports whether any parameter or the return slot is still Any,
// i.e. nothing ever pinned it down to a concrete type (spec §4.10, strict
// mode; spec §7, AnyParameter/AnyReturn).
func (s *Signature) hasAny() bool {
	if s.ReturnType.Kind == types.Any {
		return true
	}
	for _, t := range s.ParamTypes {
		if t.Kind == types.Any {
			return true
		}
	}
	return false
}
