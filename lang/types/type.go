// Package types defines the static type lattice used by the Prototype
// Engine and Stack Simulator to classify stack slots, parameters, and
// return values. Unlike a runtime value system, Type carries no data beyond
// its kind (and, for Struct, its field kinds) — it exists purely to support
// the join/widen operations the fixed-point signature inference performs.
package types

import "strings"

// Kind identifies one member of the type lattice.
type Kind uint8

//nolint:revive
const (
	Void Kind = iota // no value at all, e.g. a subroutine with no RETN value
	Int
	Float
	String
	Object
	Vector
	Effect
	Event
	Location
	Talent
	Action
	StructKind
	Any // top of the lattice: inference could not narrow further
)

var kindNames = [...]string{
	Void:       "void",
	Int:        "int",
	Float:      "float",
	String:     "string",
	Object:     "object",
	Vector:     "vector",
	Effect:     "effect",
	Event:      "event",
	Location:   "location",
	Talent:     "talent",
	Action:     "action",
	StructKind: "struct",
	Any:        "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "illegal kind"
}

// Type is a value of the static type lattice. Simple kinds carry no extra
// data; StructKind carries the ordered field types (NSS structs decompose
// to a flat sequence of stack slots of their field types, per the data
// model's Struct StackEntry variant).
type Type struct {
	Kind   Kind
	Fields []Type // only meaningful when Kind == StructKind
}

// Simple kind constructors, mirroring the one-file-per-kind texture of a
// runtime value package but for static types.
var (
	TVoid     = Type{Kind: Void}
	TInt      = Type{Kind: Int}
	TFloat    = Type{Kind: Float}
	TString   = Type{Kind: String}
	TObject   = Type{Kind: Object}
	TVector   = Type{Kind: Vector}
	TEffect   = Type{Kind: Effect}
	TEvent    = Type{Kind: Event}
	TLocation = Type{Kind: Location}
	TTalent   = Type{Kind: Talent}
	TAction   = Type{Kind: Action}
	TAny      = Type{Kind: Any}
)

// NewStruct returns a Struct type with the given field types, in order.
func NewStruct(fields ...Type) Type {
	return Type{Kind: StructKind, Fields: fields}
}

func (t Type) String() string {
	if t.Kind != StructKind {
		return t.Kind.String()
	}
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "struct{" + strings.Join(parts, ",") + "}"
}

// Equal reports whether t and u are the exact same type (structurally, for
// StructKind).
func (t Type) Equal(u Type) bool {
	if t.Kind != u.Kind {
		return false
	}
	if t.Kind != StructKind {
		return true
	}
	if len(t.Fields) != len(u.Fields) {
		return false
	}
	for i := range t.Fields {
		if !t.Fields[i].Equal(u.Fields[i]) {
			return false
		}
	}
	return true
}

// Size returns the number of stack slots this type occupies, per spec §3:
// int/float/object/string = 1, vector = 3, struct = sum of fields.
func (t Type) Size() int {
	switch t.Kind {
	case Vector:
		return 3
	case StructKind:
		n := 0
		for _, f := range t.Fields {
			n += f.Size()
		}
		return n
	case Void:
		return 0
	default:
		return 1
	}
}

// Join implements the lattice widening used by the Prototype Engine
// (spec §4.6, step 2): join(T,T) = T, join(T,Any) = join(Any,T) = T,
// join(Ti,Tj) = Any for any other pair of incompatible types.
func Join(a, b Type) Type {
	if a.Kind == Any {
		return b
	}
	if b.Kind == Any {
		return a
	}
	if a.Equal(b) {
		return a
	}
	return TAny
}
