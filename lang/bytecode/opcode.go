// Package bytecode implements the Bytecode Reader (spec §4.2): it decodes a
// raw NCS byte stream into a flat, ordered list of Instruction nodes, each
// tagged with the absolute byte offset it was read from. Instructions are
// created once by Read and never mutated afterward (spec §3, Lifecycles).
package bytecode

import "fmt"

// Version identifies the NCS instruction-set revision this package decodes.
// Bump it if the opcode table below changes in an incompatible way.
const Version = 1

// Opcode identifies an NCS instruction. The numeric values are this
// project's own assignment (the spec does not mandate specific byte values,
// only opcode identity and stack effect), laid out in the same grouped,
// stack-picture-commented style as a compiler's instruction set so the
// Stack Simulator's switch statement reads the same way a VM's would.
type Opcode uint8

// "x ADD y -> z" describes the state of the operand stack before and after
// execution: operands consumed left-to-right, then what is pushed. OP<T>
// marks an opcode whose Instruction.DType selects the operand type(s).
const ( //nolint:revive
	NOP Opcode = iota // - NOP -

	// constant push (type byte selects the literal kind)
	CONST // - CONST<lit> x

	// stack manipulation
	CPDOWNSP  // - CPDOWNSP<off,size>    -        copies size bytes from the top down to sp-off
	CPTOPSP   // - CPTOPSP<off,size>     x        pushes a copy of size bytes at sp-off
	RSADD     // - RSADD<type>           x        reserves a slot, default-initialized
	MOVSP     // - MOVSP<n>              -        pops n bytes (destroys locals)
	DESTRUCT  // - DESTRUCT<size,off,keepsize> x  removes size bytes, keeping a keepsize sub-range at off
	CPDOWNBP  // - CPDOWNBP<off,size>    -        like CPDOWNSP, relative to BP
	CPTOPBP   // - CPTOPBP<off,size>     x        like CPTOPSP, relative to BP
	SAVEBP    // - SAVEBP                -        BP = SP (enter a new frame)
	RESTOREBP // - RESTOREBP             -        BP = saved BP

	// arithmetic / bitwise (type byte selects the operand combination)
	ADD
	SUB
	MUL
	DIV
	MOD
	NEG
	INCOR  // bitwise |
	EXCOR  // bitwise ^
	BOOLAND // bitwise &
	COMP   // bitwise ~
	SHLEFT
	SHRIGHT
	USHRIGHT

	// logical
	LOGAND // &&
	LOGOR  // ||
	NOT    // !

	// comparisons
	EQ
	NEQ
	GEQ
	GT
	LT
	LEQ

	// control flow (argument is a signed offset relative to the byte
	// immediately following the instruction, per spec §6)
	JMP
	JZ
	JNZ
	JSR
	RETN

	// engine & closures
	ACTION     // - ACTION<index,argc> ...        calls an engine action
	STORESTATE // - STORESTATE<size,sizelocals> x snapshots BP/SP range for a deferred action

	opcodeMax = STORESTATE
)

var opcodeNames = [...]string{
	NOP:        "NOP",
	CONST:      "CONST",
	CPDOWNSP:   "CPDOWNSP",
	CPTOPSP:    "CPTOPSP",
	RSADD:      "RSADD",
	MOVSP:      "MOVSP",
	DESTRUCT:   "DESTRUCT",
	CPDOWNBP:   "CPDOWNBP",
	CPTOPBP:    "CPTOPBP",
	SAVEBP:     "SAVEBP",
	RESTOREBP:  "RESTOREBP",
	ADD:        "ADD",
	SUB:        "SUB",
	MUL:        "MUL",
	DIV:        "DIV",
	MOD:        "MOD",
	NEG:        "NEG",
	INCOR:      "INCOR",
	EXCOR:      "EXCOR",
	BOOLAND:    "BOOLAND",
	COMP:       "COMP",
	SHLEFT:     "SHLEFT",
	SHRIGHT:    "SHRIGHT",
	USHRIGHT:   "USHRIGHT",
	LOGAND:     "LOGAND",
	LOGOR:      "LOGOR",
	NOT:        "NOT",
	EQ:         "EQ",
	NEQ:        "NEQ",
	GEQ:        "GEQ",
	GT:         "GT",
	LT:         "LT",
	LEQ:        "LEQ",
	JMP:        "JMP",
	JZ:         "JZ",
	JNZ:        "JNZ",
	JSR:        "JSR",
	RETN:       "RETN",
	ACTION:     "ACTION",
	STORESTATE: "STORESTATE",
}

func (op Opcode) String() string {
	if op <= opcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal opcode (%d)", byte(op))
}

// IsJump reports whether op is one of the control-flow instructions whose
// sole or primary argument is a relative jump offset.
func IsJump(op Opcode) bool {
	switch op {
	case JMP, JZ, JNZ, JSR:
		return true
	default:
		return false
	}
}

// DataType is the instruction's type byte: for CONST it selects the literal
// kind, for arithmetic/compare/stack opcodes it selects the operand
// combination (e.g. IntFloat means "pop a float, then an int").
type DataType uint8

//nolint:revive
const (
	DTNone DataType = iota
	DTInt
	DTFloat
	DTString
	DTObject
	DTVector
	DTEffect
	DTEvent
	DTLocation
	DTTalent
	DTIntInt
	DTFloatFloat
	DTIntFloat
	DTFloatInt
	DTVectorVector
	DTVectorFloat
	DTFloatVector
	DTStringString
	DTObjectObject
	DTStructStruct
)

var dataTypeNames = [...]string{
	DTNone:         "",
	DTInt:          "int",
	DTFloat:        "float",
	DTString:       "string",
	DTObject:       "object",
	DTVector:       "vector",
	DTEffect:       "effect",
	DTEvent:        "event",
	DTLocation:     "location",
	DTTalent:       "talent",
	DTIntInt:       "int,int",
	DTFloatFloat:   "float,float",
	DTIntFloat:     "int,float",
	DTFloatInt:     "float,int",
	DTVectorVector: "vector,vector",
	DTVectorFloat:  "vector,float",
	DTFloatVector:  "float,vector",
	DTStringString: "string,string",
	DTObjectObject: "object,object",
	DTStructStruct: "struct,struct",
}

func (dt DataType) String() string {
	if int(dt) < len(dataTypeNames) {
		return dataTypeNames[dt]
	}
	return fmt.Sprintf("illegal type (%d)", byte(dt))
}
