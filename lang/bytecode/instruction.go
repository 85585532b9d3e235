package bytecode

import "fmt"

// Literal is the decoded payload of a CONST instruction.
type Literal struct {
	Int    int32
	Float  float32
	String string
	// Object literals in NCS are always the constant OBJECT_SELF/OBJECT_INVALID
	// sentinel values; Int carries which one.
}

// Instruction is a single decoded NCS instruction: an opcode, a type byte,
// a decoded operand set, and the absolute byte offset it was read from.
// Instructions are created once by Read and never mutated (spec §3).
type Instruction struct {
	Op     Opcode
	DType  DataType
	Offset uint32 // absolute offset of this instruction's first byte
	Size   uint32 // total encoded size in bytes, including opcode+type+operands

	// Operand fields; which are meaningful depends on Op.
	Lit       Literal  // CONST
	StackOff  int32    // CPDOWNSP/CPTOPSP/CPDOWNBP/CPTOPBP: signed offset from SP/BP
	Size1     uint32   // CPDOWNSP/CPTOPSP/CPDOWNBP/CPTOPBP: byte size; DESTRUCT: size; STORESTATE: size
	Size2     uint32   // DESTRUCT: keep-size; STORESTATE: sizeLocals
	KeepOff   int32    // DESTRUCT: keep-offset
	Count     int32    // MOVSP: signed byte count (negative = pop)
	ActionIdx uint16   // ACTION: index into the action table
	ArgCount  uint8    // ACTION: number of declared arguments consumed
	JumpRel   int32    // JMP/JZ/JNZ/JSR: signed offset relative to the next instruction
	JumpAbs   uint32   // resolved by the Structural Linker; 0 until then
	Resolved  bool     // true once JumpAbs has been computed
}

// Target returns the absolute jump target for a control-flow instruction.
// It is only meaningful after the Structural Linker has resolved it.
func (in *Instruction) Target() (uint32, bool) {
	if !IsJump(in.Op) {
		return 0, false
	}
	return in.JumpAbs, in.Resolved
}

// End returns the offset one past the last byte of this instruction, i.e.
// the offset JumpRel is relative to (spec §6).
func (in *Instruction) End() uint32 {
	return in.Offset + in.Size
}

func (in *Instruction) String() string {
	switch in.Op {
	case CONST:
		switch in.DType {
		case DTInt:
			return fmt.Sprintf("CONST int %d", in.Lit.Int)
		case DTFloat:
			return fmt.Sprintf("CONST float %g", in.Lit.Float)
		case DTString:
			return fmt.Sprintf("CONST string %q", in.Lit.String)
		case DTObject:
			return fmt.Sprintf("CONST object %d", in.Lit.Int)
		default:
			return "CONST <unknown>"
		}
	case CPDOWNSP, CPTOPSP, CPDOWNBP, CPTOPBP:
		return fmt.Sprintf("%s %d, %d", in.Op, in.StackOff, in.Size1)
	case DESTRUCT:
		return fmt.Sprintf("DESTRUCT %d, %d, %d", in.Size1, in.KeepOff, in.Size2)
	case MOVSP:
		return fmt.Sprintf("MOVSP %d", in.Count)
	case ACTION:
		return fmt.Sprintf("ACTION %#x, %d", in.ActionIdx, in.ArgCount)
	case STORESTATE:
		return fmt.Sprintf("STORESTATE %d, %d", in.Size1, in.Size2)
	case JMP, JZ, JNZ, JSR:
		if in.Resolved {
			return fmt.Sprintf("%s %#x", in.Op, in.JumpAbs)
		}
		return fmt.Sprintf("%s %+d", in.Op, in.JumpRel)
	default:
		if in.DType != DTNone {
			return fmt.Sprintf("%s %s", in.Op, in.DType)
		}
		return in.Op.String()
	}
}
