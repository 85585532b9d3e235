package bytecode

import (
	"context"
	"encoding/binary"
	"math"
)

// Magic is the 8-byte ASCII header every NCS byte stream begins with
// (spec §6).
const Magic = "NCS V1.0"

// Reader decodes a raw NCS byte stream into a flat, ordered slice of
// Instruction. It holds no state between calls to Read.
type Reader struct{}

// Read decodes the full instruction stream of b. It validates the magic,
// then decodes instructions in order until the declared program length (or
// the end of b) is reached.
//
// Errors are the format errors of spec §7 (BadMagicError,
// TruncatedBytecodeError, UnknownOpcodeError) or ctx's error when ctx is
// done. They are fatal — Read never returns a partial instruction slice
// alongside an error.
func (Reader) Read(ctx context.Context, b []byte) ([]*Instruction, error) {
	if len(b) < len(Magic) {
		return nil, &BadMagicError{Got: b}
	}
	if string(b[:len(Magic)]) != Magic {
		return nil, &BadMagicError{Got: b[:len(Magic)]}
	}
	cur := &cursor{buf: b, pos: uint32(len(Magic))}

	progLen, err := cur.u32()
	if err != nil {
		return nil, err
	}
	end := cur.pos + progLen
	if end > uint32(len(b)) {
		end = uint32(len(b))
	}

	var insns []*Instruction
	for cur.pos < end {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := cur.pos
		opByte, err := cur.u8()
		if err != nil {
			return nil, err
		}
		op := Opcode(opByte)
		if _, ok := opcodeDecoders[op]; !ok {
			return nil, &UnknownOpcodeError{Byte: opByte, Offset: start}
		}
		in := &Instruction{Op: op, Offset: start}
		if err := opcodeDecoders[op](cur, in); err != nil {
			return nil, err
		}
		in.Size = cur.pos - start
		insns = append(insns, in)
	}
	return insns, nil
}

// cursor is a small big-endian byte reader over a fixed buffer, tracking
// the absolute offset of the next unread byte.
type cursor struct {
	buf []byte
	pos uint32
}

func (c *cursor) need(n int) error {
	if int(c.pos)+n > len(c.buf) {
		return &TruncatedBytecodeError{Offset: c.pos, Need: n, Have: len(c.buf) - int(c.pos)}
	}
	return nil
}

func (c *cursor) u8() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) i32() (int32, error) {
	v, err := c.u32()
	return int32(v), err
}

func (c *cursor) i16() (int16, error) {
	v, err := c.u16()
	return int16(v), err
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	return math.Float32frombits(v), err
}

func (c *cursor) str(n int) (string, error) {
	if err := c.need(n); err != nil {
		return "", err
	}
	s := string(c.buf[c.pos : c.pos+uint32(n)])
	c.pos += uint32(n)
	return s, nil
}

type decodeFn func(c *cursor, in *Instruction) error

var opcodeDecoders = map[Opcode]decodeFn{
	NOP:        decodeNoOperand,
	SAVEBP:     decodeNoOperand,
	RESTOREBP:  decodeNoOperand,
	RETN:       decodeNoOperand,
	CONST:      decodeConst,
	CPDOWNSP:   decodeStackCopy,
	CPTOPSP:    decodeStackCopy,
	CPDOWNBP:   decodeStackCopy,
	CPTOPBP:    decodeStackCopy,
	RSADD:      decodeRSAdd,
	MOVSP:      decodeMovSP,
	DESTRUCT:   decodeDestruct,
	ADD:        decodeBinaryType,
	SUB:        decodeBinaryType,
	MUL:        decodeBinaryType,
	DIV:        decodeBinaryType,
	MOD:        decodeBinaryType,
	INCOR:      decodeBinaryType,
	EXCOR:      decodeBinaryType,
	BOOLAND:    decodeBinaryType,
	SHLEFT:     decodeBinaryType,
	SHRIGHT:    decodeBinaryType,
	USHRIGHT:   decodeBinaryType,
	LOGAND:     decodeBinaryType,
	LOGOR:      decodeBinaryType,
	EQ:         decodeBinaryType,
	NEQ:        decodeBinaryType,
	GEQ:        decodeBinaryType,
	GT:         decodeBinaryType,
	LT:         decodeBinaryType,
	LEQ:        decodeBinaryType,
	NEG:        decodeUnaryType,
	COMP:       decodeUnaryType,
	NOT:        decodeUnaryType,
	JMP:        decodeJump,
	JZ:         decodeJump,
	JNZ:        decodeJump,
	JSR:        decodeJump,
	ACTION:     decodeAction,
	STORESTATE: decodeStoreState,
}

func decodeNoOperand(_ *cursor, _ *Instruction) error { return nil }

func decodeConst(c *cursor, in *Instruction) error {
	dt, err := c.u8()
	if err != nil {
		return err
	}
	in.DType = DataType(dt)
	switch in.DType {
	case DTInt, DTObject:
		v, err := c.i32()
		if err != nil {
			return err
		}
		in.Lit.Int = v
	case DTFloat:
		v, err := c.f32()
		if err != nil {
			return err
		}
		in.Lit.Float = v
	case DTString:
		n, err := c.u16()
		if err != nil {
			return err
		}
		s, err := c.str(int(n))
		if err != nil {
			return err
		}
		in.Lit.String = s
	}
	return nil
}

func decodeStackCopy(c *cursor, in *Instruction) error {
	off, err := c.i32()
	if err != nil {
		return err
	}
	size, err := c.u16()
	if err != nil {
		return err
	}
	in.StackOff = off
	in.Size1 = uint32(size)
	return nil
}

func decodeRSAdd(c *cursor, in *Instruction) error {
	dt, err := c.u8()
	if err != nil {
		return err
	}
	in.DType = DataType(dt)
	return nil
}

func decodeMovSP(c *cursor, in *Instruction) error {
	n, err := c.i32()
	if err != nil {
		return err
	}
	in.Count = n
	return nil
}

func decodeDestruct(c *cursor, in *Instruction) error {
	size, err := c.u16()
	if err != nil {
		return err
	}
	off, err := c.i16()
	if err != nil {
		return err
	}
	keep, err := c.u16()
	if err != nil {
		return err
	}
	in.Size1 = uint32(size)
	in.KeepOff = int32(off)
	in.Size2 = uint32(keep)
	return nil
}

func decodeBinaryType(c *cursor, in *Instruction) error {
	dt, err := c.u8()
	if err != nil {
		return err
	}
	in.DType = DataType(dt)
	return nil
}

func decodeUnaryType(c *cursor, in *Instruction) error {
	dt, err := c.u8()
	if err != nil {
		return err
	}
	in.DType = DataType(dt)
	return nil
}

func decodeJump(c *cursor, in *Instruction) error {
	rel, err := c.i32()
	if err != nil {
		return err
	}
	in.JumpRel = rel
	return nil
}

func decodeAction(c *cursor, in *Instruction) error {
	idx, err := c.u16()
	if err != nil {
		return err
	}
	argc, err := c.u8()
	if err != nil {
		return err
	}
	in.ActionIdx = idx
	in.ArgCount = argc
	return nil
}

func decodeStoreState(c *cursor, in *Instruction) error {
	size, err := c.u32()
	if err != nil {
		return err
	}
	sizeLocals, err := c.u32()
	if err != nil {
		return err
	}
	in.Size1 = size
	in.Size2 = sizeLocals
	return nil
}
