package bytecode_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/bytecode"
	"github.com/stretchr/testify/require"
)

// assemble builds a minimal valid NCS byte stream (magic + length header +
// the given instruction bytes) for testing the Reader.
func assemble(body []byte) []byte {
	out := []byte(bytecode.Magic)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	out = append(out, lenBuf[:]...)
	return append(out, body...)
}

func be32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func TestReadSimpleRetn(t *testing.T) {
	body := []byte{byte(bytecode.RETN)}
	insns, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.NoError(t, err)
	require.Len(t, insns, 1)
	require.Equal(t, bytecode.RETN, insns[0].Op)
	require.Equal(t, uint32(len(bytecode.Magic)+4), insns[0].Offset)
}

func TestReadConstInt(t *testing.T) {
	body := append([]byte{byte(bytecode.CONST), byte(bytecode.DTInt)}, be32(42)...)
	body = append(body, byte(bytecode.RETN))
	insns, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.NoError(t, err)
	require.Len(t, insns, 2)
	require.Equal(t, bytecode.CONST, insns[0].Op)
	require.Equal(t, int32(42), insns[0].Lit.Int)
	require.Equal(t, insns[0].Offset+insns[0].Size, insns[1].Offset)
}

func TestReadConstString(t *testing.T) {
	s := "hello"
	body := []byte{byte(bytecode.CONST), byte(bytecode.DTString)}
	body = append(body, 0, byte(len(s)))
	body = append(body, s...)
	insns, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.NoError(t, err)
	require.Equal(t, "hello", insns[0].Lit.String)
}

func TestReadJump(t *testing.T) {
	body := append([]byte{byte(bytecode.JMP)}, be32(uint32(int32(-5)))...)
	insns, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.NoError(t, err)
	require.Equal(t, int32(-5), insns[0].JumpRel)
}

func TestReadAction(t *testing.T) {
	body := []byte{byte(bytecode.ACTION), 0, 0x21, 3}
	insns, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.NoError(t, err)
	require.Equal(t, uint16(0x21), insns[0].ActionIdx)
	require.Equal(t, uint8(3), insns[0].ArgCount)
}

func TestReadBadMagic(t *testing.T) {
	_, err := bytecode.Reader{}.Read(context.Background(), []byte("garbage!"))
	require.Error(t, err)
	var badMagic *bytecode.BadMagicError
	require.ErrorAs(t, err, &badMagic)
}

func TestReadUnknownOpcode(t *testing.T) {
	body := []byte{0xFE}
	_, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.Error(t, err)
	var unk *bytecode.UnknownOpcodeError
	require.ErrorAs(t, err, &unk)
}

func TestReadTruncated(t *testing.T) {
	body := []byte{byte(bytecode.CONST), byte(bytecode.DTInt), 0, 0} // missing 2 more bytes of int32
	_, err := bytecode.Reader{}.Read(context.Background(), assemble(body))
	require.Error(t, err)
	var trunc *bytecode.TruncatedBytecodeError
	require.ErrorAs(t, err, &trunc)
}
