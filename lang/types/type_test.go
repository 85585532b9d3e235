package types_test

import (
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/types"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	require.Equal(t, types.TInt, types.Join(types.TInt, types.TInt))
	require.Equal(t, types.TInt, types.Join(types.TInt, types.TAny))
	require.Equal(t, types.TInt, types.Join(types.TAny, types.TInt))
	require.Equal(t, types.TAny, types.Join(types.TInt, types.TFloat))
	require.Equal(t, types.TAny, types.Join(types.TAny, types.TAny))
}

func TestSize(t *testing.T) {
	require.Equal(t, 1, types.TInt.Size())
	require.Equal(t, 3, types.TVector.Size())
	require.Equal(t, 0, types.TVoid.Size())

	st := types.NewStruct(types.TInt, types.TVector, types.TString)
	require.Equal(t, 1+3+1, st.Size())
}

func TestStructEqual(t *testing.T) {
	a := types.NewStruct(types.TInt, types.TFloat)
	b := types.NewStruct(types.TInt, types.TFloat)
	c := types.NewStruct(types.TInt, types.TString)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestString(t *testing.T) {
	require.Equal(t, "int", types.TInt.String())
	require.Equal(t, "struct{int,float}", types.NewStruct(types.TInt, types.TFloat).String())
}
