package actiontable_test

import (
	"strings"
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/actiontable"
	"github.com/nwscript-tools/ncsdecomp/lang/types"
	"github.com/stretchr/testify/require"
)

const sample = `
// This header text is not part of the catalogue.

// 0: Random number
int Random(int nMaxInteger);

// 1: Print a string
void PrintString(string sString);

// this is a skipped-index test: index 2 is claimed but has no signature
// 2: Never actually declared
const int SOME_CONSTANT = 5;

// 3: Defaults
void DelayCommand(float fSeconds, action aActionToDelay, int bVisible=TRUE);
`

func TestLoadBasic(t *testing.T) {
	tbl, err := actiontable.Load(strings.NewReader(sample))
	require.NoError(t, err)

	a0, err := tbl.Action(0)
	require.NoError(t, err)
	require.Equal(t, "Random", a0.Name)
	require.Equal(t, types.TInt, a0.Return)
	require.Equal(t, []types.Type{types.TInt}, a0.Params)
	require.Equal(t, 1, a0.RequiredParams)

	a1, err := tbl.Action(1)
	require.NoError(t, err)
	require.Equal(t, "PrintString", a1.Name)
	require.Equal(t, types.TVoid, a1.Return)

	_, err = tbl.Action(2)
	require.Error(t, err)
	var missing *actiontable.ActionTableMissingError
	require.ErrorAs(t, err, &missing)

	a3, err := tbl.Action(3)
	require.NoError(t, err)
	require.Len(t, a3.Params, 3)
	require.Equal(t, 2, a3.RequiredParams)
	require.Nil(t, a3.Defaults[0])
	require.Nil(t, a3.Defaults[1])
	require.NotNil(t, a3.Defaults[2])
	require.Equal(t, int32(1), a3.Defaults[2].Int)
}

func TestActionParamSize(t *testing.T) {
	tbl, err := actiontable.Load(strings.NewReader(sample))
	require.NoError(t, err)
	a3, err := tbl.Action(3)
	require.NoError(t, err)
	// float=1 + action=1 + int=1
	require.Equal(t, 3, a3.ParamSize(3))
}
