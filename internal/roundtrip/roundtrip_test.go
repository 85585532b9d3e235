package roundtrip_test

import (
	"testing"

	"github.com/nwscript-tools/ncsdecomp/internal/roundtrip"
	"github.com/stretchr/testify/require"
)

func TestEqualIgnoresCommentsAndWhitespace(t *testing.T) {
	want := `void main() {
    // a comment the decompiler never emits
    int x = 1;
    if (x == TRUE) {
        DoThing(1, 2, 3);
    }
}
`
	got := "void main() {  \n    int x = 1;\n    if (x == 1) {\n        /* inline */ DoThing(1, 2, 3);\n    }\n}\n"

	require.True(t, roundtrip.Equal(want, got))
	diff, err := roundtrip.Diff(want, got)
	require.NoError(t, err)
	require.Empty(t, diff)
}

func TestDiffReportsRealDifferences(t *testing.T) {
	want := "void main() {\n    DoThing(1, 2, 3);\n}\n"
	got := "void main() {\n    DoThing(1, 2, 4);\n}\n"

	require.False(t, roundtrip.Equal(want, got))
	diff, err := roundtrip.Diff(want, got)
	require.NoError(t, err)
	require.NotEmpty(t, diff)
	require.Contains(t, diff, "DoThing(1, 2, 3);")
	require.Contains(t, diff, "DoThing(1, 2, 4);")
}
