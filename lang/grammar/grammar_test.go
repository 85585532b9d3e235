package grammar_test

import (
	"testing"

	"github.com/nwscript-tools/ncsdecomp/lang/grammar"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	require.NoError(t, grammar.Verify())
}

func TestParseProducesStartProduction(t *testing.T) {
	g, err := grammar.Parse()
	require.NoError(t, err)
	require.Contains(t, g, grammar.Start)
}
