package merkle

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDotGraph(t *testing.T) {
	tree, err := Build(numberedFiles(3), SHA256)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tree.RootNode().DotGraph(&buf))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, `digraph "`+tree.Root().String()+`" {`))
	require.True(t, strings.HasSuffix(out, "}"))
	// Seven nodes, six edges
	require.Equal(t, 6, strings.Count(out, "->"))
	require.Contains(t, out, "file1.txt")
	require.Contains(t, out, "file3.txt (pad)")
}
