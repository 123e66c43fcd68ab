// ABOUTME: Tests for DOT source generation from walk trees
// ABOUTME: Asserts on edge direction, state annotations, and escaping

package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/leaklens/audit"
)

func TestDotExporterAlwaysAvailable(t *testing.T) {
	assert.NoError(t, (&DotExporter{}).Available())
}

func TestDotExportWritesDigraph(t *testing.T) {
	tree := &audit.Node{
		State:   audit.StateExpanded,
		Label:   "*app.Document",
		Preview: "doc one",
		Children: []*audit.Node{
			{
				State:   audit.StateLeaf,
				Label:   `map[string]"quoted"`,
				Hint:    "len=2",
				Preview: "map contents",
			},
			{
				State: audit.StateCycle,
				Label: "map[string]interface {}",
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out.dot")
	require.NoError(t, (&DotExporter{}).Export(tree, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	src := string(data)

	assert.True(t, strings.HasPrefix(src, "digraph backrefs {"))
	assert.Contains(t, src, "rankdir=LR")
	assert.Contains(t, src, "*app.Document")
	assert.Contains(t, src, `\"quoted\"`, "quotes in labels must be escaped")
	assert.Contains(t, src, "->", "referrer edges present")
	assert.Contains(t, src, "cycle")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(src), "}"))
}

func TestDotExportNilTree(t *testing.T) {
	err := (&DotExporter{}).Export(nil, filepath.Join(t.TempDir(), "out.dot"))
	assert.Error(t, err)
}

func TestDotExportUnwritablePath(t *testing.T) {
	tree := &audit.Node{State: audit.StateLeaf, Label: "x"}
	err := (&DotExporter{}).Export(tree, filepath.Join(t.TempDir(), "missing", "out.dot"))
	assert.Error(t, err)
}
