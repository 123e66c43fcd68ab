// ABOUTME: DOT backreference-graph writer for the optional export path
// ABOUTME: Emits Graphviz source; image rendering is an external concern

package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/prateek/leaklens/audit"
)

// Exporter turns one walk tree into a graph artifact on disk. The real
// image-rendering collaborator (a Graphviz installation) lives outside
// this module; implementations report their own availability so commands
// can surface "exporter not available" as an informational outcome.
type Exporter interface {
	// Available reports whether the exporter can run at all
	Available() error

	// Export writes the artifact for tree to path
	Export(tree *audit.Node, path string) error
}

// DotExporter writes Graphviz DOT source. It needs no external tooling,
// so it is always available; feeding the output to dot(1) for images is
// left to the operator or host.
type DotExporter struct{}

// Available always succeeds for DOT source output
func (e *DotExporter) Available() error { return nil }

// Export writes the tree as a DOT digraph. Referrer edges point from the
// holder to the held object, matching how a retention diagram reads.
func (e *DotExporter) Export(tree *audit.Node, path string) error {
	if tree == nil {
		return fmt.Errorf("export: nil tree")
	}
	var sb strings.Builder
	sb.WriteString("digraph backrefs {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, fontsize=10];\n")

	seq := 0
	writeDotNode(&sb, tree, -1, &seq)

	sb.WriteString("}\n")
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// writeDotNode emits one node and its subtree. parent is the DOT id of
// the held object (-1 for the root).
func writeDotNode(sb *strings.Builder, n *audit.Node, parent int, seq *int) {
	id := *seq
	*seq++

	label := n.Label
	if n.Hint != "" {
		label += "\\n" + n.Hint
	}
	switch n.State {
	case audit.StateCycle:
		label += "\\n(cycle)"
	case audit.StateTruncated:
		label += fmt.Sprintf("\\n(%d referrers, %d shown)", n.Total, len(n.Children))
	case audit.StateDepthExhausted:
		label += "\\n(depth limit)"
	}
	fmt.Fprintf(sb, "  n%d [label=\"%s\"];\n", id, dotEscape(label))

	if parent >= 0 {
		// The child node is a referrer holding the parent's object
		fmt.Fprintf(sb, "  n%d -> n%d;\n", id, parent)
	}
	for _, c := range n.Children {
		writeDotNode(sb, c, id, seq)
	}
}

func dotEscape(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
