// ABOUTME: Text rendering of backreference trees and instance listings
// ABOUTME: Operator-facing format with indentation and structural hints

package audit

import (
	"fmt"
	"strings"
)

// RenderText renders a walk tree as indented text, one line per node.
// Cycle markers and truncation notices are inlined where they occur.
func RenderText(root *Node) string {
	var sb strings.Builder
	renderNode(&sb, root, "")
	return sb.String()
}

func renderNode(sb *strings.Builder, n *Node, indent string) {
	if n == nil {
		return
	}

	if n.State == StateCycle {
		fmt.Fprintf(sb, "%s-> (cycle) %s\n", indent, n.Label)
		return
	}

	hint := ""
	if n.Hint != "" {
		hint = " [" + n.Hint + "]"
	}
	fmt.Fprintf(sb, "%s-> %s%s: %s\n", indent, n.Label, hint, n.Preview)

	child := indent + "  "
	switch n.State {
	case StateLeaf:
		fmt.Fprintf(sb, "%s-> [no non-noise referrers]\n", child)
	case StateTruncated:
		fmt.Fprintf(sb, "%s-> (%d referrers, showing first %d)\n", child, n.Total, len(n.Children))
	}
	for _, c := range n.Children {
		renderNode(sb, c, child)
	}
}

// FormatListing renders the live-instance listing the way the list
// command prints it: index, descriptor, best-effort reference count, and
// non-noise referrer count.
func FormatListing(reports []InstanceReport) string {
	if len(reports) == 0 {
		return "No live instances found.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d live instance(s):\n", len(reports))
	for _, r := range reports {
		fmt.Fprintf(&sb, "  [%d] %s  |  refs=%d  |  interesting_referrers=%d\n",
			r.Index, r.Descriptor, r.RefTotal, r.NonNoiseReferrers)
	}
	return sb.String()
}

// FormatReport renders a full inspection report: the backreference tree,
// the shortest retaining chains, and the retained-size estimate.
func FormatReport(r *Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Inspecting [%d]: %s\n", r.Instance.Index, r.Instance.Descriptor)
	fmt.Fprintf(&sb, "referrers: %d total, %d non-noise\n",
		r.Instance.RefTotal, r.Instance.NonNoiseReferrers)
	if r.RetainedBytes > 0 {
		fmt.Fprintf(&sb, "retained estimate: %d bytes\n", r.RetainedBytes)
	}
	sb.WriteString(RenderText(r.Tree))
	if len(r.Paths) > 0 {
		sb.WriteString("Shortest retaining chains:\n")
		for _, p := range r.Paths {
			fmt.Fprintf(&sb, "  %s\n", strings.Join(p.Steps, " <- "))
		}
	}
	if len(r.SoleRetainers) > 0 {
		fmt.Fprintf(&sb, "Sole retainers (releasing any frees the instance):\n  %s\n",
			strings.Join(r.SoleRetainers, " <- "))
	}
	sb.WriteString("Tip: common culprits are namespace bindings, caches, workers, or closures capturing the instance.\n")
	return sb.String()
}
