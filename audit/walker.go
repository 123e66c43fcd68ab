// ABOUTME: Bounded, filtered, cycle-safe backreference tree walker
// ABOUTME: Depth-first pre-order descent with per-node fan-out caps

package audit

import (
	"fmt"
	"strings"

	"github.com/prateek/leaklens/graph"
	"github.com/prateek/leaklens/live"
)

// NodeState describes how the walker finished one node
type NodeState int

const (
	// StateExpanded means the node's referrers were enumerated and recursed
	StateExpanded NodeState = iota
	// StateTruncated means only the first PerNodeLimit referrers were
	// expanded; Total carries the true count
	StateTruncated
	// StateCycle means the object's identity was already visited in this
	// traversal; the node is terminal
	StateCycle
	// StateLeaf means the node has zero non-noise referrers (including the
	// case where enumeration failed)
	StateLeaf
	// StateDepthExhausted means the depth bound was reached; the node is
	// terminal even if referrers exist
	StateDepthExhausted
)

// String returns the human-readable name of the state
func (s NodeState) String() string {
	switch s {
	case StateExpanded:
		return "expanded"
	case StateTruncated:
		return "truncated"
	case StateCycle:
		return "cycle"
	case StateLeaf:
		return "leaf"
	case StateDepthExhausted:
		return "depth-exhausted"
	default:
		return "unknown"
	}
}

// Node is one rendered entry of a backreference tree. Nodes are transient
// records scoped to a single walk; they hold no references into the
// scanned graph beyond the snapshot-local ObjID.
type Node struct {
	State   NodeState
	ID      graph.ObjID
	Label   string // type label
	Hint    string // structural hint: length, binding name, worker name
	Preview string

	// Total is the true referrer count; when State is StateTruncated it
	// exceeds len(Children)
	Total int

	Children []*Node
}

// WalkOptions bounds one traversal. Explicit zero MaxDepth is honored:
// the walk renders exactly the root.
type WalkOptions struct {
	MaxDepth     int
	PerNodeLimit int
}

// Walk produces the filtered backreference tree for root within snap.
// The visited set is scoped to this call and discarded after, so stale
// state never leaks into a later traversal. It records only nodes whose
// referrers were expanded; re-encountering one of those renders a cycle
// marker. The traversal is depth-first, pre-order, with hard depth and
// fan-out caps.
func (a *Auditor) Walk(snap *live.Snapshot, root graph.ObjID, opts WalkOptions) *Node {
	if opts.PerNodeLimit <= 0 {
		opts.PerNodeLimit = a.perNode
	}
	w := &walkState{
		a:       a,
		snap:    snap,
		limit:   opts.PerNodeLimit,
		visited: make(map[graph.ObjID]bool),
	}
	return w.walk(root, 0, opts.MaxDepth)
}

// walkState is the per-invocation traversal state
type walkState struct {
	a       *Auditor
	snap    *live.Snapshot
	limit   int
	visited map[graph.ObjID]bool
}

// walk renders one node. via is the object this node retains (0 for the
// root) and selects the binding-name hint.
func (w *walkState) walk(id, via graph.ObjID, depth int) *Node {
	n := w.newNode(id, via)

	if w.visited[id] {
		n.State = StateCycle
		return n
	}

	if depth <= 0 {
		n.State = StateDepthExhausted
		return n
	}

	refs := w.a.queryReferrers(w.snap, id)
	if len(refs) == 0 {
		n.State = StateLeaf
		return n
	}

	n.Total = len(refs)
	shown := refs
	if len(refs) > w.limit {
		n.State = StateTruncated
		shown = refs[:w.limit]
	} else {
		n.State = StateExpanded
	}

	// Only expanded nodes enter the visited set. A node first cut off by
	// the depth bound or rendered as a leaf is not part of a cycle and may
	// legitimately reappear on a shorter path.
	w.visited[id] = true
	for _, rid := range shown {
		n.Children = append(n.Children, w.walk(rid, id, depth-1))
	}
	return n
}

// newNode builds the rendered record for one object. Preview and hint
// generation are best-effort and never abort the traversal.
func (w *walkState) newNode(id, via graph.ObjID) *Node {
	obj := w.snap.Object(id)
	if obj == nil {
		// The live graph mutated underneath the snapshot bookkeeping;
		// render a placeholder terminal node
		return &Node{ID: id, State: StateLeaf, Label: "<gone>", Preview: "<object vanished mid-walk>"}
	}
	return &Node{
		ID:      id,
		Label:   obj.Type,
		Hint:    structuralHint(obj, via),
		Preview: obj.Preview,
	}
}

// structuralHint summarizes how the referrer holds references: element
// count for containers, binding name for namespace-like referrers, worker
// name for thread-like referrers.
func structuralHint(obj *graph.Object, via graph.ObjID) string {
	var parts []string
	switch {
	case obj.Kind == graph.KindNamespace:
		parts = append(parts, fmt.Sprintf("namespace %q", obj.Namespace))
	case obj.Kind.IsContainer() && obj.Len >= 0:
		parts = append(parts, fmt.Sprintf("len=%d", obj.Len))
	}
	if obj.Worker != "" {
		parts = append(parts, fmt.Sprintf("worker name=%q", obj.Worker))
	}
	if via != 0 {
		if label := obj.EdgeLabel(via); label != "" {
			parts = append(parts, fmt.Sprintf("binding %q", label))
		}
	}
	return strings.Join(parts, " | ")
}
