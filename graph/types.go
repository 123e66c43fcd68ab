// ABOUTME: Core data types for the live object graph snapshot
// ABOUTME: Defines Object, ObjID, Kind, and Roots structures

package graph

// ObjID is a unique identifier for an object within one snapshot.
// IDs are not stable across snapshots; the live graph can mutate between
// scans, so identity across snapshots is resolved by runtime pointer
// identity, not by ObjID.
type ObjID uint64

// Kind classifies how an object holds references, which drives both
// noise classification and the structural hints shown in reports.
type Kind int

const (
	// KindOther covers objects with no special container semantics
	KindOther Kind = iota
	// KindPointer is a typed pointer (including interface-boxed pointers)
	KindPointer
	// KindMap is a map container
	KindMap
	// KindSlice is a slice or array container
	KindSlice
	// KindChan is a channel
	KindChan
	// KindFunc is a function value (closures may capture references)
	KindFunc
	// KindNamespace is a named binding table registered as a root
	KindNamespace
)

// String returns the human-readable name of the kind
func (k Kind) String() string {
	switch k {
	case KindPointer:
		return "pointer"
	case KindMap:
		return "map"
	case KindSlice:
		return "slice"
	case KindChan:
		return "chan"
	case KindFunc:
		return "func"
	case KindNamespace:
		return "namespace"
	default:
		return "other"
	}
}

// IsContainer reports whether the kind is a sequence or mapping container
func (k Kind) IsContainer() bool {
	return k == KindMap || k == KindSlice
}

// Object represents a single object discovered in a snapshot of the
// live graph
type Object struct {
	ID   ObjID   // Unique identifier within the snapshot
	Type string  // Type name (e.g. "*main.Document", "map[string]any")
	Kind Kind    // Reference-holding classification
	Size uint64  // Best-effort shallow size in bytes
	Ptrs []ObjID // IDs of objects this object points to

	// Labels annotates outgoing edges: struct field name, map key, or
	// namespace binding name for the edge to the given target. Edges
	// without a meaningful name are absent from the map.
	Labels map[ObjID]string

	// Len is the element count for container kinds, -1 otherwise
	Len int

	// Namespace is the declared name when Kind is KindNamespace, "" otherwise
	Namespace string

	// Worker is the name of a thread-like worker object ("" for most
	// objects). Set when the scanned value exposes a worker name.
	Worker string

	// Preview is a bounded best-effort textual rendering of the value.
	// Producing it must never fail; the scanner substitutes a placeholder
	// when formatting panics.
	Preview string
}

// EdgeLabel returns the label of the edge to target, or "" if unlabelled
func (o *Object) EdgeLabel(target ObjID) string {
	if o.Labels == nil {
		return ""
	}
	return o.Labels[target]
}

// Roots represents the set of root objects the snapshot was scanned from
type Roots struct {
	IDs []ObjID // Object IDs that are roots
}
