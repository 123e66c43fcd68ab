// ABOUTME: Builds reverse edges for graph traversal
// ABOUTME: Maps objects to their referrers for backreference queries

package graph

import "sort"

// ReverseEdges maps each object to the objects that point to it.
// This is the "who references X" primitive the backreference walker and
// paths-to-roots are built on.
type ReverseEdges map[ObjID][]ObjID

// BuildReverseEdges creates a map of reverse edges
func BuildReverseEdges(g Graph) ReverseEdges {
	reverse := make(ReverseEdges)

	g.ForEachObject(func(obj *Object) {
		for _, targetID := range obj.Ptrs {
			reverse[targetID] = append(reverse[targetID], obj.ID)
		}
	})

	// ForEachObject iterates in map order; sort each referrer list so the
	// enumeration order seen by callers is stable within one snapshot.
	for id := range reverse {
		refs := reverse[id]
		sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	}

	return reverse
}
