// ABOUTME: Queries over the dominator tree of a snapshot
// ABOUTME: Depth, retention chains, and dominance checks used by reports

package graph

// DominatorDepth returns each object's depth in the dominator tree, with
// the super-root at depth 0 and namespace roots at depth 1. Deeper objects
// sit further from anything an operator can delete directly.
func DominatorDepth(tree map[ObjID][]ObjID) map[ObjID]int {
	depth := map[ObjID]int{0: 0}

	queue := []ObjID{0}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, child := range tree[node] {
			depth[child] = depth[node] + 1
			queue = append(queue, child)
		}
	}
	return depth
}

// DominatorPath returns the chain of sole retainers from an object up to
// the super-root: releasing any object on the chain frees everything below
// it, including the one asked about. The path starts at the object and
// always ends with 0.
func DominatorPath(idom map[ObjID]ObjID, node ObjID) []ObjID {
	path := []ObjID{node}
	for cur := node; cur != 0; {
		dom, ok := idom[cur]
		if !ok || dom == 0 {
			path = append(path, 0)
			break
		}
		path = append(path, dom)
		cur = dom
	}
	return path
}

// IsDominated reports whether every retention path to node passes through
// dominator. Objects dominate themselves.
func IsDominated(idom map[ObjID]ObjID, node, dominator ObjID) bool {
	if node == dominator {
		return true
	}

	cur := node
	for {
		dom, ok := idom[cur]
		if !ok {
			return false
		}
		if dom == dominator {
			return true
		}
		if dom == 0 {
			// Past this point only the super-root remains.
			return dominator == 0
		}
		cur = dom
	}
}
