// ABOUTME: Retained weight calculation for snapshot objects
// ABOUTME: Sums the bytes that releasing an object would make collectable

package graph

// retainedCalc memoizes subtree weights over one dominator tree so the
// full-graph and targeted entry points share the traversal.
type retainedCalc struct {
	tree  map[ObjID][]ObjID
	sizes map[ObjID]uint64
	memo  map[ObjID]uint64
}

func newRetainedCalc(g Graph) *retainedCalc {
	c := &retainedCalc{
		tree:  DominatorTree(Dominators(g)),
		sizes: make(map[ObjID]uint64, g.NumObjects()+1),
		memo:  make(map[ObjID]uint64),
	}
	g.ForEachObject(func(obj *Object) {
		c.sizes[obj.ID] = obj.Size
	})
	c.sizes[0] = 0 // super-root is synthetic and weightless
	return c
}

// weight returns the object's shallow size plus the weight of everything
// it solely retains.
func (c *retainedCalc) weight(id ObjID) uint64 {
	if w, ok := c.memo[id]; ok {
		return w
	}
	w := c.sizes[id]
	for _, child := range c.tree[id] {
		w += c.weight(child)
	}
	c.memo[id] = w
	return w
}

// RetainedSize reports, for every reachable object, how many bytes would
// become collectable if that object were released. For a leaked instance
// this is the true cost of the leak rather than its shallow size, since a
// lingering session drags its buffers and caches along with it. Objects
// unreachable from the roots are omitted.
func RetainedSize(g Graph) map[ObjID]uint64 {
	calc := newRetainedCalc(g)
	out := make(map[ObjID]uint64, len(calc.tree))
	for id := range calc.tree {
		if id == 0 {
			continue
		}
		out[id] = calc.weight(id)
	}
	return out
}

// RetainedSizeSubsets computes retained weights for the given objects
// only. Listings that show a handful of tracked instances use this to
// avoid pricing the whole snapshot. IDs not present in the snapshot are
// skipped.
func RetainedSizeSubsets(g Graph, targetIDs []ObjID) map[ObjID]uint64 {
	out := make(map[ObjID]uint64, len(targetIDs))
	if len(targetIDs) == 0 {
		return out
	}

	calc := newRetainedCalc(g)
	for _, id := range targetIDs {
		if _, ok := calc.sizes[id]; !ok || id == 0 {
			continue
		}
		out[id] = calc.weight(id)
	}
	return out
}
