// ABOUTME: Immediate dominator computation over a snapshot graph
// ABOUTME: Backs sole-retainer detection and retained weight estimates

package graph

// Dominators computes the immediate dominator of every object reachable
// from the snapshot roots, using the Lengauer-Tarjan algorithm. A synthetic
// super-root with ID 0 is placed above all roots so a snapshot scanned from
// several namespaces still forms a single tree; an idom of 0 means no
// single object below the roots solely retains the object. Objects the
// scan never reached are absent from the result.
func Dominators(g Graph) map[ObjID]ObjID {
	succ := make(map[ObjID][]ObjID, g.NumObjects()+1)
	pred := make(map[ObjID][]ObjID, g.NumObjects()+1)

	roots := g.GetRoots()
	if len(roots.IDs) > 0 {
		succ[0] = append([]ObjID(nil), roots.IDs...)
		for _, r := range roots.IDs {
			pred[r] = append(pred[r], 0)
		}
	}
	g.ForEachObject(func(obj *Object) {
		if len(obj.Ptrs) == 0 {
			return
		}
		succ[obj.ID] = append([]ObjID(nil), obj.Ptrs...)
		for _, target := range obj.Ptrs {
			pred[target] = append(pred[target], obj.ID)
		}
	})

	var count int
	order := make([]ObjID, 0, g.NumObjects()+1) // DFS number -> object ID
	num := make(map[ObjID]int)                  // object -> DFS number
	parent := make(map[ObjID]int)               // object -> DFS number of spanning-tree parent
	semi := make(map[ObjID]int)                 // object -> DFS number of semidominator
	ancestor := make(map[ObjID]int)             // link-eval forest
	best := make(map[ObjID]ObjID)               // link-eval forest
	samedom := make(map[ObjID]ObjID)            // deferred idom assignments
	idom := make(map[ObjID]ObjID)
	bucket := make(map[int][]ObjID) // semidominator number -> objects

	var dfs func(v ObjID, p int)
	dfs = func(v ObjID, p int) {
		if _, seen := num[v]; seen {
			return
		}
		num[v] = count
		order = append(order, v)
		parent[v] = p
		semi[v] = count
		ancestor[v] = -1
		best[v] = v
		samedom[v] = v
		count++
		for _, w := range succ[v] {
			dfs(w, num[v])
		}
	}
	dfs(0, -1)

	var compress func(v ObjID)
	compress = func(v ObjID) {
		anc := order[ancestor[v]]
		if ancestor[anc] == -1 {
			return
		}
		compress(anc)
		if semi[best[anc]] < semi[best[v]] {
			best[v] = best[anc]
		}
		ancestor[v] = ancestor[anc]
	}

	eval := func(v ObjID) ObjID {
		if ancestor[v] == -1 {
			return v
		}
		compress(v)
		return best[v]
	}

	// Walk objects in reverse DFS order, computing semidominators from
	// the predecessor lists and settling each parent's bucket.
	for i := count - 1; i > 0; i-- {
		w := order[i]

		for _, v := range pred[w] {
			vNum, reachable := num[v]
			if !reachable {
				continue
			}
			var u ObjID
			if vNum <= num[w] {
				u = v
			} else {
				u = eval(v)
			}
			if semi[u] < semi[w] {
				semi[w] = semi[u]
			}
		}

		bucket[semi[w]] = append(bucket[semi[w]], w)
		if parent[w] != -1 {
			ancestor[w] = parent[w]
		}

		for _, v := range bucket[parent[w]] {
			u := eval(v)
			if semi[u] == semi[v] {
				idom[v] = order[parent[w]]
			} else {
				samedom[v] = u
			}
		}
		delete(bucket, parent[w])
	}

	// Resolve the assignments deferred through samedom.
	for i := 1; i < count; i++ {
		w := order[i]
		if samedom[w] != w {
			idom[w] = idom[samedom[w]]
		}
	}

	delete(idom, 0)
	return idom
}

// DominatorTree inverts an immediate-dominator map into child lists.
// Every object in idom appears as a key, so callers can walk the tree
// without nil checks; the super-root keys the roots' subtrees.
func DominatorTree(idom map[ObjID]ObjID) map[ObjID][]ObjID {
	tree := make(map[ObjID][]ObjID, len(idom)+1)
	for node := range idom {
		tree[node] = []ObjID{}
	}
	tree[0] = []ObjID{}

	for node, dom := range idom {
		tree[dom] = append(tree[dom], node)
	}
	return tree
}
