// ABOUTME: Tests for immediate dominator computation over snapshots
// ABOUTME: Covers shared holders, cycles, multiple namespaces, and scale

package graph

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestDominators(t *testing.T) {
	tests := []struct {
		name  string
		graph Graph
		want  map[ObjID]ObjID
	}{
		{
			name: "namespace chain to a single session",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{2}})
				g.AddObject(&Object{ID: 2, Type: "map[string]*app.Session", Kind: KindMap, Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 3, Type: "*app.Session", Kind: KindPointer})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			want: map[ObjID]ObjID{
				1: 0,
				2: 1,
				3: 2, // the cache is the session's sole retainer
			},
		},
		{
			name: "session shared by two bindings",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{2, 3}})
				g.AddObject(&Object{ID: 2, Type: "map[string]*app.Session", Kind: KindMap, Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 3, Type: "[]*app.Session", Kind: KindSlice, Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 4, Type: "*app.Session", Kind: KindPointer})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			want: map[ObjID]ObjID{
				1: 0,
				2: 1,
				3: 1,
				4: 1, // neither holder alone retains it, only the namespace does
			},
		},
		{
			name: "several holders converging on one buffer",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{2, 3}})
				g.AddObject(&Object{ID: 2, Type: "*app.Session", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 3, Type: "*app.Worker", Ptrs: []ObjID{4, 5}})
				g.AddObject(&Object{ID: 4, Type: "*app.Config", Ptrs: []ObjID{6}})
				g.AddObject(&Object{ID: 5, Type: "*app.Queue", Ptrs: []ObjID{6}})
				g.AddObject(&Object{ID: 6, Type: "*app.Buffer"})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			want: map[ObjID]ObjID{
				1: 0,
				2: 1,
				3: 1,
				4: 1,
				5: 3,
				6: 1,
			},
		},
		{
			name: "unrooted object is omitted",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{2}})
				g.AddObject(&Object{ID: 2, Type: "*app.Session"})
				g.AddObject(&Object{ID: 3, Type: "*app.Session"}) // already collectable
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			want: map[ObjID]ObjID{
				1: 0,
				2: 1,
			},
		},
		{
			name: "reference cycle among documents",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{2}})
				g.AddObject(&Object{ID: 2, Type: "*app.Document", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 3, Type: "*app.Document", Ptrs: []ObjID{4}})
				g.AddObject(&Object{ID: 4, Type: "*app.Document", Ptrs: []ObjID{2, 5}}) // back edge
				g.AddObject(&Object{ID: 5, Type: "*app.Buffer"})
				g.SetRoots(Roots{IDs: []ObjID{1}})
				return g
			}(),
			want: map[ObjID]ObjID{
				1: 0,
				2: 1,
				3: 2,
				4: 3,
				5: 4,
			},
		},
		{
			name: "two namespaces sharing a session",
			graph: func() Graph {
				g := NewMemGraph()
				g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 2, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "tools", Ptrs: []ObjID{3}})
				g.AddObject(&Object{ID: 3, Type: "*app.Session"})
				g.SetRoots(Roots{IDs: []ObjID{1, 2}})
				return g
			}(),
			want: map[ObjID]ObjID{
				1: 0,
				2: 0,
				3: 0, // no single namespace retains it
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dominators(tt.graph)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Dominators() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDominatorTree(t *testing.T) {
	g := NewMemGraph()
	g.AddObject(&Object{ID: 1, Type: "*live.Namespace", Kind: KindNamespace, Namespace: "app", Ptrs: []ObjID{2, 3}})
	g.AddObject(&Object{ID: 2, Type: "map[string]*app.Session", Kind: KindMap, Ptrs: []ObjID{4}})
	g.AddObject(&Object{ID: 3, Type: "*app.Worker", Ptrs: []ObjID{4, 5}})
	g.AddObject(&Object{ID: 4, Type: "*app.Session"})
	g.AddObject(&Object{ID: 5, Type: "*app.Buffer"})
	g.SetRoots(Roots{IDs: []ObjID{1}})

	tree := DominatorTree(Dominators(g))

	want := map[ObjID][]ObjID{
		0: {1},
		1: {2, 3, 4}, // the shared session hangs off the namespace
		2: {},
		3: {5},
		4: {},
		5: {},
	}

	for parent, wantChildren := range want {
		gotChildren := append([]ObjID{}, tree[parent]...)
		sort.Slice(gotChildren, func(i, j int) bool { return gotChildren[i] < gotChildren[j] })
		if !reflect.DeepEqual(gotChildren, wantChildren) {
			t.Errorf("children of %d = %v, want %v", parent, gotChildren, wantChildren)
		}
	}
}

func TestDominatorsAtScale(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping scale test in short mode")
	}

	// Wide registries with cross-links, roughly the shape of a long-lived
	// process that has accumulated many tracked instances.
	sizes := []int{1000, 10000, 100000}
	for _, n := range sizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			g := NewMemGraph()
			for i := 1; i <= n; i++ {
				obj := &Object{ID: ObjID(i), Type: "*app.Session"}
				if i > 1 {
					obj.Ptrs = append(obj.Ptrs, ObjID((i-2)/10+1)) // back-link to a holder
				}
				for j := 1; j <= 10; j++ {
					child := i*10 + j
					if child <= n {
						obj.Ptrs = append(obj.Ptrs, ObjID(child))
					}
				}
				g.AddObject(obj)
			}
			g.SetRoots(Roots{IDs: []ObjID{1}})

			start := time.Now()
			dom := Dominators(g)
			elapsed := time.Since(start)

			if len(dom) == 0 {
				t.Error("no dominators computed")
			}
			if dom[1] != 0 {
				t.Errorf("root dominator = %d, want the super-root", dom[1])
			}

			maxTime := time.Duration(n) * 600 * time.Microsecond
			if n >= 100000 {
				maxTime = 60 * time.Second // generous for loaded CI hosts
			}
			if elapsed > maxTime {
				t.Errorf("took %v for n=%d, expected under %v", elapsed, n, maxTime)
			}
			t.Logf("n=%d: %d dominators in %v", n, len(dom), elapsed)
		})
	}
}

func BenchmarkDominators(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			g := NewMemGraph()
			for i := 1; i <= n; i++ {
				obj := &Object{ID: ObjID(i), Type: "*app.Session"}
				if i > 1 {
					obj.Ptrs = append(obj.Ptrs, ObjID((i-1)/2+1))
				}
				if i*2 <= n {
					obj.Ptrs = append(obj.Ptrs, ObjID(i*2))
				}
				if i*2+1 <= n {
					obj.Ptrs = append(obj.Ptrs, ObjID(i*2+1))
				}
				g.AddObject(obj)
			}
			g.SetRoots(Roots{IDs: []ObjID{1}})

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Dominators(g)
			}
		})
	}
}
