// ABOUTME: Reflection-based scanner that snapshots the live object graph
// ABOUTME: Walks registered roots and materializes a graph.Graph projection

package live

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/prateek/leaklens/graph"
)

const (
	// DefaultMaxObjects bounds one scan; the live graph's size is not under
	// this tool's control, so a runaway host heap must not wedge a scan.
	DefaultMaxObjects = 262144

	// maxPreviewLen bounds the textual preview stored per object
	maxPreviewLen = 120

	// maxKeyLabelLen bounds map-key edge labels
	maxKeyLabelLen = 40
)

// identKey is the cross-snapshot identity of an object: the runtime pointer
// plus the reflect kind. Two snapshots assign different ObjIDs, but the same
// live object always produces the same identKey.
type identKey struct {
	ptr  uintptr
	kind reflect.Kind
}

// Snapshot is one momentary projection of the live object graph. It is
// valid only until the host mutates its heap; callers re-scan rather than
// cache across user interactions.
type Snapshot struct {
	g      *graph.MemGraph
	values map[graph.ObjID]reflect.Value
	keys   map[graph.ObjID]identKey
	ids    map[identKey]graph.ObjID
	order  []graph.ObjID

	revOnce sync.Once
	reverse graph.ReverseEdges
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		g:      graph.NewMemGraph(),
		values: make(map[graph.ObjID]reflect.Value),
		keys:   make(map[graph.ObjID]identKey),
		ids:    make(map[identKey]graph.ObjID),
	}
}

// Graph returns the snapshot's object graph
func (s *Snapshot) Graph() graph.Graph { return s.g }

// Object returns the snapshot object for id, or nil
func (s *Snapshot) Object(id graph.ObjID) *graph.Object { return s.g.GetObject(id) }

// Value returns the reflect value captured for id
func (s *Snapshot) Value(id graph.ObjID) (reflect.Value, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Key returns the cross-snapshot identity key for id
func (s *Snapshot) Key(id graph.ObjID) (identKey, bool) {
	k, ok := s.keys[id]
	return k, ok
}

// ScanOrder returns object IDs in the order the scan discovered them.
// The order is unspecified but stable within this snapshot.
func (s *Snapshot) ScanOrder() []graph.ObjID {
	out := make([]graph.ObjID, len(s.order))
	copy(out, s.order)
	return out
}

// Reverse returns the referrer edge map, built on first use. Safe for
// concurrent callers; the batch exporter walks one snapshot from several
// goroutines.
func (s *Snapshot) Reverse() graph.ReverseEdges {
	s.revOnce.Do(func() {
		s.reverse = graph.BuildReverseEdges(s.g)
	})
	return s.reverse
}

// Lookup resolves a live value to its snapshot ID by pointer identity.
// Returns false when the value was not reachable at scan time or has no
// reference identity (plain structs, scalars).
func (s *Snapshot) Lookup(value any) (graph.ObjID, bool) {
	v := reflect.ValueOf(value)
	key, ok := identityOf(v)
	if !ok {
		return 0, false
	}
	id, ok := s.ids[key]
	return id, ok
}

func identityOf(v reflect.Value) (identKey, bool) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return identKey{}, false
		}
		return identKey{ptr: v.Pointer(), kind: v.Kind()}, true
	default:
		return identKey{}, false
	}
}

// Scanner walks the registered roots and produces Snapshots. It holds no
// state between scans; every Snapshot call re-reads current host state.
type Scanner struct {
	maxObjects int
	log        *slog.Logger
}

// ScanConfig configures a Scanner. The zero value gives defaults.
type ScanConfig struct {
	// MaxObjects caps the number of objects recorded per scan.
	// Default: DefaultMaxObjects.
	MaxObjects int

	// Logger receives scan diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// NewScanner creates a Scanner with the given configuration
func NewScanner(cfg ScanConfig) *Scanner {
	if cfg.MaxObjects <= 0 {
		cfg.MaxObjects = DefaultMaxObjects
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scanner{maxObjects: cfg.MaxObjects, log: cfg.Logger}
}

// Snapshot scans all registered namespaces and extra roots and returns the
// resulting graph projection.
func (s *Scanner) Snapshot() *Snapshot {
	st := &scanState{
		snap:   newSnapshot(),
		max:    s.maxObjects,
		nextID: 1, // 0 is the super-root in dominator analysis
		edges:  make(map[[2]graph.ObjID]bool),
	}

	var rootIDs []graph.ObjID
	namespaces, extras := registeredRoots()
	for _, ns := range namespaces {
		if id, ok := st.namespaceNode(ns); ok {
			rootIDs = append(rootIDs, id)
		}
	}
	for _, ex := range extras {
		v := reflect.ValueOf(ex.value)
		if id, ok := st.nodeFor(v); ok {
			rootIDs = append(rootIDs, id)
		}
	}

	st.snap.g.SetRoots(graph.Roots{IDs: rootIDs})
	if st.capped {
		s.log.Warn("scan truncated at object cap",
			"max_objects", s.maxObjects,
			"roots", len(rootIDs))
	}
	s.log.Debug("live graph scanned",
		"objects", st.snap.g.NumObjects(),
		"roots", len(rootIDs))
	return st.snap
}

// scanState carries per-scan bookkeeping. It is discarded with the scan, so
// its containers can never appear in a later snapshot as phantom retainers.
type scanState struct {
	snap   *Snapshot
	max    int
	nextID graph.ObjID
	capped bool
	edges  map[[2]graph.ObjID]bool
}

func (st *scanState) alloc(v reflect.Value, key identKey, kind graph.Kind) graph.ObjID {
	id := st.nextID
	st.nextID++
	obj := &graph.Object{
		ID:      id,
		Type:    typeName(v),
		Kind:    kind,
		Size:    shallowSize(v),
		Len:     -1,
		Labels:  make(map[graph.ObjID]string),
		Preview: SafePreview(v, maxPreviewLen),
	}
	st.snap.g.AddObject(obj)
	st.snap.values[id] = v
	st.snap.keys[id] = key
	st.snap.ids[key] = id
	st.snap.order = append(st.snap.order, id)
	return id
}

func (st *scanState) addEdge(from, to graph.ObjID, label string) {
	pair := [2]graph.ObjID{from, to}
	if st.edges[pair] {
		return
	}
	st.edges[pair] = true
	obj := st.snap.g.GetObject(from)
	obj.Ptrs = append(obj.Ptrs, to)
	if label != "" {
		obj.Labels[to] = label
	}
}

// namespaceNode records a namespace root and edges to each binding
func (st *scanState) namespaceNode(ns *Namespace) (graph.ObjID, bool) {
	v := reflect.ValueOf(ns)
	key, ok := identityOf(v)
	if !ok {
		return 0, false
	}
	if id, exists := st.snap.ids[key]; exists {
		return id, true
	}
	if st.full() {
		return 0, false
	}
	id := st.alloc(v, key, graph.KindNamespace)
	obj := st.snap.g.GetObject(id)
	obj.Namespace = ns.Name()
	obj.Len = ns.Len()
	obj.Preview = fmt.Sprintf("namespace %q (%d bindings)", ns.Name(), ns.Len())

	ns.Each(func(name string, value any) {
		st.collect(id, name, reflect.ValueOf(value))
	})
	return id, true
}

// nodeFor returns the snapshot node for v, creating and expanding it when
// first seen. Only values with reference identity become nodes; structs and
// scalars are traversed in place and attributed to their holder.
func (st *scanState) nodeFor(v reflect.Value) (graph.ObjID, bool) {
	// Namespaces reachable as plain values still get namespace treatment
	if ns, ok := asNamespace(v); ok {
		return st.namespaceNode(ns)
	}

	key, ok := identityOf(v)
	if !ok {
		return 0, false
	}
	if id, exists := st.snap.ids[key]; exists {
		return id, true
	}
	if st.full() {
		return 0, false
	}

	switch v.Kind() {
	case reflect.Ptr:
		id := st.alloc(v, key, graph.KindPointer)
		st.snap.g.GetObject(id).Worker = workerName(v)
		st.collect(id, "", v.Elem())
		return id, true

	case reflect.Map:
		id := st.alloc(v, key, graph.KindMap)
		st.snap.g.GetObject(id).Len = v.Len()
		iter := v.MapRange()
		for iter.Next() {
			label := SafePreview(iter.Key(), maxKeyLabelLen)
			st.collect(id, label, iter.Key())
			st.collect(id, label, iter.Value())
		}
		return id, true

	case reflect.Slice:
		// Zero-capacity slices retain nothing and share backing addresses
		if v.Cap() == 0 {
			return 0, false
		}
		id := st.alloc(v, key, graph.KindSlice)
		st.snap.g.GetObject(id).Len = v.Len()
		for i := 0; i < v.Len(); i++ {
			st.collect(id, fmt.Sprintf("[%d]", i), v.Index(i))
		}
		return id, true

	case reflect.Chan:
		// Channel contents are not visible through reflection
		return st.alloc(v, key, graph.KindChan), true

	case reflect.Func:
		// Closure captures are not visible; the node marks that a function
		// value exists in a retaining position
		return st.alloc(v, key, graph.KindFunc), true

	default:
		return 0, false
	}
}

// collect traverses v and attributes any discovered nodes as children of
// parent. Non-identity shapes (structs, interfaces, arrays) are flattened
// in place rather than becoming nodes of their own.
func (st *scanState) collect(parent graph.ObjID, label string, v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		if id, ok := st.nodeFor(v); ok {
			st.addEdge(parent, id, label)
		}

	case reflect.Interface:
		if !v.IsNil() {
			st.collect(parent, label, v.Elem())
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			name := t.Field(i).Name
			if label != "" {
				name = label + "." + name
			}
			st.collect(parent, name, v.Field(i))
		}

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			st.collect(parent, fmt.Sprintf("%s[%d]", label, i), v.Index(i))
		}
	}
}

func (st *scanState) full() bool {
	if st.snap.g.NumObjects() >= st.max {
		st.capped = true
		return true
	}
	return false
}

func asNamespace(v reflect.Value) (*Namespace, bool) {
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, false
	}
	if !v.CanInterface() {
		return nil, false
	}
	ns, ok := v.Interface().(*Namespace)
	return ns, ok
}

// workerName returns the self-reported name of a thread-like worker object,
// or "". A worker is any pointer value exposing Name() string; the call is
// recover-guarded because it runs host code.
func workerName(v reflect.Value) (name string) {
	defer func() {
		if recover() != nil {
			name = ""
		}
	}()
	if !v.CanInterface() {
		return ""
	}
	type named interface{ Name() string }
	if n, ok := v.Interface().(named); ok {
		return n.Name()
	}
	return ""
}

func typeName(v reflect.Value) string {
	t := v.Type()
	if t.Kind() == reflect.Ptr && t.Elem().Name() != "" {
		return "*" + qualified(t.Elem())
	}
	return qualified(t)
}

func qualified(t reflect.Type) string {
	if t.PkgPath() != "" && t.Name() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func shallowSize(v reflect.Value) uint64 {
	t := v.Type()
	switch v.Kind() {
	case reflect.Ptr:
		return uint64(t.Size()) + uint64(t.Elem().Size())
	case reflect.Slice:
		return uint64(t.Size()) + uint64(v.Cap())*uint64(t.Elem().Size())
	case reflect.Map:
		per := uint64(t.Key().Size()) + uint64(t.Elem().Size())
		return uint64(t.Size()) + uint64(v.Len())*per
	default:
		return uint64(t.Size())
	}
}

// SafePreview renders a bounded textual preview of v. It never panics;
// formatting failures produce a placeholder instead, because preview
// generation must never abort a scan or a traversal.
func SafePreview(v reflect.Value, maxLen int) (out string) {
	if !v.IsValid() {
		return "<invalid>"
	}
	typeStr := v.Type().String()
	defer func() {
		if recover() != nil {
			out = fmt.Sprintf("<unpreviewable %s>", typeStr)
		}
	}()
	if !v.CanInterface() {
		return fmt.Sprintf("<%s value>", v.Type())
	}
	out = fmt.Sprintf("%v", v.Interface())
	if len(out) > maxLen {
		out = out[:maxLen-3] + "..."
	}
	return out
}
