// ABOUTME: Tracked-type live instance enumeration over a fresh snapshot
// ABOUTME: Forces a collection pass so finalizable instances are not misreported

package live

import (
	"fmt"
	"reflect"
	"runtime"

	"github.com/prateek/leaklens/graph"
)

// Instance is one live tracked-type object found by enumeration. The Index
// is a position in this enumeration only; it is invalidated by the next
// graph mutation and must be recomputed per user interaction, never cached.
type Instance struct {
	Index      int
	ID         graph.ObjID
	Descriptor string

	// Value is the live object itself, nil when reflection cannot surface
	// it (unexported reach path)
	Value any

	// RefTotal is the best-effort count of in-snapshot referrer edges,
	// the closest available analog of a runtime reference count
	RefTotal int
}

// Instances forces a collection pass, scans the registered roots, and
// returns every reachable instance of the tracked type in scan order,
// together with the snapshot they were found in. An empty result is a
// valid outcome, not an error.
func (s *Scanner) Instances(tracked reflect.Type) (*Snapshot, []Instance) {
	// Collect first so finalizable-but-uncollected objects do not show up
	// as live leaks
	runtime.GC()

	snap := s.Snapshot()
	reverse := snap.Reverse()

	var out []Instance
	for _, id := range snap.ScanOrder() {
		v, ok := snap.Value(id)
		if !ok || !matchesTracked(v.Type(), tracked) {
			continue
		}
		inst := Instance{
			Index:      len(out),
			ID:         id,
			Descriptor: Describe(v),
			RefTotal:   len(reverse[id]),
		}
		if v.CanInterface() {
			inst.Value = v.Interface()
		}
		out = append(out, inst)
	}
	return snap, out
}

// matchesTracked reports whether a node type is the tracked type or a
// subtype-analog of it: assignable to it, implementing it when it is an
// interface, or a pointer to it when it names a struct.
func matchesTracked(t, tracked reflect.Type) bool {
	if tracked == nil {
		return false
	}
	if t == tracked {
		return true
	}
	if tracked.Kind() == reflect.Interface {
		return t.Implements(tracked)
	}
	if tracked.Kind() != reflect.Ptr && t.Kind() == reflect.Ptr {
		return t.Elem() == tracked
	}
	return t.AssignableTo(tracked)
}

// Describe produces a best-effort one-line descriptor for a live value.
// It prefers the object's own String method and never panics.
func Describe(v reflect.Value) (desc string) {
	if !v.IsValid() {
		return "<invalid>"
	}
	fallback := fmt.Sprintf("<%s 0x%x>", v.Type(), identityAddr(v))
	defer func() {
		if recover() != nil {
			desc = fallback
		}
	}()
	if v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}
	return fallback
}

func identityAddr(v reflect.Value) uintptr {
	if key, ok := identityOf(v); ok {
		return key.ptr
	}
	return 0
}
