// ABOUTME: Named binding tables that act as scan roots for the live graph
// ABOUTME: Provides a global namespace registry and sealed-namespace semantics

package live

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrSealed is returned when Delete is called on a sealed namespace
	ErrSealed = errors.New("live: namespace is sealed against deletion")
	// ErrNotBound is returned when a binding name is not present
	ErrNotBound = errors.New("live: name not bound in namespace")
)

// Namespace is a named, mutable binding table. It is the Go analog of a
// module-level global namespace: hosts register the long-lived tables that
// anchor their object graph, and the scanner treats each registered
// namespace as a root.
//
// A sealed namespace refuses Delete; the deletion helper falls back to
// Purge for those, mirroring hosts whose binding mechanism restricts
// direct removal.
type Namespace struct {
	name   string
	sealed bool

	mu       sync.RWMutex
	bindings map[string]any
}

// NewNamespace creates an empty namespace with the given name
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:     name,
		bindings: make(map[string]any),
	}
}

// NewSealedNamespace creates a namespace whose bindings cannot be removed
// through Delete. Purge still works.
func NewSealedNamespace(name string) *Namespace {
	ns := NewNamespace(name)
	ns.sealed = true
	return ns
}

// Name returns the declared name of the namespace
func (ns *Namespace) Name() string {
	return ns.name
}

// Sealed reports whether Delete is restricted on this namespace
func (ns *Namespace) Sealed() bool {
	return ns.sealed
}

// Set binds name to value, replacing any previous binding
func (ns *Namespace) Set(name string, value any) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.bindings[name] = value
}

// Get returns the value bound to name
func (ns *Namespace) Get(name string) (any, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	v, ok := ns.bindings[name]
	return v, ok
}

// Delete removes the binding for name. It returns ErrNotBound when the
// name is absent and ErrSealed when the namespace restricts deletion.
func (ns *Namespace) Delete(name string) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if _, ok := ns.bindings[name]; !ok {
		return ErrNotBound
	}
	if ns.sealed {
		return ErrSealed
	}
	delete(ns.bindings, name)
	return nil
}

// Purge removes the binding for name regardless of the seal. This is the
// fallback removal mechanism; prefer Delete.
func (ns *Namespace) Purge(name string) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if _, ok := ns.bindings[name]; !ok {
		return ErrNotBound
	}
	delete(ns.bindings, name)
	return nil
}

// Len returns the number of bindings
func (ns *Namespace) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.bindings)
}

// Each calls fn for every binding in sorted name order. The snapshot of
// names is taken under the lock; fn runs without it, so fn may mutate the
// namespace. Bindings removed between the snapshot and the callback are
// skipped.
func (ns *Namespace) Each(fn func(name string, value any)) {
	ns.mu.RLock()
	names := make([]string, 0, len(ns.bindings))
	for name := range ns.bindings {
		names = append(names, name)
	}
	ns.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		if v, ok := ns.Get(name); ok {
			fn(name, v)
		}
	}
}

// rootRegistry holds the namespaces and extra roots the scanner walks from.
// A global, mutex-guarded extension point populated by hosts at startup.
type rootRegistry struct {
	mu         sync.RWMutex
	namespaces []*Namespace
	extras     []extraRoot
}

type extraRoot struct {
	name  string
	value any
}

// Global registry instance
var registry = &rootRegistry{}

// Register adds a namespace to the global root set. Registering the same
// namespace twice is a no-op.
func Register(ns *Namespace) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, existing := range registry.namespaces {
		if existing == ns {
			return
		}
	}
	registry.namespaces = append(registry.namespaces, ns)
}

// Unregister removes a namespace from the global root set
func Unregister(ns *Namespace) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for i, existing := range registry.namespaces {
		if existing == ns {
			registry.namespaces = append(registry.namespaces[:i], registry.namespaces[i+1:]...)
			return
		}
	}
}

// RegisterRoot adds a named bare value to the global root set, for hosts
// whose retaining structures are not namespace-shaped (caches, pools).
func RegisterRoot(name string, value any) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.extras = append(registry.extras, extraRoot{name: name, value: value})
}

// Namespaces returns the currently registered namespaces
func Namespaces() []*Namespace {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]*Namespace, len(registry.namespaces))
	copy(out, registry.namespaces)
	return out
}

// ResetRegistry drops all registered namespaces and extra roots.
// Intended for tests; hosts normally register once at startup.
func ResetRegistry() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.namespaces = nil
	registry.extras = nil
}

func registeredRoots() ([]*Namespace, []extraRoot) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	nss := make([]*Namespace, len(registry.namespaces))
	copy(nss, registry.namespaces)
	extras := make([]extraRoot, len(registry.extras))
	copy(extras, registry.extras)
	return nss, extras
}
