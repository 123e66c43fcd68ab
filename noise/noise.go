// ABOUTME: Noise classifier deciding which referrers are diagnostic-tool noise
// ABOUTME: OR-combines independent signatures with a registry for extensions

package noise

import (
	"strings"
	"sync"

	"github.com/prateek/leaklens/graph"
)

// Signature is one independent noise predicate. Signatures are a denylist,
// not an allowlist: the set of genuine retainers is unbounded and
// domain-specific, while noise sources are few and identifiable.
type Signature interface {
	// Name identifies the signature in logs and reports
	Name() string

	// Match reports whether the candidate is noise. Implementations are
	// expected not to panic; the classifier guards them anyway.
	Match(obj *graph.Object) bool
}

// sigRegistry holds registered extension signatures
type sigRegistry struct {
	mu   sync.RWMutex
	sigs []Signature
}

// Global registry instance
var registry = &sigRegistry{}

// Register adds an extension signature picked up by every classifier
// built after the call. New noise sources can be denylisted this way
// without touching the traversal logic.
func Register(sig Signature) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.sigs = append(registry.sigs, sig)
}

func registered() []Signature {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	out := make([]Signature, len(registry.sigs))
	copy(out, registry.sigs)
	return out
}

// Classifier decides whether a candidate referrer is diagnostic-tool noise
// that should never appear in a report. It is a pure, total predicate:
// a panicking signature counts as "not noise" (fail open toward showing
// data, never toward hiding it silently).
type Classifier struct {
	sigs []Signature
}

// New builds a classifier from the built-in signatures configured by cfg
// plus any Register-ed extensions.
func New(cfg Config) *Classifier {
	cfg = cfg.withDefaults()
	sigs := []Signature{
		&frameSignature{patterns: cfg.FrameTypePatterns, namespaces: cfg.TraceNamespaces},
		&consoleSignature{patterns: cfg.ConsoleTypePatterns},
		&completerSignature{suffixes: cfg.CompleterSuffixes},
		&workerSignature{markers: cfg.WorkerMarkers},
		&selfRefSignature{identifiers: cfg.SelfIdentifiers},
		&namespaceSignature{denylist: cfg.NamespaceDenylist},
	}
	sigs = append(sigs, registered()...)
	return &Classifier{sigs: sigs}
}

// Default returns a classifier with the built-in signature tables
func Default() *Classifier {
	return New(Config{})
}

// IsNoise reports whether the candidate matches any noise signature
func (c *Classifier) IsNoise(obj *graph.Object) bool {
	return c.Matching(obj) != ""
}

// Matching returns the name of the first matching signature, or ""
func (c *Classifier) Matching(obj *graph.Object) string {
	if obj == nil {
		return ""
	}
	for _, sig := range c.sigs {
		if safeMatch(sig, obj) {
			return sig.Name()
		}
	}
	return ""
}

// safeMatch runs one signature, treating any panic as a non-match
func safeMatch(sig Signature, obj *graph.Object) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return sig.Match(obj)
}

// frameSignature matches control-flow and debugging artifacts: stack
// frames, traceback-ish type names, and namespaces declared by the
// tracing/backtrace modules.
type frameSignature struct {
	patterns   []string
	namespaces []string
}

func (s *frameSignature) Name() string { return "frame" }

func (s *frameSignature) Match(obj *graph.Object) bool {
	for _, p := range s.patterns {
		if strings.Contains(obj.Type, p) {
			return true
		}
	}
	if obj.Kind == graph.KindNamespace {
		for _, ns := range s.namespaces {
			if obj.Namespace == ns {
				return true
			}
		}
	}
	return false
}

// consoleSignature matches interactive-console internals
type consoleSignature struct {
	patterns []string
}

func (s *consoleSignature) Name() string { return "console" }

func (s *consoleSignature) Match(obj *graph.Object) bool {
	for _, p := range s.patterns {
		if strings.Contains(obj.Type, p) {
			return true
		}
	}
	return false
}

// completerSignature matches tab-completion helper classes by type-name
// suffix
type completerSignature struct {
	suffixes []string
}

func (s *completerSignature) Name() string { return "completer" }

func (s *completerSignature) Match(obj *graph.Object) bool {
	for _, suf := range s.suffixes {
		if strings.HasSuffix(obj.Type, suf) {
			return true
		}
	}
	return false
}

// workerSignature matches background interpreter-thread artifacts: worker
// objects whose type name or self-reported name carries a marker
type workerSignature struct {
	markers []string
}

func (s *workerSignature) Name() string { return "worker" }

func (s *workerSignature) Match(obj *graph.Object) bool {
	for _, m := range s.markers {
		if strings.Contains(obj.Type, m) {
			return true
		}
		if obj.Worker != "" && strings.Contains(obj.Worker, m) {
			return true
		}
	}
	return false
}

// selfRefSignature guards against the traversal's own transient containers
// appearing as retainers: containers whose preview mentions this tool's
// identifiers are dropped. Deliberately narrow and best-effort, not a
// structural guarantee.
type selfRefSignature struct {
	identifiers []string
}

func (s *selfRefSignature) Name() string { return "self" }

func (s *selfRefSignature) Match(obj *graph.Object) bool {
	if !obj.Kind.IsContainer() {
		return false
	}
	for _, ident := range s.identifiers {
		if strings.Contains(obj.Preview, ident) {
			return true
		}
	}
	return false
}

// namespaceSignature matches binding tables of interactive/REPL namespaces
type namespaceSignature struct {
	denylist []string
}

func (s *namespaceSignature) Name() string { return "namespace" }

func (s *namespaceSignature) Match(obj *graph.Object) bool {
	if obj.Kind != graph.KindNamespace {
		return false
	}
	for _, name := range s.denylist {
		if obj.Namespace == name {
			return true
		}
	}
	return false
}
