// ABOUTME: Auditor tying scanner, classifier, walker, and analysis together
// ABOUTME: Provides the operator-level enumerate/inspect operations

package audit

import (
	"log/slog"
	"reflect"

	"github.com/prateek/leaklens/graph"
	"github.com/prateek/leaklens/live"
	"github.com/prateek/leaklens/noise"
)

// Default traversal bounds. Chosen so a typical report fits on one screen
// while still surfacing multi-hop retention chains (object → cache map →
// namespace binding).
const (
	DefaultMaxDepth     = 3
	DefaultPerNodeLimit = 20
	DefaultMaxPaths     = 3
)

// Options configures an Auditor. Zero values take the defaults above.
type Options struct {
	// MaxDepth is the default traversal depth bound
	MaxDepth int

	// PerNodeLimit caps the referrers expanded per node
	PerNodeLimit int

	// MaxPaths bounds the retention paths reported per instance
	MaxPaths int

	// Scanner provides live graph snapshots. Default: live.NewScanner.
	Scanner *live.Scanner

	// Classifier filters noise referrers. Default: noise.Default().
	Classifier *noise.Classifier

	// SelfIdentifiers are this tool's own binding names; namespace or map
	// referrers carrying one of them as a binding are artifacts of invoking
	// the query from inside the tool and are dropped. Default: the noise
	// config's self identifier table.
	SelfIdentifiers []string

	// Logger receives diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Auditor locates live instances of a tracked type and explains what
// retains them. All operations are synchronous and read-only projections
// of host state; nothing here may propagate a fault to the host.
type Auditor struct {
	tracked    reflect.Type
	scanner    *live.Scanner
	classifier *noise.Classifier
	selfIdents []string
	maxDepth   int
	perNode    int
	maxPaths   int
	log        *slog.Logger
}

// New creates an Auditor for the given tracked type. The argument is
// either a reflect.Type or a template value of the type to audit
// (typically a nil typed pointer, e.g. (*Document)(nil)).
func New(tracked any, opts Options) *Auditor {
	t, ok := tracked.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(tracked)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.PerNodeLimit <= 0 {
		opts.PerNodeLimit = DefaultPerNodeLimit
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = DefaultMaxPaths
	}
	if opts.Scanner == nil {
		opts.Scanner = live.NewScanner(live.ScanConfig{Logger: opts.Logger})
	}
	if opts.Classifier == nil {
		opts.Classifier = noise.Default()
	}
	if len(opts.SelfIdentifiers) == 0 {
		opts.SelfIdentifiers = noise.DefaultConfig().SelfIdentifiers
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Auditor{
		tracked:    t,
		scanner:    opts.Scanner,
		classifier: opts.Classifier,
		selfIdents: opts.SelfIdentifiers,
		maxDepth:   opts.MaxDepth,
		perNode:    opts.PerNodeLimit,
		maxPaths:   opts.MaxPaths,
		log:        opts.Logger,
	}
}

// Tracked returns the audited type
func (a *Auditor) Tracked() reflect.Type {
	return a.tracked
}

// InstanceReport pairs a live instance with its filtered referrer count
type InstanceReport struct {
	live.Instance

	// NonNoiseReferrers counts referrers surviving the noise filter
	NonNoiseReferrers int
}

// LiveInstances forces a collection pass and enumerates every reachable
// instance of the tracked type. Indexes are valid only until the next
// mutation of the graph; callers re-enumerate per user interaction.
func (a *Auditor) LiveInstances() (*live.Snapshot, []InstanceReport) {
	snap, instances := a.scanner.Instances(a.tracked)

	reports := make([]InstanceReport, 0, len(instances))
	for _, inst := range instances {
		reports = append(reports, InstanceReport{
			Instance:          inst,
			NonNoiseReferrers: len(a.queryReferrers(snap, inst.ID)),
		})
	}
	a.log.Info("live instance enumeration",
		"tracked", a.tracked.String(),
		"instances", len(reports))
	return snap, reports
}

// Report is the full inspection result for one instance
type Report struct {
	Instance InstanceReport

	// Tree is the filtered, bounded backreference tree
	Tree *Node

	// Paths are the shortest retaining chains back to registered roots
	Paths []RetentionPath

	// SoleRetainers is the dominator chain of the instance: each listed
	// holder singly keeps it alive, so releasing any one frees it
	SoleRetainers []string

	// RetainedBytes estimates how much memory releasing the instance
	// would free, via dominator analysis of the snapshot
	RetainedBytes uint64
}

// RetentionPath is one retaining chain, rendered target-first
type RetentionPath struct {
	Steps []string
}

// Inspect enumerates live instances and produces a full report for the
// instance at the given index. Returns ErrNoInstances when nothing is
// live and an IndexError when the index does not address the current
// enumeration; neither changes any state.
func (a *Auditor) Inspect(index int) (*Report, error) {
	snap, reports := a.LiveInstances()
	if len(reports) == 0 {
		return nil, ErrNoInstances
	}
	if index < 0 || index >= len(reports) {
		return nil, &IndexError{Index: index, Max: len(reports) - 1}
	}

	inst := reports[index]
	a.log.Info("inspecting instance",
		"index", index,
		"descriptor", inst.Descriptor)

	report := &Report{
		Instance:      inst,
		Tree:          a.Walk(snap, inst.ID, WalkOptions{MaxDepth: a.maxDepth, PerNodeLimit: a.perNode}),
		Paths:         a.retentionPaths(snap, inst.ID),
		SoleRetainers: a.dominatorChain(snap, inst.ID),
	}
	if retained := graph.RetainedSizeSubsets(snap.Graph(), []graph.ObjID{inst.ID}); retained != nil {
		report.RetainedBytes = retained[inst.ID]
	}
	return report, nil
}

// retentionPaths renders the shortest retaining chains for an instance
func (a *Auditor) retentionPaths(snap *live.Snapshot, id graph.ObjID) []RetentionPath {
	paths := graph.PathsToRoots(snap.Graph(), id, a.maxPaths)
	out := make([]RetentionPath, 0, len(paths))
	for _, p := range paths {
		steps := make([]string, 0, len(p.IDs))
		var prev graph.ObjID
		for i, pid := range p.IDs {
			obj := snap.Object(pid)
			if obj == nil {
				continue
			}
			step := obj.Type
			if obj.Kind == graph.KindNamespace {
				step = "namespace " + quote(obj.Namespace)
			}
			// Annotate the binding under which this holder retains the
			// previous step
			if i > 0 {
				if label := obj.EdgeLabel(prev); label != "" {
					step += " [" + quote(label) + "]"
				}
			}
			steps = append(steps, step)
			prev = pid
		}
		out = append(out, RetentionPath{Steps: steps})
	}
	return out
}

// dominatorChain lists the holders that singly retain the instance. Every
// step on the dominator path keeps the instance alive on its own, which
// makes the chain the shortest list of candidate bindings to break.
func (a *Auditor) dominatorChain(snap *live.Snapshot, id graph.ObjID) []string {
	idom := graph.Dominators(snap.Graph())
	var out []string
	for _, pid := range graph.DominatorPath(idom, id) {
		if pid == id || pid == 0 {
			continue
		}
		obj := snap.Object(pid)
		if obj == nil {
			continue
		}
		step := obj.Type
		if obj.Kind == graph.KindNamespace {
			step = "namespace " + quote(obj.Namespace)
		}
		out = append(out, step)
	}
	return out
}

func quote(s string) string {
	return `"` + s + `"`
}
