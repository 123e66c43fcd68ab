// ABOUTME: Batch export of backreference graphs for all live instances
// ABOUTME: Bounded parallelism with per-instance errors aggregated, not fatal

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/prateek/leaklens/audit"
	"github.com/prateek/leaklens/live"
)

// Graph-export traversal bounds. Deeper than the on-screen walk because a
// rendered diagram stays readable past one screenful.
const (
	ExportMaxDepth     = 4
	exportConcurrency  = 4
	scratchDirPattern  = "leaklens_audit"
	artifactNameFormat = "backrefs_%d.dot"
)

// Item is one successfully exported graph
type Item struct {
	Index      int
	Descriptor string
	Path       string

	// Source is the DOT text, inlined into the HTML summary
	Source string
}

// ItemError is one failed instance in a batch. Partial success is the
// normal case for "export all"; errors are reported in aggregate.
type ItemError struct {
	Index      int
	Descriptor string
	Message    string
}

// Result is the outcome of one batch export
type Result struct {
	Dir    string
	Items  []Item
	Errors []ItemError
}

// DefaultScratchDir returns the scratch directory artifacts are written
// to, creating it if needed.
func DefaultScratchDir() (string, error) {
	dir := filepath.Join(os.TempDir(), scratchDirPattern)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("export: create scratch dir: %w", err)
	}
	return dir, nil
}

// All exports one graph per live instance into dir, named
// deterministically by instance index. Per-instance failures are
// collected, never propagated; the walk for each instance reuses the
// snapshot the enumeration came from. Exports run off the calling
// thread's critical path in a bounded group.
func All(exporter Exporter, auditor *audit.Auditor, snap *live.Snapshot, reports []audit.InstanceReport, dir string) Result {
	result := Result{Dir: dir}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(exportConcurrency)

	for _, r := range reports {
		r := r
		g.Go(func() error {
			tree := auditor.Walk(snap, r.ID, audit.WalkOptions{MaxDepth: ExportMaxDepth})
			path := filepath.Join(dir, fmt.Sprintf(artifactNameFormat, r.Index))

			err := exporter.Export(tree, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, ItemError{
					Index:      r.Index,
					Descriptor: r.Descriptor,
					Message:    err.Error(),
				})
				return nil
			}
			source := ""
			if data, rerr := os.ReadFile(path); rerr == nil {
				source = string(data)
			}
			result.Items = append(result.Items, Item{
				Index:      r.Index,
				Descriptor: r.Descriptor,
				Path:       path,
				Source:     source,
			})
			return nil
		})
	}
	// Workers never return errors; failures land in result.Errors
	_ = g.Wait()

	// Order by index so the summary is stable regardless of worker
	// completion order
	sort.Slice(result.Items, func(i, j int) bool { return result.Items[i].Index < result.Items[j].Index })
	sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Index < result.Errors[j].Index })
	return result
}
