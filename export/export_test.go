// ABOUTME: Tests for batch graph export and the HTML summary
// ABOUTME: Partial failures are aggregated, ordering is deterministic

package export

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prateek/leaklens/audit"
	"github.com/prateek/leaklens/live"
)

type gadget struct {
	Tag string
}

func (g *gadget) String() string { return "gadget " + g.Tag }

func exportFixture(t *testing.T, n int) (*audit.Auditor, *live.Snapshot, []audit.InstanceReport) {
	t.Helper()
	live.ResetRegistry()
	t.Cleanup(live.ResetRegistry)

	ns := live.NewNamespace("session")
	for i := 0; i < n; i++ {
		ns.Set(fmt.Sprintf("g%02d", i), &gadget{Tag: fmt.Sprintf("%d", i)})
	}
	live.Register(ns)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.New((*gadget)(nil), audit.Options{Logger: log})
	snap, reports := auditor.LiveInstances()
	require.Len(t, reports, n)
	return auditor, snap, reports
}

func TestAllExportsEveryInstance(t *testing.T) {
	auditor, snap, reports := exportFixture(t, 3)
	dir := t.TempDir()

	result := All(&DotExporter{}, auditor, snap, reports, dir)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Items, 3)
	for i, item := range result.Items {
		assert.Equal(t, i, item.Index, "items are ordered by instance index")
		assert.Equal(t, filepath.Join(dir, fmt.Sprintf("backrefs_%d.dot", i)), item.Path)
		assert.Contains(t, item.Source, "digraph backrefs")

		_, err := os.Stat(item.Path)
		assert.NoError(t, err, "artifact exists on disk")
	}
}

// flakyExporter fails for every odd instance index
type flakyExporter struct{}

func (flakyExporter) Available() error { return nil }

func (flakyExporter) Export(tree *audit.Node, path string) error {
	base := filepath.Base(path)
	if strings.Contains(base, "1") || strings.Contains(base, "3") {
		return errors.New("render failed")
	}
	return (&DotExporter{}).Export(tree, path)
}

func TestAllAggregatesPartialFailures(t *testing.T) {
	auditor, snap, reports := exportFixture(t, 4)
	dir := t.TempDir()

	result := All(flakyExporter{}, auditor, snap, reports, dir)

	assert.Len(t, result.Items, 2)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, 3, result.Errors[1].Index)
	assert.Contains(t, result.Errors[0].Message, "render failed")
}

func TestAllOnColdSnapshot(t *testing.T) {
	// A snapshot taken straight from Scanner.Snapshot has no reverse
	// edges built yet; the workers must be able to build them
	// concurrently without corrupting the map
	live.ResetRegistry()
	t.Cleanup(live.ResetRegistry)

	ns := live.NewNamespace("session")
	gadgets := make([]*gadget, 8)
	for i := range gadgets {
		gadgets[i] = &gadget{Tag: fmt.Sprintf("%d", i)}
		ns.Set(fmt.Sprintf("g%02d", i), gadgets[i])
	}
	live.Register(ns)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.New((*gadget)(nil), audit.Options{Logger: log})

	snap := live.NewScanner(live.ScanConfig{Logger: log}).Snapshot()
	var reports []audit.InstanceReport
	for i, g := range gadgets {
		id, ok := snap.Lookup(g)
		require.True(t, ok)
		reports = append(reports, audit.InstanceReport{
			Instance: live.Instance{Index: i, ID: id, Descriptor: g.String()},
		})
	}

	result := All(&DotExporter{}, auditor, snap, reports, t.TempDir())
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Items, len(gadgets))
}

func TestAllEmptyReports(t *testing.T) {
	auditor, snap, _ := exportFixture(t, 1)

	result := All(&DotExporter{}, auditor, snap, nil, t.TempDir())
	assert.Empty(t, result.Items)
	assert.Empty(t, result.Errors)
}

func TestRenderHTMLSummary(t *testing.T) {
	result := Result{
		Dir: "/tmp/scratch",
		Items: []Item{
			{Index: 0, Descriptor: "gadget 0", Path: "/tmp/scratch/backrefs_0.dot", Source: "digraph backrefs {}"},
		},
		Errors: []ItemError{
			{Index: 1, Descriptor: "gadget 1", Message: "render failed"},
		},
	}

	html, err := RenderHTML(result)
	require.NoError(t, err)

	assert.Contains(t, html, "Generated 1 graph(s) to /tmp/scratch")
	assert.Contains(t, html, "gadget 0")
	assert.Contains(t, html, "digraph backrefs {}")
	assert.Contains(t, html, "[1] gadget 1: render failed")
}

func TestDefaultScratchDir(t *testing.T) {
	dir, err := DefaultScratchDir()
	require.NoError(t, err)
	assert.Contains(t, dir, "leaklens_audit")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
