// ABOUTME: Tests for the noise classifier signatures and extension registry
// ABOUTME: Each built-in signature gets a positive and a negative case

package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prateek/leaklens/graph"
)

func TestFrameSignature(t *testing.T) {
	c := Default()

	assert.Equal(t, "frame", c.Matching(&graph.Object{Type: "runtime.Frame"}))
	assert.Equal(t, "frame", c.Matching(&graph.Object{Type: "debug.TracebackBuffer"}))
	assert.Equal(t, "frame", c.Matching(&graph.Object{
		Kind:      graph.KindNamespace,
		Namespace: "traceback",
	}))
	assert.Empty(t, c.Matching(&graph.Object{Type: "app.Document"}))
}

func TestConsoleSignature(t *testing.T) {
	c := Default()
	assert.Equal(t, "console", c.Matching(&graph.Object{Type: "repl.InteractiveConsole"}))
	assert.Empty(t, c.Matching(&graph.Object{Type: "app.Console"}),
		"bare Console is not on the denylist")
}

func TestCompleterSignature(t *testing.T) {
	c := Default()
	assert.Equal(t, "completer", c.Matching(&graph.Object{Type: "shell.PathCompleter"}))
	assert.Empty(t, c.Matching(&graph.Object{Type: "shell.CompleterFactory"}),
		"suffix match only")
}

func TestWorkerSignature(t *testing.T) {
	c := Default()
	assert.Equal(t, "worker", c.Matching(&graph.Object{Type: "host.InterpreterThread"}))
	assert.Equal(t, "worker", c.Matching(&graph.Object{
		Type:   "host.Thread",
		Worker: "Interpreter-3",
	}))
	assert.Empty(t, c.Matching(&graph.Object{Type: "host.Thread", Worker: "indexer"}))
}

func TestSelfRefSignature(t *testing.T) {
	c := Default()

	noisy := &graph.Object{
		Kind:    graph.KindSlice,
		Type:    "[]interface {}",
		Preview: "[... queryReferrers scratch ...]",
	}
	assert.Equal(t, "self", c.Matching(noisy))

	// Non-container objects never match even with the identifier present
	assert.Empty(t, c.Matching(&graph.Object{
		Kind:    graph.KindPointer,
		Preview: "queryReferrers",
	}))
}

func TestNamespaceSignature(t *testing.T) {
	c := Default()
	assert.Equal(t, "namespace", c.Matching(&graph.Object{
		Kind:      graph.KindNamespace,
		Namespace: "console",
	}))
	assert.Empty(t, c.Matching(&graph.Object{
		Kind:      graph.KindNamespace,
		Namespace: "session",
	}))
	// Denylisted name on a non-namespace object is not a match
	assert.Empty(t, c.Matching(&graph.Object{Kind: graph.KindMap, Namespace: "console"}))
}

func TestNilObjectIsNotNoise(t *testing.T) {
	assert.False(t, Default().IsNoise(nil))
}

type extensionSig struct{}

func (extensionSig) Name() string                 { return "extension" }
func (extensionSig) Match(obj *graph.Object) bool { return obj.Type == "custom.Noisy" }

type panicSig struct{}

func (panicSig) Name() string                 { return "panics" }
func (panicSig) Match(obj *graph.Object) bool { panic("bad signature") }

func TestRegisteredExtensionSignature(t *testing.T) {
	Register(extensionSig{})
	c := Default()
	assert.Equal(t, "extension", c.Matching(&graph.Object{Type: "custom.Noisy"}))
}

func TestPanickingSignatureFailsOpen(t *testing.T) {
	Register(panicSig{})
	c := Default()
	// The panicking extension must not mark anything as noise and must
	// not abort classification
	assert.Empty(t, c.Matching(&graph.Object{Type: "app.Document"}))
}

func TestCustomConfigReplacesTable(t *testing.T) {
	c := New(Config{CompleterSuffixes: []string{"Helper"}})
	assert.Equal(t, "completer", c.Matching(&graph.Object{Type: "shell.TabHelper"}))
	assert.Empty(t, c.Matching(&graph.Object{Type: "shell.PathCompleter"}),
		"overridden table drops the default suffix")
}
