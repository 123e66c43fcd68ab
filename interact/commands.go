// ABOUTME: Operator commands: list live instances, inspect by index, export graphs
// ABOUTME: Validates user input, keeps every failure user-visible and non-fatal

package interact

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/prateek/leaklens/audit"
	"github.com/prateek/leaklens/export"
)

const commandTitle = "Leak Audit"

// Commands wires the auditor to a host UI. Every command runs to
// completion on the calling thread and never propagates a fault to the
// host: user-input errors become modal messages, collaborator
// unavailability becomes an informational message.
type Commands struct {
	auditor  *audit.Auditor
	ui       Interactor
	exporter export.Exporter
	scratch  string
	log      *slog.Logger
}

// Config configures Commands. Auditor and UI are required; a nil Exporter
// means the graph-export collaborator is unavailable, which ExportGraphs
// reports as a non-fatal message.
type Config struct {
	Auditor    *audit.Auditor
	UI         Interactor
	Exporter   export.Exporter
	ScratchDir string
	Logger     *slog.Logger
}

// NewCommands creates the command set
func NewCommands(cfg Config) *Commands {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Commands{
		auditor:  cfg.Auditor,
		ui:       cfg.UI,
		exporter: cfg.Exporter,
		scratch:  cfg.ScratchDir,
		log:      cfg.Logger,
	}
}

// session returns a logger carrying a per-invocation correlation id, so
// the multi-line reports of one command can be grepped back together
func (c *Commands) session(command string) *slog.Logger {
	return c.log.With("command", command, "session", uuid.NewString())
}

// ListLive prints the ordered listing of live tracked instances
func (c *Commands) ListLive() {
	log := c.session("list-live")

	_, reports := c.auditor.LiveInstances()
	log.Info("listing complete", "instances", len(reports))

	text := audit.FormatListing(reports)
	if len(reports) > 0 {
		text += "Tip: use Inspect Instance by Index to drill into referrers.\n"
	}
	c.ui.ShowText(commandTitle+": Live Instances", text)
}

// InspectByIndex prompts for an instance index, validates it, and renders
// the filtered backreference tree for that instance. Invalid input shows
// a user-visible error and aborts without side effects.
func (c *Commands) InspectByIndex() {
	log := c.session("inspect")

	_, reports := c.auditor.LiveInstances()
	if len(reports) == 0 {
		c.ui.ShowMessage(LevelInfo, commandTitle, "No live instances to inspect.")
		return
	}

	idx, ok := c.promptIndex(len(reports) - 1)
	if !ok {
		return
	}

	report, err := c.auditor.Inspect(idx)
	switch {
	case errors.Is(err, audit.ErrNoInstances):
		// The graph mutated between the prompt and the inspection
		c.ui.ShowMessage(LevelInfo, commandTitle, "No live instances to inspect.")
		return
	case errors.Is(err, audit.ErrIndexOutOfRange):
		c.ui.ShowMessage(LevelError, commandTitle,
			"Instance list changed; the index no longer addresses a live instance.")
		return
	case err != nil:
		log.Error("inspection failed", "index", idx, "error", err)
		c.ui.ShowMessage(LevelError, commandTitle, fmt.Sprintf("Inspection failed: %v", err))
		return
	}

	log.Info("inspection complete", "index", idx)
	c.ui.ShowText(fmt.Sprintf("%s: Inspecting [%d]", commandTitle, idx), audit.FormatReport(report))
}

// ReportDeletion surfaces a deletion outcome through the UI. The heavy
// lifting is audit.DeleteBinding; this only keeps the outcome visible.
func (c *Commands) ReportDeletion(result audit.DeleteResult) {
	level := LevelInfo
	if result.Outcome == audit.Failed {
		level = LevelError
	}
	c.ui.ShowMessage(level, commandTitle, result.Message())
}

// ExportGraphs exports one backreference graph per live instance into the
// scratch directory and shows an HTML summary. Missing collaborator and
// per-instance failures are reported, never raised.
func (c *Commands) ExportGraphs() {
	log := c.session("export-graphs")

	if c.exporter == nil {
		c.ui.ShowMessage(LevelInfo, commandTitle, "Graph exporter not available.")
		return
	}
	if err := c.exporter.Available(); err != nil {
		c.ui.ShowMessage(LevelInfo, commandTitle,
			fmt.Sprintf("Graph exporter not available: %v", err))
		return
	}

	snap, reports := c.auditor.LiveInstances()
	if len(reports) == 0 {
		c.ui.ShowMessage(LevelInfo, commandTitle, "No live instances to graph.")
		return
	}

	dir := c.scratch
	if dir == "" {
		var err error
		dir, err = export.DefaultScratchDir()
		if err != nil {
			c.ui.ShowMessage(LevelError, commandTitle, fmt.Sprintf("Export failed: %v", err))
			return
		}
	}

	result := export.All(c.exporter, c.auditor, snap, reports, dir)
	log.Info("export complete",
		"exported", len(result.Items),
		"errors", len(result.Errors),
		"dir", result.Dir)

	html, err := export.RenderHTML(result)
	if err != nil {
		c.ui.ShowMessage(LevelError, commandTitle, fmt.Sprintf("Summary rendering failed: %v", err))
		return
	}
	c.ui.ShowHTML(commandTitle+": Backreference Graphs (All Instances)", html)
}

// promptIndex asks for an index and validates it against 0..maxIndex.
// Cancellation aborts silently; a UI with no prompt surface gets its own
// informational message; anything else invalid shows an error message.
// Returns ok=false when the command should abort.
func (c *Commands) promptIndex(maxIndex int) (int, bool) {
	prompt := fmt.Sprintf("Enter instance index (0..%d):", maxIndex)
	idx, err := c.ui.PromptIndex(commandTitle+": Inspect Instance", prompt, maxIndex)
	if errors.Is(err, ErrPromptCancelled) {
		return 0, false
	}
	if errors.Is(err, ErrPromptUnavailable) {
		c.ui.ShowMessage(LevelInfo, commandTitle,
			"Interactive prompting is not available in this host; call Inspect directly with an index.")
		return 0, false
	}
	if err != nil || idx < 0 || idx > maxIndex {
		c.ui.ShowMessage(LevelError, commandTitle,
			fmt.Sprintf("Invalid index. Expected integer in range 0..%d.", maxIndex))
		return 0, false
	}
	return idx, true
}
