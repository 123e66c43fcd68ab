// ABOUTME: Presentation-layer contract between the auditor and the host UI
// ABOUTME: Provides logging and console-backed default implementations

package interact

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Prompt errors.
var (
	// ErrPromptCancelled is returned when the operator dismisses a prompt
	ErrPromptCancelled = errors.New("interact: prompt cancelled")

	// ErrPromptUnavailable is returned by non-interactive implementations
	ErrPromptUnavailable = errors.New("interact: prompting not available")
)

// MessageLevel distinguishes informational from error message boxes
type MessageLevel int

const (
	// LevelInfo is an informational message
	LevelInfo MessageLevel = iota
	// LevelError is a user-visible error message
	LevelError
)

// Interactor is everything the audit commands need from the host UI:
// ask the user for an index, and display text or HTML. The host's real
// menu/dialog machinery stays outside this module.
type Interactor interface {
	// PromptIndex asks the operator for an instance index in 0..maxIndex.
	// Implementations return the raw parsed value without range
	// validation; the commands validate and surface errors uniformly.
	PromptIndex(title, prompt string, maxIndex int) (int, error)

	// ShowMessage displays a short modal-style message
	ShowMessage(level MessageLevel, title, text string)

	// ShowText displays a multi-line plain-text report
	ShowText(title, text string)

	// ShowHTML displays an HTML report
	ShowHTML(title, html string)
}

// LogInteractor routes all output to a structured logger. It is the
// default for embedded use where no interactive surface exists; prompts
// report ErrPromptUnavailable.
type LogInteractor struct {
	Log *slog.Logger
}

// NewLogInteractor creates a LogInteractor; a nil logger means slog.Default()
func NewLogInteractor(log *slog.Logger) *LogInteractor {
	if log == nil {
		log = slog.Default()
	}
	return &LogInteractor{Log: log}
}

// PromptIndex always fails: there is nobody to ask
func (li *LogInteractor) PromptIndex(title, prompt string, maxIndex int) (int, error) {
	return 0, ErrPromptUnavailable
}

// ShowMessage logs the message at a level matching its severity
func (li *LogInteractor) ShowMessage(level MessageLevel, title, text string) {
	if level == LevelError {
		li.Log.Error(text, "title", title)
		return
	}
	li.Log.Info(text, "title", title)
}

// ShowText logs each line of the report
func (li *LogInteractor) ShowText(title, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		li.Log.Info(line, "title", title)
	}
}

// ShowHTML logs that a report was produced; embedded hosts with no HTML
// surface still learn the report exists
func (li *LogInteractor) ShowHTML(title, html string) {
	li.Log.Info("html report produced", "title", title, "bytes", len(html))
}

// ConsoleInteractor prompts and prints on a terminal-style reader/writer
// pair. Used by the demo CLI and useful in tests.
type ConsoleInteractor struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleInteractor creates a ConsoleInteractor over in/out
func NewConsoleInteractor(in io.Reader, out io.Writer) *ConsoleInteractor {
	return &ConsoleInteractor{in: bufio.NewReader(in), out: out}
}

// PromptIndex writes the prompt and parses one line as an integer.
// An empty line cancels.
func (ci *ConsoleInteractor) PromptIndex(title, prompt string, maxIndex int) (int, error) {
	fmt.Fprintf(ci.out, "%s\n%s ", title, prompt)
	line, err := ci.in.ReadString('\n')
	if err != nil && line == "" {
		return 0, ErrPromptCancelled
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, ErrPromptCancelled
	}
	idx, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("interact: not an integer: %q", line)
	}
	return idx, nil
}

// ShowMessage prints a bracketed one-liner
func (ci *ConsoleInteractor) ShowMessage(level MessageLevel, title, text string) {
	tag := "INFO"
	if level == LevelError {
		tag = "ERROR"
	}
	fmt.Fprintf(ci.out, "[%s] %s: %s\n", tag, title, text)
}

// ShowText prints the report under a header bar
func (ci *ConsoleInteractor) ShowText(title, text string) {
	bar := strings.Repeat("-", max(8, len(title)))
	fmt.Fprintf(ci.out, "\n%s\n%s\n%s", title, bar, text)
}

// ShowHTML prints the raw HTML; terminal hosts have nothing better
func (ci *ConsoleInteractor) ShowHTML(title, html string) {
	ci.ShowText(title, html+"\n")
}
