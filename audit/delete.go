// ABOUTME: Reference deletion helper for probing suspected leak roots
// ABOUTME: Removes a named binding with fallback and triggers a collection pass

package audit

import (
	"fmt"
	"runtime"

	"github.com/prateek/leaklens/live"
)

// DeleteOutcome classifies the result of a deletion attempt
type DeleteOutcome int

const (
	// Deleted means the primary removal mechanism succeeded
	Deleted DeleteOutcome = iota
	// DeletedFallback means the namespace restricted direct deletion and
	// the fallback removal succeeded
	DeletedFallback
	// NotFound means the name was not bound. An expected outcome when
	// probing a hypothesis, not an error.
	NotFound
	// Failed means both removal mechanisms failed; Err carries the cause
	Failed
)

// String returns the human-readable name of the outcome
func (o DeleteOutcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case DeletedFallback:
		return "deleted (fallback)"
	case NotFound:
		return "not found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeleteResult reports one deletion attempt. Failures are captured here,
// never propagated: this helper is an interactive diagnostic aid, not a
// critical-path operation.
type DeleteResult struct {
	Outcome   DeleteOutcome
	Namespace string
	Name      string
	Err       error
}

// Message renders the operator-facing outcome line
func (r DeleteResult) Message() string {
	switch r.Outcome {
	case Deleted:
		return fmt.Sprintf("Deleted %s.%s", r.Namespace, r.Name)
	case DeletedFallback:
		return fmt.Sprintf("Deleted %s.%s (fallback removal)", r.Namespace, r.Name)
	case NotFound:
		return fmt.Sprintf("%s.%s not found.", r.Namespace, r.Name)
	default:
		return fmt.Sprintf("Failed to delete %s.%s: %v", r.Namespace, r.Name, r.Err)
	}
}

// DeleteBinding removes the named binding from the namespace so an
// operator can test whether a suspected root was the actual leak. The
// primary removal mechanism is tried first, then the fallback for sealed
// namespaces. A collection pass runs afterward in every case, so the next
// enumeration reflects the change.
func (a *Auditor) DeleteBinding(ns *live.Namespace, name string) DeleteResult {
	defer runtime.GC()

	result := DeleteResult{Namespace: ns.Name(), Name: name}
	if _, bound := ns.Get(name); !bound {
		result.Outcome = NotFound
		a.log.Info("binding not found", "namespace", ns.Name(), "name", name)
		return result
	}

	if err := ns.Delete(name); err == nil {
		result.Outcome = Deleted
		a.log.Info("binding deleted", "namespace", ns.Name(), "name", name)
		return result
	}

	if err := ns.Purge(name); err != nil {
		result.Outcome = Failed
		result.Err = err
		a.log.Error("binding deletion failed",
			"namespace", ns.Name(), "name", name, "error", err)
		return result
	}

	result.Outcome = DeletedFallback
	a.log.Info("binding deleted via fallback", "namespace", ns.Name(), "name", name)
	return result
}
