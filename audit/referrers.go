// ABOUTME: Filtered referrer query over one snapshot
// ABOUTME: Wraps the reverse-edge primitive and applies the noise classifier

package audit

import (
	"strings"

	"github.com/prateek/leaklens/graph"
	"github.com/prateek/leaklens/live"
)

// queryReferrers returns the non-noise referrers of id within snap, in the
// snapshot's stable enumeration order. Any failure while enumerating is
// contained here and yields an empty result; partial data always beats a
// failed report.
func (a *Auditor) queryReferrers(snap *live.Snapshot, id graph.ObjID) (refs []graph.ObjID) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("referrer enumeration failed", "id", id, "panic", r)
			refs = nil
		}
	}()

	for _, rid := range snap.Reverse()[id] {
		obj := snap.Object(rid)
		if obj == nil {
			continue
		}
		if name := a.classifier.Matching(obj); name != "" {
			a.log.Debug("referrer filtered", "id", rid, "signature", name, "type", obj.Type)
			continue
		}
		if a.isSelfBindings(obj) {
			continue
		}
		refs = append(refs, rid)
	}
	return refs
}

// isSelfBindings drops namespace or mapping referrers that carry this
// tool's own bindings: an artifact of invoking the query primitive from
// inside the tool, not a genuine retention path.
func (a *Auditor) isSelfBindings(obj *graph.Object) bool {
	if obj.Kind != graph.KindNamespace && obj.Kind != graph.KindMap {
		return false
	}
	for _, label := range obj.Labels {
		for _, ident := range a.selfIdents {
			if strings.Contains(label, ident) {
				return true
			}
		}
	}
	return false
}
