package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// ChangeMode selects what happens to a change request that cannot be resolved or applied.
type ChangeMode string

const (
	// ChangeModeStrict aborts the structural-change phase on the first invalid request.
	ChangeModeStrict ChangeMode = "strict"
	// ChangeModeSilent logs invalid requests and applies the rest of the batch.
	ChangeModeSilent ChangeMode = "silent"
)

// ValidChangeModes is the set of recognized change modes.
var ValidChangeModes = map[ChangeMode]bool{"": true, ChangeModeStrict: true, ChangeModeSilent: true}

// Scope tells the reconciler which coupled models are currently part of the simulated tree.
type Scope interface {
	IsLive(ctx CoupledModel) bool
}

// ScopeFunc adapts a function to Scope.
type ScopeFunc func(ctx CoupledModel) bool

func (f ScopeFunc) IsLive(ctx CoupledModel) bool { return f(ctx) }

// ChangeOutcome records what happened to one request of a batch.
type ChangeOutcome struct {
	Request ChangeRequest
	// Context is the resolved context, nil when resolution failed.
	Context CoupledModel
	Applied bool
	Reason  string
}

// ReconcileReport describes one structural-change phase.
type ReconcileReport struct {
	Outcomes []ChangeOutcome
	// Contexts lists every context that received requests, in dispatch order, without duplicates.
	Contexts []CoupledModel
}

// Applied returns the number of requests that took effect.
func (r *ReconcileReport) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Applied {
			n++
		}
	}
	return n
}

// Reconciler orders a batch of change requests, resolves their contexts and
// dispatches them to each context's ApplyChanges. It never mutates models itself.
type Reconciler struct {
	mode ChangeMode
}

// NewReconciler creates a reconciler. An empty mode means strict.
func NewReconciler(mode ChangeMode) *Reconciler {
	if !ValidChangeModes[mode] {
		panic(fmt.Sprintf("Reconciler: unknown change mode %q", mode))
	}
	if mode == "" {
		mode = ChangeModeStrict
	}
	return &Reconciler{mode: mode}
}

// Mode returns the configured change mode.
func (r *Reconciler) Mode() ChangeMode {
	return r.mode
}

type resolvedChange struct {
	req ChangeRequest
	ctx CoupledModel
}

// SortChanges returns a copy of batch ordered by kind priority, keeping submission
// order among requests of equal priority.
func SortChanges(batch []ChangeRequest) []ChangeRequest {
	sorted := append([]ChangeRequest(nil), batch...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Kind.Priority() < sorted[j].Kind.Priority()
	})
	return sorted
}

// Reconcile applies batch within scope. In strict mode the first unresolvable
// request aborts the phase before anything is applied, and the first failed
// dispatch stops the remaining groups. Strict mode does not roll back: groups
// dispatched before the failure, and the requests of the failing group that
// ApplyChanges accepted, stay applied. In silent mode failures are logged and skipped.
func (r *Reconciler) Reconcile(batch []ChangeRequest, scope Scope) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	if len(batch) == 0 {
		return report, nil
	}

	resolved, err := r.resolve(SortChanges(batch), scope, report)
	if err != nil {
		return report, err
	}

	seen := make(map[CoupledModel]bool)
	for start := 0; start < len(resolved); {
		end := start + 1
		for end < len(resolved) &&
			resolved[end].ctx == resolved[start].ctx &&
			resolved[end].req.Kind.Priority() == resolved[start].req.Kind.Priority() {
			end++
		}
		group := resolved[start:end]
		ctx := group[0].ctx
		if !seen[ctx] {
			seen[ctx] = true
			report.Contexts = append(report.Contexts, ctx)
		}

		reqs := make([]ChangeRequest, len(group))
		for i, rc := range group {
			reqs[i] = rc.req
		}
		dispatchErr := ctx.ApplyChanges(reqs)
		reasons := failedRequests(reqs, dispatchErr)
		for i, rc := range group {
			outcome := ChangeOutcome{Request: rc.req, Context: ctx, Applied: true}
			if reasons[i] != nil {
				outcome.Applied = false
				outcome.Reason = *reasons[i]
			}
			report.Outcomes = append(report.Outcomes, outcome)
		}
		if dispatchErr != nil {
			if r.mode == ChangeModeStrict {
				return report, fmt.Errorf("applying changes to %s: %w", Path(ctx), dispatchErr)
			}
			logrus.Warnf("skipping failed changes in %s: %v", Path(ctx), dispatchErr)
		}
		start = end
	}
	return report, nil
}

// resolve assigns a context to every request of the sorted batch. A request
// without a declared context inherits the context of a model-add for one of its
// targets earlier in the batch.
func (r *Reconciler) resolve(sorted []ChangeRequest, scope Scope, report *ReconcileReport) ([]resolvedChange, error) {
	pendingAdds := make(map[string]CoupledModel)
	added := make(map[Model]bool)
	live := func(ctx CoupledModel) bool {
		return scope.IsLive(ctx) || added[ctx]
	}

	resolved := make([]resolvedChange, 0, len(sorted))
	for _, req := range sorted {
		ctx, reason := req.Context, ""
		if err := comparableRequest(req); err != nil {
			reason = err.Error()
			ctx = nil
		} else if ctx == nil {
			for _, name := range req.Targets() {
				if pending, ok := pendingAdds[name]; ok {
					ctx = pending
					break
				}
			}
			if ctx == nil {
				reason = "no context declared and no pending model-add for its targets"
			}
		}
		if ctx != nil && !live(ctx) {
			reason = fmt.Sprintf("context %s is not part of the simulation", Path(ctx))
			ctx = nil
		}
		if ctx == nil {
			rejected := rejectChange(req, "%s", reason)
			if r.mode == ChangeModeStrict {
				return nil, rejected
			}
			logrus.Warnf("discarding change request: %v", rejected)
			report.Outcomes = append(report.Outcomes, ChangeOutcome{Request: req, Reason: reason})
			continue
		}
		if req.Kind == ChangeModelAdd && req.Model != nil {
			if _, dup := pendingAdds[req.Name]; !dup {
				pendingAdds[req.Name] = ctx
			}
			added[req.Model] = true
		}
		resolved = append(resolved, resolvedChange{req: req, ctx: ctx})
	}
	return resolved, nil
}

// comparableRequest rejects requests whose context or added model cannot key
// the kernel's tables.
func comparableRequest(req ChangeRequest) error {
	if req.Context != nil {
		if err := checkComparable(req.Context); err != nil {
			return err
		}
	}
	if req.Kind == ChangeModelAdd && req.Model != nil {
		return checkComparable(req.Model)
	}
	return nil
}

// failedRequests maps the ChangeRequestErrors inside err onto positions of reqs.
// An error without a usable Index takes the first unclaimed request with the same description.
func failedRequests(reqs []ChangeRequest, err error) []*string {
	reasons := make([]*string, len(reqs))
	claim := func(cre *ChangeRequestError) {
		reason := cre.Reason
		if cre.Index >= 0 && cre.Index < len(reqs) && reasons[cre.Index] == nil &&
			reqs[cre.Index].String() == cre.Request.String() {
			reasons[cre.Index] = &reason
			return
		}
		for i, req := range reqs {
			if reasons[i] == nil && req.String() == cre.Request.String() {
				reasons[i] = &reason
				return
			}
		}
	}
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case nil:
		case *ChangeRequestError:
			claim(v)
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
		default:
			var cre *ChangeRequestError
			if errors.As(e, &cre) {
				claim(cre)
			}
		}
	}
	walk(err)
	return reasons
}
