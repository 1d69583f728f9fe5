package domain

// BranchEvaluation records one branch test performed by the router.
type BranchEvaluation struct {
	Label   string `json:"label"`
	Matched bool   `json:"matched"`
}

// RouteResult is the outcome of routing a fact through a branch group.
type RouteResult struct {
	// Matched is false when the else actions were selected.
	Matched bool   `json:"matched"`
	Label   string `json:"label,omitempty"`
	// Index of the matching branch, or -1.
	Index   int      `json:"index"`
	Actions []Action `json:"actions"`

	Evaluations []BranchEvaluation `json:"evaluations,omitempty"`
}

// CheckStatus is the outcome of a single preflight check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// TraceEntry describes the result of one preflight check.
type TraceEntry struct {
	Check  string      `json:"check"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail"`
}

// Report is the advisory result of a preflight run.
type Report struct {
	Issues []string     `json:"issues"`
	Trace  []TraceEntry `json:"trace"`
	// Ready is true when no check failed. Warnings do not block.
	Ready bool `json:"ready"`
}

// Warnings returns the details of every trace entry with StatusWarn.
func (r *Report) Warnings() []string {
	var out []string
	for _, t := range r.Trace {
		if t.Status == StatusWarn {
			out = append(out, t.Detail)
		}
	}
	return out
}
