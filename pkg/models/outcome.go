package models

import "time"

type Status int

const (
	StatusSkipped Status = iota
	StatusUpdated
	StatusDeleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusUpdated:
		return "updated"
	case StatusDeleted:
		return "deleted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result for one document (or one orphaned local file).
type Outcome struct {
	FileID string
	Path   string
	Status Status
	// Draft is the new publish state for Updated/Skipped and the prior one for Deleted.
	Draft bool
	Err   error
}

// Publishable reports whether this outcome affects the public site.
func (o Outcome) Publishable() bool {
	switch o.Status {
	case StatusUpdated, StatusDeleted:
		return !o.Draft
	default:
		return false
	}
}

// ChangeSignal is true iff a published article was written or a previously
// published article was removed. Draft-only churn never sets it.
func ChangeSignal(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Publishable() {
			return true
		}
	}
	return false
}

// RunReport summarizes one sync run.
type RunReport struct {
	Listed       int
	Outcomes     []Outcome
	Duration     time.Duration
	ChangeSignal bool
}

func (r *RunReport) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// PublicUpdated counts Updated outcomes that are not drafts.
func (r *RunReport) PublicUpdated() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusUpdated && !o.Draft {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in report order.
func (r *RunReport) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

func (r *RunReport) Failed() bool {
	return r.Count(StatusFailed) > 0
}
