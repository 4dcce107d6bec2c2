package dto

import (
	"time"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/email"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/entity"
)

type OutcomeKind string

const (
	OutcomeFixed   OutcomeKind = "fixed"
	OutcomeInvalid OutcomeKind = "invalid"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

const (
	ReasonEmpty               = "empty"
	ReasonFixedEmailExists    = "fixed email already exists"
	ReasonFixedEmailElsewhere = "fixed email already exists in another table"
	ReasonRowGone             = "row no longer exists"
	ReasonUnexpectedError     = "unexpected error"
)

// Outcome is the classification of one identity row during a reconciliation pass.
type Outcome struct {
	Kind   OutcomeKind   `json:"kind"`
	Table  entity.Table  `json:"table"`
	ID     uint64        `json:"id"`
	Name   string        `json:"name"`
	Email  *string       `json:"email"`
	Old    string        `json:"old,omitempty"`
	New    string        `json:"new,omitempty"`
	Reason string        `json:"reason,omitempty"`
	Errors []email.Issue `json:"errors,omitempty"`
}

// Report aggregates the outcomes of one pass. It is never persisted.
type Report struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Fixed      []Outcome `json:"fixed"`
	Invalid    []Outcome `json:"invalid"`
	Skipped    []Outcome `json:"skipped"`
	Failed     []Outcome `json:"failed"`
}

func NewReport(runID string, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: startedAt,
		Fixed:     []Outcome{},
		Invalid:   []Outcome{},
		Skipped:   []Outcome{},
		Failed:    []Outcome{},
	}
}

func (r *Report) Add(o Outcome) {
	switch o.Kind {
	case OutcomeFixed:
		r.Fixed = append(r.Fixed, o)
	case OutcomeInvalid:
		r.Invalid = append(r.Invalid, o)
	case OutcomeSkipped:
		r.Skipped = append(r.Skipped, o)
	case OutcomeFailed:
		r.Failed = append(r.Failed, o)
	}
}
