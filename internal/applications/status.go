package applications

import "fmt"

// Status is an application's lifecycle state.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in-progress"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under-review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// transitions is the allowed edge set. draft behaves like pending.
var transitions = map[Status][]Status{
	StatusDraft:       {StatusInProgress},
	StatusPending:     {StatusInProgress},
	StatusInProgress:  {StatusSubmitted},
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInProgress, StatusSubmitted,
		StatusUnderReview, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s accepts no further mutations.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether from→to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyEdit returns the status after an authenticated edit of application
// data. Edits from draft/pending advance to in-progress; edits never move
// the status backward; terminal states reject the edit.
func ApplyEdit(cur Status) (Status, error) {
	if cur.IsTerminal() {
		return cur, fmt.Errorf("%w: application is %s", ErrTerminalState, cur)
	}
	switch cur {
	case StatusDraft, StatusPending:
		return StatusInProgress, nil
	default:
		return cur, nil
	}
}

// ApplySubmit returns the status after a client submit. Submitting an
// already-submitted application is a data-layer no-op but must still be
// recorded in the timeline, so the second return distinguishes it.
func ApplySubmit(cur Status) (next Status, resubmitted bool, err error) {
	if cur.IsTerminal() {
		return cur, false, fmt.Errorf("%w: application is %s", ErrTerminalState, cur)
	}
	switch cur {
	case StatusInProgress:
		return StatusSubmitted, false, nil
	case StatusSubmitted:
		return StatusSubmitted, true, nil
	default:
		return cur, false, fmt.Errorf("%w: cannot submit from %s", ErrInvalidTransition, cur)
	}
}

// ApplyTransition validates a requested transition against the graph.
func ApplyTransition(cur, to Status) error {
	if cur.IsTerminal() {
		return fmt.Errorf("%w: application is %s", ErrTerminalState, cur)
	}
	if !CanTransition(cur, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, to)
	}
	return nil
}
