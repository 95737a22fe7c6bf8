package applications

import "time"

// TimelineEntry is one line of an application's append-only audit trail.
// Entries are created only as a side effect of a recognized action and are
// never edited or removed.
type TimelineEntry struct {
	Action      string    `json:"action"`
	PerformedBy string    `json:"performedBy,omitempty"` // empty for anonymous client actions
	Timestamp   time.Time `json:"timestamp"`
	Notes       string    `json:"notes,omitempty"`
}

// Recognized timeline actions.
const (
	ActionCreated           = "Application created"
	ActionUpdated           = "Application updated"
	ActionSubmitted         = "Application submitted"
	ActionResubmitted       = "Application re-submitted"
	ActionDocumentsUploaded = "Documents uploaded"
	ActionReviewStarted     = "Application under review"
	ActionApproved          = "Application approved"
	ActionRejected          = "Application rejected"
)

// actionForStatus maps a transition target to its timeline action.
func actionForStatus(to Status) string {
	switch to {
	case StatusUnderReview:
		return ActionReviewStarted
	case StatusApproved:
		return ActionApproved
	case StatusRejected:
		return ActionRejected
	default:
		return ActionUpdated
	}
}

// newEntry stamps a timeline entry with the server clock. Repos clamp the
// timestamp so it never precedes the application's last entry.
func newEntry(action, performedBy, notes string) TimelineEntry {
	return TimelineEntry{
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   time.Now().UTC(),
		Notes:       notes,
	}
}
