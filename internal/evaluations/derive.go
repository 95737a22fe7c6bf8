package evaluations

// DeriveOverall computes the overall status from the four check statuses.
// Any rejection rejects the evaluation immediately; approval requires all
// four checks approved; anything else is still pending.
func DeriveOverall(checks [4]CheckStatus) CheckStatus {
	approved := 0
	for _, s := range checks {
		switch s {
		case CheckRejected:
			return CheckRejected
		case CheckApproved:
			approved++
		}
	}
	if approved == len(checks) {
		return CheckApproved
	}
	return CheckPending
}

// CompletedSteps counts checks that have reached a decision.
func CompletedSteps(checks [4]CheckStatus) int {
	n := 0
	for _, s := range checks {
		if s != CheckPending {
			n++
		}
	}
	return n
}

// recompute refreshes the derived fields in place.
func (e *Evaluation) recompute() {
	checks := e.checkStatuses()
	e.OverallStatus = DeriveOverall(checks)
	e.CompletedSteps = CompletedSteps(checks)
}
