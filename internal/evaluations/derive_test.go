package evaluations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOverallAllCombinations(t *testing.T) {
	statuses := []CheckStatus{CheckPending, CheckApproved, CheckRejected}

	for _, a := range statuses {
		for _, b := range statuses {
			for _, c := range statuses {
				for _, d := range statuses {
					checks := [4]CheckStatus{a, b, c, d}

					anyRejected := false
					approved := 0
					for _, s := range checks {
						if s == CheckRejected {
							anyRejected = true
						}
						if s == CheckApproved {
							approved++
						}
					}

					want := CheckPending
					switch {
					case anyRejected:
						want = CheckRejected
					case approved == 4:
						want = CheckApproved
					}

					assert.Equal(t, want, DeriveOverall(checks), "checks %v", checks)
				}
			}
		}
	}
}

func TestCompletedSteps(t *testing.T) {
	assert.Equal(t, 0, CompletedSteps([4]CheckStatus{CheckPending, CheckPending, CheckPending, CheckPending}))
	assert.Equal(t, 2, CompletedSteps([4]CheckStatus{CheckApproved, CheckRejected, CheckPending, CheckPending}))
	assert.Equal(t, 4, CompletedSteps([4]CheckStatus{CheckApproved, CheckApproved, CheckApproved, CheckApproved}))

	// Rejected checks still count as completed.
	assert.Equal(t, 4, CompletedSteps([4]CheckStatus{CheckRejected, CheckRejected, CheckRejected, CheckRejected}))
}

func TestNewEvaluationStartsPending(t *testing.T) {
	eval := newEvaluation("eval-1", "app-1", "evaluator-1", time.Now().UTC())
	assert.Equal(t, CheckPending, eval.OverallStatus)
	assert.Equal(t, 0, eval.CompletedSteps)
	for _, s := range eval.checkStatuses() {
		assert.Equal(t, CheckPending, s)
	}
}
