package applications

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStatuses() []Status {
	return []Status{
		StatusDraft, StatusPending, StatusInProgress,
		StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected,
	}
}

func TestTransitionGraph(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusDraft, StatusInProgress}:      true,
		{StatusPending, StatusInProgress}:    true,
		{StatusInProgress, StatusSubmitted}:  true,
		{StatusSubmitted, StatusUnderReview}: true,
		{StatusUnderReview, StatusApproved}:  true,
		{StatusUnderReview, StatusRejected}:  true,
	}

	for _, from := range allStatuses() {
		for _, to := range allStatuses() {
			got := CanTransition(from, to)
			assert.Equal(t, allowed[[2]Status{from, to}], got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []Status{StatusApproved, StatusRejected} {
		_, err := ApplyEdit(terminal)
		assert.ErrorIs(t, err, ErrTerminalState, "edit from %s", terminal)

		_, _, err = ApplySubmit(terminal)
		assert.ErrorIs(t, err, ErrTerminalState, "submit from %s", terminal)

		for _, to := range allStatuses() {
			err := ApplyTransition(terminal, to)
			assert.ErrorIs(t, err, ErrTerminalState, "%s -> %s", terminal, to)
		}
	}
}

func TestApplyEdit(t *testing.T) {
	next, err := ApplyEdit(StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, next)

	next, err = ApplyEdit(StatusPending)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, next)

	// Edits never move the status backward.
	for _, cur := range []Status{StatusInProgress, StatusSubmitted, StatusUnderReview} {
		next, err = ApplyEdit(cur)
		require.NoError(t, err)
		assert.Equal(t, cur, next)
	}
}

func TestApplySubmit(t *testing.T) {
	next, resubmitted, err := ApplySubmit(StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, next)
	assert.False(t, resubmitted)

	next, resubmitted, err = ApplySubmit(StatusSubmitted)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, next)
	assert.True(t, resubmitted)

	for _, cur := range []Status{StatusDraft, StatusPending, StatusUnderReview} {
		_, _, err := ApplySubmit(cur)
		assert.True(t, errors.Is(err, ErrInvalidTransition), "submit from %s: %v", cur, err)
	}
}
