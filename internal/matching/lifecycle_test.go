package matching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyActionInvalidToken(t *testing.T) {
	s := &Suggestion{Status: StatusPending}

	changed, err := ApplyAction(s, "archived", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.False(t, changed)
	assert.Equal(t, StatusPending, s.Status)
}

func TestApplyActionViewed(t *testing.T) {
	now := time.Now().UTC()
	s := &Suggestion{Status: StatusPending}

	changed, err := ApplyAction(s, ActionViewed, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusViewed, s.Status)
	require.NotNil(t, s.ViewedAt)
	assert.Equal(t, now, *s.ViewedAt)
	assert.Nil(t, s.ActionedAt)
}

func TestApplyActionViewedIsIdempotent(t *testing.T) {
	first := time.Now().UTC()
	s := &Suggestion{Status: StatusViewed, ViewedAt: &first}

	changed, err := ApplyAction(s, ActionViewed, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, *s.ViewedAt, "re-viewing must not move the first-view timestamp")
}

func TestApplyActionAutoPromotesThroughViewed(t *testing.T) {
	now := time.Now().UTC()
	s := &Suggestion{Status: StatusPending}

	changed, err := ApplyAction(s, ActionClaimed, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusClaimed, s.Status)
	require.NotNil(t, s.ViewedAt)
	assert.Equal(t, now, *s.ViewedAt)
	require.NotNil(t, s.ActionedAt)
	assert.Equal(t, now, *s.ActionedAt)
}

func TestApplyActionKeepsExistingViewedAt(t *testing.T) {
	viewed := time.Now().UTC().Add(-time.Hour)
	now := time.Now().UTC()
	s := &Suggestion{Status: StatusViewed, ViewedAt: &viewed}

	changed, err := ApplyAction(s, ActionInterested, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusInterested, s.Status)
	assert.Equal(t, viewed, *s.ViewedAt)
	assert.Equal(t, now, *s.ActionedAt)
}

func TestApplyActionTerminalIsIdempotent(t *testing.T) {
	actioned := time.Now().UTC().Add(-time.Minute)
	s := &Suggestion{Status: StatusDismissed, ActionedAt: &actioned}

	changed, err := ApplyAction(s, ActionDismissed, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, actioned, *s.ActionedAt)
}

func TestApplyActionTerminalRejectsOtherActions(t *testing.T) {
	for _, status := range []string{StatusInterested, StatusDismissed, StatusClaimed} {
		s := &Suggestion{Status: status}

		_, err := ApplyAction(s, ActionViewed, time.Now())
		assert.ErrorIs(t, err, ErrAlreadyActioned, "status %s should be final", status)

		next := ActionClaimed
		if status == StatusClaimed {
			next = ActionDismissed
		}
		_, err = ApplyAction(s, next, time.Now())
		assert.ErrorIs(t, err, ErrAlreadyActioned, "status %s should be final", status)
	}
}

func TestApplyActionViewedOnViewedSuggestion(t *testing.T) {
	// viewed -> viewed through the non-pending branch is also a no-op.
	s := &Suggestion{Status: StatusViewed}

	changed, err := ApplyAction(s, ActionViewed, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}
