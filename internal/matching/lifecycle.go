// internal/matching/lifecycle.go
// State machine for a suggestion's human-interaction status.
//
// pending -> viewed -> {interested, dismissed, claimed}
//
// Terminal states never move backward; a refresh may rewrite score fields but
// this machine is the only writer of status and its timestamps.

package matching

import "time"

// Actions a caller may apply to a suggestion.
const (
	ActionViewed     = "viewed"
	ActionInterested = "interested"
	ActionDismissed  = "dismissed"
	ActionClaimed    = "claimed"
)

var validActions = map[string]bool{
	ActionViewed:     true,
	ActionInterested: true,
	ActionDismissed:  true,
	ActionClaimed:    true,
}

func terminal(status string) bool {
	return status == StatusInterested || status == StatusDismissed || status == StatusClaimed
}

// ApplyAction advances the suggestion's status in place and returns whether
// anything changed. Rules:
//   - an unknown action token fails with ErrInvalidAction
//   - any state to itself is a silent no-op (re-dismissing succeeds, and
//     re-viewing never moves ViewedAt)
//   - pending -> {interested, dismissed, claimed} auto-promotes through
//     viewed, filling ViewedAt if unset
//   - a terminal state accepts no other action; that fails with
//     ErrAlreadyActioned
func ApplyAction(s *Suggestion, action string, now time.Time) (bool, error) {
	if !validActions[action] {
		return false, ErrInvalidAction
	}

	if s.Status == action {
		return false, nil
	}

	if terminal(s.Status) {
		return false, ErrAlreadyActioned
	}

	switch action {
	case ActionViewed:
		if s.Status != StatusPending {
			return false, nil
		}
		s.Status = StatusViewed
		if s.ViewedAt == nil {
			s.ViewedAt = &now
		}
		return true, nil

	default: // interested, dismissed, claimed
		if s.ViewedAt == nil {
			s.ViewedAt = &now
		}
		s.Status = action
		s.ActionedAt = &now
		return true, nil
	}
}
