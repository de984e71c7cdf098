// Package status defines the conversation status state machine.
package status

import "errors"

// Status represents the lifecycle status of a conversation.
type Status string

const (
	// StatusOpen is the default working state for agent-handled conversations.
	StatusOpen Status = "open"
	// StatusResolved marks a conversation as finished; it can be reopened.
	StatusResolved Status = "resolved"
	// StatusPending is the initial state for bot-handled inboxes until a bot
	// or agent hands the conversation over.
	StatusPending Status = "pending"
)

// ErrInvalidStatus is returned when a status string is not one of the known
// values.
var ErrInvalidStatus = errors.New("invalid conversation status")

// ErrInvalidTransition is returned when a status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// Parse validates a raw status string.
func Parse(raw string) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusOpen, StatusResolved, StatusPending:
		return s, nil
	}
	return "", ErrInvalidStatus
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsResolved reports whether the conversation is resolved.
func (s Status) IsResolved() bool {
	return s == StatusResolved
}

// ValidTransitions defines allowed status transitions. Any state may move to
// resolved; pending never moves back from open or resolved.
var ValidTransitions = map[Status][]Status{
	StatusOpen:     {StatusResolved},
	StatusResolved: {StatusOpen},
	StatusPending:  {StatusOpen, StatusResolved},
}

// CanTransitionTo checks if a transition from the current status to the
// target status is valid. Setting the same status is always permitted and
// treated as a no-op by callers.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Toggled returns the flipped status for the toggle operation. Toggling is
// only defined from open and resolved; from pending it returns
// ErrInvalidTransition.
func (s Status) Toggled() (Status, error) {
	switch s {
	case StatusOpen:
		return StatusResolved, nil
	case StatusResolved:
		return StatusOpen, nil
	}
	return s, ErrInvalidTransition
}
