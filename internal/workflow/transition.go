package workflow

import (
	"fmt"
	"strings"
)

// Transitions maps each status to its legal successors. The table is
// total: every status has an entry, so unreachable proposals fail closed
// instead of panicking on a missing key.
//
// completed -> in_review is a deliberate correction path; whether it
// should stay generally available is a product decision, not a bug.
var Transitions = map[Status][]Status{
	StatusDraft:          {StatusStrategyReady},
	StatusStrategyReady:  {StatusExecuting, StatusDraft},
	StatusExecuting:      {StatusProcessing, StatusFailed},
	StatusProcessing:     {StatusReadyForReview, StatusFailed},
	StatusReadyForReview: {StatusInReview},
	StatusInReview:       {StatusCompleted, StatusReadyForReview},
	StatusCompleted:      {StatusArchived, StatusInReview},
	StatusFailed:         {StatusDraft, StatusStrategyReady},
	StatusArchived:       {StatusCompleted},
}

// InvalidStateError reports a status value outside the enum, or an action
// that is structurally impossible in the session's current status.
type InvalidStateError struct {
	Status Status
	Action string // optional, e.g. "delete"
}

func (e *InvalidStateError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("workflow: cannot %s in status %q", e.Action, e.Status)
	}
	return fmt.Sprintf("workflow: invalid status %q", e.Status)
}

// TransitionNotAllowedError reports a proposed transition missing from
// the table. It carries both statuses for user-facing messaging.
type TransitionNotAllowedError struct {
	From Status
	To   Status
}

func (e *TransitionNotAllowedError) Error() string {
	legal := Transitions[e.From]
	if len(legal) == 0 {
		return fmt.Sprintf("workflow: transition %q -> %q is not allowed; %q has no outgoing transitions", e.From, e.To, e.From)
	}
	names := make([]string, len(legal))
	for i, s := range legal {
		names[i] = string(s)
	}
	return fmt.Sprintf("workflow: transition %q -> %q is not allowed; legal next statuses: %s", e.From, e.To, strings.Join(names, ", "))
}

// CanTransition reports whether from -> to is legal. Both statuses must
// be enum members; self-transitions are never legal.
func CanTransition(from, to Status) (bool, error) {
	if !from.Valid() {
		return false, &InvalidStateError{Status: from}
	}
	if !to.Valid() {
		return false, &InvalidStateError{Status: to}
	}
	if from == to {
		return false, nil
	}
	for _, next := range Transitions[from] {
		if next == to {
			return true, nil
		}
	}
	return false, nil
}

// CheckTransition is CanTransition with rejection folded into the error:
// illegal proposals return a TransitionNotAllowedError.
func CheckTransition(from, to Status) error {
	ok, err := CanTransition(from, to)
	if err != nil {
		return err
	}
	if !ok {
		return &TransitionNotAllowedError{From: from, To: to}
	}
	return nil
}
