// Package workflow defines the review session status machine: the status
// enum, the legal transition table, and transition classification. It has
// no storage dependencies; callers persist the results.
package workflow

// Status is a review session's position in the workflow.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusStrategyReady  Status = "strategy_ready"
	StatusExecuting      Status = "executing"
	StatusProcessing     Status = "processing"
	StatusReadyForReview Status = "ready_for_review"
	StatusInReview       Status = "in_review"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusArchived       Status = "archived"
)

// All lists every status in canonical workflow order, with the
// off-path statuses (failed, archived) last.
func All() []Status {
	return []Status{
		StatusDraft,
		StatusStrategyReady,
		StatusExecuting,
		StatusProcessing,
		StatusReadyForReview,
		StatusInReview,
		StatusCompleted,
		StatusFailed,
		StatusArchived,
	}
}

// progressOrder ranks statuses along the canonical forward path. Archived
// sits beyond completed; failed is off-path and handled separately by
// Classify.
var progressOrder = map[Status]int{
	StatusDraft:          0,
	StatusStrategyReady:  1,
	StatusExecuting:      2,
	StatusProcessing:     3,
	StatusReadyForReview: 4,
	StatusInReview:       5,
	StatusCompleted:      6,
	StatusArchived:       7,
}

// displayPriority orders statuses for dashboard listing: active review
// work first, terminal states last.
var displayPriority = map[Status]int{
	StatusInReview:       0,
	StatusReadyForReview: 1,
	StatusProcessing:     2,
	StatusExecuting:      3,
	StatusStrategyReady:  4,
	StatusDraft:          5,
	StatusFailed:         6,
	StatusCompleted:      7,
	StatusArchived:       8,
}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	_, ok := displayPriority[s]
	return ok
}

// DisplayPriority returns the dashboard sort rank for s (lower sorts
// first). Unknown statuses sort last.
func DisplayPriority(s Status) int {
	p, ok := displayPriority[s]
	if !ok {
		return len(displayPriority)
	}
	return p
}

// Editable reports whether session title/description edits are allowed in
// this status. Editing is blocked once searches have started; this is a
// policy choice, kept as one guard so it is easy to revisit.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusStrategyReady
}

// Classification describes a transition relative to the canonical
// workflow order.
type Classification string

const (
	ClassProgression     Classification = "progression"
	ClassRegression      Classification = "regression"
	ClassErrorTransition Classification = "error_transition"
	ClassErrorRecovery   Classification = "error_recovery"
)

// Classify derives the classification for an approved transition.
// Error transitions take precedence over order comparison; the result is
// deterministic and never caller-chosen.
func Classify(from, to Status) Classification {
	if to == StatusFailed {
		return ClassErrorTransition
	}
	if from == StatusFailed {
		return ClassErrorRecovery
	}
	if progressOrder[to] > progressOrder[from] {
		return ClassProgression
	}
	return ClassRegression
}
