package workflow

import (
	"errors"
	"testing"
)

func TestCanTransition_Table(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		// Forward path
		{StatusDraft, StatusStrategyReady, true},
		{StatusStrategyReady, StatusExecuting, true},
		{StatusExecuting, StatusProcessing, true},
		{StatusProcessing, StatusReadyForReview, true},
		{StatusReadyForReview, StatusInReview, true},
		{StatusInReview, StatusCompleted, true},
		{StatusCompleted, StatusArchived, true},

		// Corrections and recovery
		{StatusStrategyReady, StatusDraft, true},
		{StatusInReview, StatusReadyForReview, true},
		{StatusCompleted, StatusInReview, true},
		{StatusArchived, StatusCompleted, true},
		{StatusFailed, StatusDraft, true},
		{StatusFailed, StatusStrategyReady, true},

		// Failure entry
		{StatusExecuting, StatusFailed, true},
		{StatusProcessing, StatusFailed, true},

		// Illegal jumps
		{StatusDraft, StatusCompleted, false},
		{StatusDraft, StatusExecuting, false},
		{StatusDraft, StatusArchived, false},
		{StatusExecuting, StatusReadyForReview, false},
		{StatusReadyForReview, StatusCompleted, false},
		{StatusCompleted, StatusDraft, false},
		{StatusArchived, StatusInReview, false},
		{StatusFailed, StatusExecuting, false},
		{StatusDraft, StatusFailed, false},
	}
	for _, tt := range tests {
		got, err := CanTransition(tt.from, tt.to)
		if err != nil {
			t.Errorf("CanTransition(%q, %q) error: %v", tt.from, tt.to, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCanTransition_SelfNeverLegal(t *testing.T) {
	for _, s := range All() {
		ok, err := CanTransition(s, s)
		if err != nil {
			t.Errorf("CanTransition(%q, %q) error: %v", s, s, err)
		}
		if ok {
			t.Errorf("CanTransition(%q, %q) = true, self-transitions must be rejected", s, s)
		}
	}
}

func TestCanTransition_InvalidStatus(t *testing.T) {
	if _, err := CanTransition("bogus", StatusDraft); err == nil {
		t.Error("expected error for unknown current status")
	} else {
		var ise *InvalidStateError
		if !errors.As(err, &ise) {
			t.Errorf("error type = %T, want *InvalidStateError", err)
		}
	}
	if _, err := CanTransition(StatusDraft, "bogus"); err == nil {
		t.Error("expected error for unknown proposed status")
	}
}

func TestTransitions_TotalOverEnum(t *testing.T) {
	for _, s := range All() {
		if _, ok := Transitions[s]; !ok {
			t.Errorf("Transitions missing entry for %q", s)
		}
	}
	if len(Transitions) != len(All()) {
		t.Errorf("Transitions has %d entries, want %d (no undocumented statuses)", len(Transitions), len(All()))
	}
}

func TestTransitions_NoUndocumentedEdges(t *testing.T) {
	// The union of all successor sets must match the documented table
	// exactly: 14 edges, all between valid statuses.
	edges := 0
	for from, tos := range Transitions {
		for _, to := range tos {
			edges++
			if !to.Valid() {
				t.Errorf("Transitions[%q] contains invalid status %q", from, to)
			}
			if to == from {
				t.Errorf("Transitions[%q] contains a self-edge", from)
			}
		}
	}
	if edges != 14 {
		t.Errorf("transition table has %d edges, want 14", edges)
	}
}

func TestCheckTransition_CarriesBothStatuses(t *testing.T) {
	err := CheckTransition(StatusDraft, StatusCompleted)
	if err == nil {
		t.Fatal("expected TransitionNotAllowedError")
	}
	var tna *TransitionNotAllowedError
	if !errors.As(err, &tna) {
		t.Fatalf("error type = %T, want *TransitionNotAllowedError", err)
	}
	if tna.From != StatusDraft || tna.To != StatusCompleted {
		t.Errorf("error carries (%q, %q), want (draft, completed)", tna.From, tna.To)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want Classification
	}{
		{StatusDraft, StatusStrategyReady, ClassProgression},
		{StatusInReview, StatusCompleted, ClassProgression},
		{StatusCompleted, StatusArchived, ClassProgression},
		{StatusStrategyReady, StatusDraft, ClassRegression},
		{StatusInReview, StatusReadyForReview, ClassRegression},
		{StatusCompleted, StatusInReview, ClassRegression},
		{StatusArchived, StatusCompleted, ClassRegression},
		{StatusExecuting, StatusFailed, ClassErrorTransition},
		{StatusProcessing, StatusFailed, ClassErrorTransition},
		{StatusFailed, StatusDraft, ClassErrorRecovery},
		{StatusFailed, StatusStrategyReady, ClassErrorRecovery},
	}
	for _, tt := range tests {
		if got := Classify(tt.from, tt.to); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDisplayPriority_Order(t *testing.T) {
	order := []Status{
		StatusInReview,
		StatusReadyForReview,
		StatusProcessing,
		StatusExecuting,
		StatusStrategyReady,
		StatusDraft,
		StatusFailed,
		StatusCompleted,
		StatusArchived,
	}
	for i := 1; i < len(order); i++ {
		if DisplayPriority(order[i-1]) >= DisplayPriority(order[i]) {
			t.Errorf("DisplayPriority(%q) = %d should sort before %q = %d",
				order[i-1], DisplayPriority(order[i-1]), order[i], DisplayPriority(order[i]))
		}
	}
	if DisplayPriority("bogus") <= DisplayPriority(StatusArchived) {
		t.Error("unknown statuses should sort last")
	}
}

func TestEditable(t *testing.T) {
	for _, s := range All() {
		want := s == StatusDraft || s == StatusStrategyReady
		if got := s.Editable(); got != want {
			t.Errorf("%q.Editable() = %v, want %v", s, got, want)
		}
	}
}
