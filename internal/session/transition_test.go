package session

import (
	"errors"
	"testing"
	"time"

	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

func TestRequestTransition_Legal(t *testing.T) {
	s, db := testStore(t)
	sess, _ := s.Create("alice", "Diabetes Review", "")

	got, entry, err := s.RequestTransition(sess.ID, workflow.StatusStrategyReady, "alice", false)
	if err != nil {
		t.Fatalf("RequestTransition: %v", err)
	}
	if got.Status != workflow.StatusStrategyReady {
		t.Errorf("Status = %q, want strategy_ready", got.Status)
	}
	if got.Version != sess.Version+1 {
		t.Errorf("Version = %d, want %d", got.Version, sess.Version+1)
	}
	if entry.Classification != workflow.ClassProgression {
		t.Errorf("Classification = %q, want progression", entry.Classification)
	}
	if entry.Duration < 0 {
		t.Errorf("Duration = %v, want >= 0", entry.Duration)
	}

	// Scenario: created + status_changed = 2 activity records.
	var count int64
	db.Model(&models.ActivityRecord{}).Where("session_id = ?", sess.ID).Count(&count)
	if count != 2 {
		t.Errorf("activity count = %d, want 2 (created, status_changed)", count)
	}
}

func TestRequestTransition_Illegal(t *testing.T) {
	s, db := testStore(t)
	sess, _ := s.Create("alice", "A", "")

	_, _, err := s.RequestTransition(sess.ID, workflow.StatusCompleted, "alice", false)
	var tna *workflow.TransitionNotAllowedError
	if !errors.As(err, &tna) {
		t.Fatalf("err = %v, want *TransitionNotAllowedError", err)
	}
	if tna.From != workflow.StatusDraft || tna.To != workflow.StatusCompleted {
		t.Errorf("error carries (%q, %q), want (draft, completed)", tna.From, tna.To)
	}

	// No record written, status unchanged.
	var count int64
	db.Model(&models.ActivityRecord{}).Where("session_id = ? AND kind = ?", sess.ID, models.ActivityStatusChanged).Count(&count)
	if count != 0 {
		t.Errorf("status_changed records = %d after rejected transition, want 0", count)
	}
	var got models.Session
	db.First(&got, "id = ?", sess.ID)
	if got.Status != workflow.StatusDraft {
		t.Errorf("Status = %q, want draft", got.Status)
	}
}

func TestRequestTransition_InvalidStatusValue(t *testing.T) {
	s, _ := testStore(t)
	sess, _ := s.Create("alice", "A", "")

	_, _, err := s.RequestTransition(sess.ID, "bogus", "alice", false)
	var ise *workflow.InvalidStateError
	if !errors.As(err, &ise) {
		t.Errorf("err = %v, want *InvalidStateError", err)
	}
}

func TestRequestTransition_NotOwner(t *testing.T) {
	s, _ := testStore(t)
	sess, _ := s.Create("alice", "A", "")

	if _, _, err := s.RequestTransition(sess.ID, workflow.StatusStrategyReady, "bob", false); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
}

func TestRequestTransition_NotFound(t *testing.T) {
	s, _ := testStore(t)
	if _, _, err := s.RequestTransition("missing", workflow.StatusStrategyReady, "alice", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRequestTransition_AtomicOnLogFailure(t *testing.T) {
	s, db := testStore(t)
	sess, _ := s.Create("alice", "A", "")

	// Inject a storage failure when the history entry is written. The
	// whole transaction, status write included, must roll back.
	db.Callback().Create().Before("gorm:create").Register("fail_history", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.StatusHistoryEntry); ok {
			tx.AddError(errors.New("injected storage failure"))
		}
	})
	defer db.Callback().Create().Remove("fail_history")

	_, _, err := s.RequestTransition(sess.ID, workflow.StatusStrategyReady, "alice", false)
	if err == nil {
		t.Fatal("expected injected failure to surface")
	}

	var got models.Session
	db.First(&got, "id = ?", sess.ID)
	if got.Status != workflow.StatusDraft {
		t.Errorf("Status = %q after failed transition, want draft (rolled back)", got.Status)
	}
	if got.Version != sess.Version {
		t.Errorf("Version = %d after failed transition, want %d", got.Version, sess.Version)
	}
	var count int64
	db.Model(&models.ActivityRecord{}).Where("session_id = ? AND kind = ?", sess.ID, models.ActivityStatusChanged).Count(&count)
	if count != 0 {
		t.Errorf("status_changed records = %d after rollback, want 0", count)
	}
}

func TestRequestTransition_VersionConflict(t *testing.T) {
	s, db := testStore(t)
	sess, _ := s.Create("alice", "A", "")

	// Simulate a racing writer: bump the version on the same connection
	// just before the guarded status update runs, so the optimistic
	// check sees stale state.
	fired := false
	db.Callback().Update().Before("gorm:update").Register("simulate_conflict", func(tx *gorm.DB) {
		if fired {
			return
		}
		fired = true
		tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE sessions SET version = version + 1 WHERE id = ?", sess.ID)
	})
	defer db.Callback().Update().Remove("simulate_conflict")

	_, _, err := s.RequestTransition(sess.ID, workflow.StatusStrategyReady, "alice", false)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("err = %v, want ErrConcurrentModification", err)
	}

	// The loser must not have written any history.
	var count int64
	db.Model(&models.StatusHistoryEntry{}).Where("session_id = ?", sess.ID).Count(&count)
	if count != 0 {
		t.Errorf("history entries = %d after lost race, want 0", count)
	}
}

func TestRequestTransition_SequentialRaceSettles(t *testing.T) {
	// Two requests for the same executing -> processing transition: the
	// first wins, the second re-reads the new status and is rejected,
	// with exactly one history entry for the pair.
	s, db := testStore(t)
	sess, _ := s.Create("alice", "A", "")
	advanceTo(t, s, sess.ID, "alice", workflow.StatusExecuting)

	if _, _, err := s.RequestTransition(sess.ID, workflow.StatusProcessing, "alice", true); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	_, _, err := s.RequestTransition(sess.ID, workflow.StatusProcessing, "alice", true)
	if err == nil {
		t.Fatal("second identical transition should fail")
	}

	var got models.Session
	db.First(&got, "id = ?", sess.ID)
	if got.Status != workflow.StatusProcessing {
		t.Errorf("final Status = %q, want processing", got.Status)
	}
	var count int64
	db.Model(&models.StatusHistoryEntry{}).
		Where("session_id = ? AND to_status = ?", sess.ID, workflow.StatusProcessing).
		Count(&count)
	if count != 1 {
		t.Errorf("history entries for processing = %d, want exactly 1", count)
	}
}

func TestRequestTransition_DurationsSumBounded(t *testing.T) {
	s, db := testStore(t)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	step := 0
	s.Now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * 10 * time.Minute)
	}
	s.log.Now = s.Now

	sess, _ := s.Create("alice", "A", "")
	for _, to := range []workflow.Status{
		workflow.StatusStrategyReady,
		workflow.StatusExecuting,
		workflow.StatusProcessing,
		workflow.StatusReadyForReview,
		workflow.StatusInReview,
		workflow.StatusCompleted,
	} {
		if _, _, err := s.RequestTransition(sess.ID, to, "alice", false); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	var entries []models.StatusHistoryEntry
	db.Where("session_id = ?", sess.ID).Order("id ASC").Find(&entries)
	if len(entries) != 6 {
		t.Fatalf("history entries = %d, want 6", len(entries))
	}

	var sum time.Duration
	for _, e := range entries {
		if e.Duration < 0 {
			t.Errorf("entry %d Duration = %v, want >= 0", e.ID, e.Duration)
		}
		sum += e.Duration
	}
	elapsed := s.Now().Sub(sess.CreatedAt)
	if sum > elapsed {
		t.Errorf("sum of durations %v exceeds elapsed %v", sum, elapsed)
	}
}
