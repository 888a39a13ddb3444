package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thesisgrey/greylit/internal/activity"
	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/session"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Session{},
		&models.ActivityRecord{},
		&models.StatusHistoryEntry{},
		&models.ArchiveRecord{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestBuildDaily_NoActivity(t *testing.T) {
	d := NewDigest(testDB(t))
	evt, err := d.BuildDaily()
	if err != nil {
		t.Fatalf("BuildDaily: %v", err)
	}
	if evt != nil {
		t.Errorf("evt = %+v, want nil when nothing happened", evt)
	}
}

func TestBuildDaily_Report(t *testing.T) {
	db := testDB(t)
	store := session.NewStore(db, activity.NewLogger())

	sess, err := store.Create("alice", "Digest Review", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, to := range []workflow.Status{
		workflow.StatusStrategyReady,
		workflow.StatusExecuting,
		workflow.StatusProcessing,
		workflow.StatusReadyForReview,
		workflow.StatusInReview,
		workflow.StatusCompleted,
	} {
		if _, _, err := store.RequestTransition(sess.ID, to, "alice", false); err != nil {
			t.Fatalf("advance to %s: %v", to, err)
		}
	}
	// A second session that stays active.
	if _, err := store.Create("alice", "Ongoing", ""); err != nil {
		t.Fatalf("create second: %v", err)
	}

	d := NewDigest(db)
	evt, err := d.BuildDaily()
	if err != nil {
		t.Fatalf("BuildDaily: %v", err)
	}
	if evt == nil {
		t.Fatal("evt = nil, want a report")
	}
	if evt.Title != "Daily Review Digest" {
		t.Errorf("Title = %q", evt.Title)
	}
	if evt.Severity != SeverityInfo {
		t.Errorf("Severity = %q, want info with no failures", evt.Severity)
	}
	for _, want := range []string{
		"2 created",
		"1 completed",
		"0 failed",
		"**Transitions**: 6",
		"**Active sessions**: 1",
	} {
		if !strings.Contains(evt.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, evt.Body)
		}
	}
}

func TestBuildDaily_FailureRaisesSeverity(t *testing.T) {
	db := testDB(t)
	store := session.NewStore(db, activity.NewLogger())

	sess, _ := store.Create("alice", "Flaky", "")
	for _, to := range []workflow.Status{
		workflow.StatusStrategyReady,
		workflow.StatusExecuting,
		workflow.StatusFailed,
	} {
		if _, _, err := store.RequestTransition(sess.ID, to, "alice", true); err != nil {
			t.Fatalf("advance to %s: %v", to, err)
		}
	}

	evt, err := NewDigest(db).BuildDaily()
	if err != nil {
		t.Fatalf("BuildDaily: %v", err)
	}
	if evt.Severity != SeverityWarning {
		t.Errorf("Severity = %q, want warning with a failure", evt.Severity)
	}
	if !strings.Contains(evt.Body, "1 failed") {
		t.Errorf("Body missing failure count:\n%s", evt.Body)
	}
}

func TestBuildDaily_WindowExcludesOldRows(t *testing.T) {
	db := testDB(t)
	store := session.NewStore(db, activity.NewLogger())
	if _, err := store.Create("alice", "Yesterday", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	d := NewDigest(db)
	// Pin the window to a day that ended before the session existed.
	d.Now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	evt, err := d.BuildDaily()
	if err != nil {
		t.Fatalf("BuildDaily: %v", err)
	}
	if evt != nil {
		t.Errorf("evt = %+v, want nil outside the window", evt)
	}
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	db := testDB(t)
	d := NewDispatcher(zerolog.Nop())

	s, err := NewScheduler(SchedulerOpts{
		DB:            db,
		Dispatcher:    d,
		Log:           zerolog.Nop(),
		DigestCron:    "0 9 * * *",
		RetentionDays: 30,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if got := s.Entries(); got != 2 {
		t.Errorf("Entries = %d, want 2", got)
	}
}

func TestNewScheduler_DisabledJobs(t *testing.T) {
	s, err := NewScheduler(SchedulerOpts{
		DB:         testDB(t),
		Dispatcher: NewDispatcher(zerolog.Nop()),
		Log:        zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	if got := s.Entries(); got != 0 {
		t.Errorf("Entries = %d, want 0 with everything disabled", got)
	}
}

func TestNewScheduler_BadCron(t *testing.T) {
	_, err := NewScheduler(SchedulerOpts{
		DB:         testDB(t),
		Dispatcher: NewDispatcher(zerolog.Nop()),
		Log:        zerolog.Nop(),
		DigestCron: "not a cron",
	})
	if err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestRetentionSweep_PurgesOldComments(t *testing.T) {
	db := testDB(t)
	log := activity.NewLogger()
	store := session.NewStore(db, log)
	sess, _ := store.Create("alice", "Retention", "")

	if _, err := log.Log(db, activity.LogOpts{
		SessionID:   sess.ID,
		Kind:        models.ActivityComment,
		Actor:       "alice",
		Description: "stale note",
	}); err != nil {
		t.Fatalf("log comment: %v", err)
	}
	// Backdate past the cutoff.
	old := time.Now().AddDate(0, 0, -40)
	db.Model(&models.ActivityRecord{}).
		Where("kind = ?", models.ActivityComment).
		Update("created_at", old)

	purged, err := activity.PurgeComments(db, time.Now().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PurgeComments: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	// Non-comment records survive.
	var remaining int64
	db.Model(&models.ActivityRecord{}).Where("session_id = ?", sess.ID).Count(&remaining)
	if remaining != 1 {
		t.Errorf("remaining records = %d, want the created record only", remaining)
	}
}
