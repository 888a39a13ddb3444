package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

// DailyReport holds computed review metrics for a 24-hour period.
type DailyReport struct {
	PeriodStart      time.Time
	PeriodEnd        time.Time
	SessionsCreated  int
	Completed        int
	Failed           int
	Transitions      int
	Comments         int
	ActiveSessions   int
	AvgReviewTime    time.Duration
	reviewedSessions int
}

// Digest computes daily summary reports over the session database.
type Digest struct {
	db *gorm.DB

	// Now allows tests to pin the report window.
	Now func() time.Time
}

// NewDigest creates a Digest over db.
func NewDigest(db *gorm.DB) *Digest {
	return &Digest{db: db, Now: time.Now}
}

// BuildDaily queries the last 24 hours and returns the report as an
// Event. Returns nil when there was no activity to report.
func (d *Digest) BuildDaily() (*Event, error) {
	now := d.Now()
	since := now.Add(-24 * time.Hour)

	report, err := d.buildReport(since, now)
	if err != nil {
		return nil, fmt.Errorf("notify: daily digest: %w", err)
	}

	// Suppress when nothing happened.
	if report.SessionsCreated == 0 && report.Transitions == 0 && report.Comments == 0 {
		return nil, nil
	}

	evt := formatDaily(report)
	return &evt, nil
}

func (d *Digest) buildReport(since, until time.Time) (*DailyReport, error) {
	report := &DailyReport{PeriodStart: since, PeriodEnd: until}

	var created int64
	if err := d.db.Model(&models.Session{}).
		Where("created_at >= ? AND created_at < ?", since, until).
		Count(&created).Error; err != nil {
		return nil, err
	}
	report.SessionsCreated = int(created)

	var transitions int64
	d.db.Model(&models.StatusHistoryEntry{}).
		Where("created_at >= ? AND created_at < ?", since, until).
		Count(&transitions)
	report.Transitions = int(transitions)

	var completed int64
	d.db.Model(&models.StatusHistoryEntry{}).
		Where("to_status = ? AND created_at >= ? AND created_at < ?", workflow.StatusCompleted, since, until).
		Count(&completed)
	report.Completed = int(completed)

	var failed int64
	d.db.Model(&models.StatusHistoryEntry{}).
		Where("to_status = ? AND created_at >= ? AND created_at < ?", workflow.StatusFailed, since, until).
		Count(&failed)
	report.Failed = int(failed)

	var comments int64
	d.db.Model(&models.ActivityRecord{}).
		Where("kind = ? AND created_at >= ? AND created_at < ?", models.ActivityComment, since, until).
		Count(&comments)
	report.Comments = int(comments)

	var active int64
	d.db.Model(&models.Session{}).
		Where("status NOT IN ?", []workflow.Status{
			workflow.StatusCompleted, workflow.StatusFailed, workflow.StatusArchived,
		}).
		Count(&active)
	report.ActiveSessions = int(active)

	// Average time spent in review for sessions that left in_review in
	// the period. Computed in Go for portability across SQLite (tests)
	// and MySQL (production).
	var reviewRows []struct{ Duration time.Duration }
	d.db.Model(&models.StatusHistoryEntry{}).
		Where("from_status = ? AND created_at >= ? AND created_at < ?", workflow.StatusInReview, since, until).
		Select("duration").
		Find(&reviewRows)
	if len(reviewRows) > 0 {
		var total time.Duration
		for _, row := range reviewRows {
			total += row.Duration
		}
		report.AvgReviewTime = total / time.Duration(len(reviewRows))
		report.reviewedSessions = len(reviewRows)
	}

	return report, nil
}

// formatDaily renders a daily report as a deliverable event.
func formatDaily(report *DailyReport) Event {
	var bodyLines []string
	bodyLines = append(bodyLines, fmt.Sprintf("**Period**: %s to %s",
		report.PeriodStart.Format("Jan 2 15:04"),
		report.PeriodEnd.Format("Jan 2 15:04")))
	bodyLines = append(bodyLines, fmt.Sprintf("**Sessions**: %d created, %d completed, %d failed",
		report.SessionsCreated, report.Completed, report.Failed))
	bodyLines = append(bodyLines, fmt.Sprintf("**Transitions**: %d", report.Transitions))
	if report.Comments > 0 {
		bodyLines = append(bodyLines, fmt.Sprintf("**Comments**: %d", report.Comments))
	}
	if report.AvgReviewTime > 0 {
		bodyLines = append(bodyLines, fmt.Sprintf("**Avg review time**: %s (%d sessions)",
			formatDuration(report.AvgReviewTime), report.reviewedSessions))
	}
	bodyLines = append(bodyLines, fmt.Sprintf("**Active sessions**: %d", report.ActiveSessions))

	fields := []Field{
		{Name: "Created", Value: fmt.Sprintf("%d", report.SessionsCreated)},
		{Name: "Completed", Value: fmt.Sprintf("%d", report.Completed)},
		{Name: "Active", Value: fmt.Sprintf("%d", report.ActiveSessions)},
	}
	if report.Failed > 0 {
		fields = append(fields, Field{Name: "Failed", Value: fmt.Sprintf("%d", report.Failed)})
	}

	severity := SeverityInfo
	if report.Failed > 0 {
		severity = SeverityWarning
	}

	return Event{
		Title:    "Daily Review Digest",
		Body:     strings.Join(bodyLines, "\n"),
		Severity: severity,
		Fields:   fields,
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		days := h / 24
		h = h % 24
		return fmt.Sprintf("%dd %dh", days, h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
