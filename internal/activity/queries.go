package activity

import (
	"fmt"
	"time"

	"github.com/thesisgrey/greylit/internal/models"
	"gorm.io/gorm"
)

// Timeline returns a session's activity records, newest first. A limit
// of 0 returns everything.
func Timeline(db *gorm.DB, sessionID string, limit int) ([]models.ActivityRecord, error) {
	q := db.Where("session_id = ?", sessionID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []models.ActivityRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("activity: timeline for session %s: %w", sessionID, err)
	}
	return recs, nil
}

// History returns a session's status history entries in transition order.
func History(db *gorm.DB, sessionID string) ([]models.StatusHistoryEntry, error) {
	var entries []models.StatusHistoryEntry
	if err := db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("activity: history for session %s: %w", sessionID, err)
	}
	return entries, nil
}

// Counts returns the activity record count and status transition count
// for a session, e.g. for an archive snapshot.
func Counts(db *gorm.DB, sessionID string) (activity int64, transitions int64, err error) {
	if err := db.Model(&models.ActivityRecord{}).
		Where("session_id = ?", sessionID).
		Count(&activity).Error; err != nil {
		return 0, 0, fmt.Errorf("activity: count records for session %s: %w", sessionID, err)
	}
	if err := db.Model(&models.StatusHistoryEntry{}).
		Where("session_id = ?", sessionID).
		Count(&transitions).Error; err != nil {
		return 0, 0, fmt.Errorf("activity: count transitions for session %s: %w", sessionID, err)
	}
	return activity, transitions, nil
}

// PurgeComments deletes comment records older than the cutoff. Only
// comment entries are subject to retention; status history and the rest
// of the audit trail are never purged. Returns the number deleted.
func PurgeComments(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("kind = ? AND created_at < ?", models.ActivityComment, cutoff).
		Delete(&models.ActivityRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("activity: purge comments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
