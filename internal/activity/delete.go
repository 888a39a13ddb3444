package activity

import (
	"errors"
	"fmt"

	"github.com/thesisgrey/greylit/internal/models"
	"gorm.io/gorm"
)

// ErrNotAuthor is returned when someone other than the original actor
// tries to delete a comment.
var ErrNotAuthor = errors.New("activity: only the original author may delete a comment")

// DeleteComment removes a comment record. Only comment-kind entries may
// be deleted, and only by their original actor; everything else in the
// trail is immutable. The deletion itself is logged so the audit trail
// records the correction.
func (l *Logger) DeleteComment(db *gorm.DB, recordID uint, actor string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var rec models.ActivityRecord
		if err := tx.First(&rec, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("activity: record not found: %d", recordID)
			}
			return fmt.Errorf("activity: get record %d: %w", recordID, err)
		}

		if rec.Kind != models.ActivityComment {
			return fmt.Errorf("activity: record %d is kind %q, only comments can be deleted", recordID, rec.Kind)
		}
		if rec.Actor != actor {
			return ErrNotAuthor
		}

		if err := tx.Delete(&rec).Error; err != nil {
			return fmt.Errorf("activity: delete record %d: %w", recordID, err)
		}

		_, err := l.Log(tx, LogOpts{
			SessionID:   rec.SessionID,
			Kind:        models.ActivityModified,
			Actor:       actor,
			Description: "Deleted a comment",
			Details:     map[string]interface{}{"deleted_record_id": recordID},
		})
		return err
	})
}
