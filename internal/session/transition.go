package session

import (
	"fmt"

	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

// RequestTransition is the only sanctioned way to change a session's
// status. It composes the transition validator, the status write, and
// the audit records in one transaction: either everything commits or
// nothing does.
//
// Concurrent transitions on the same session are serialized by the row
// lock; a writer that raced and lost the version check gets
// ErrConcurrentModification and should retry with fresh state.
//
// automatic marks transitions driven by background collaborators (search
// execution, result processing) rather than a user action; the actor is
// still the owning identity and ownership is enforced either way.
func (s *Store) RequestTransition(id string, to workflow.Status, actor string, automatic bool) (*models.Session, *models.StatusHistoryEntry, error) {
	var (
		updated models.Session
		entry   *models.StatusHistoryEntry
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := lockSession(tx, id, actor)
		if err != nil {
			return err
		}

		if err := workflow.CheckTransition(sess.Status, to); err != nil {
			return err
		}

		now := s.Now()
		res := tx.Model(&models.Session{}).
			Where("id = ? AND version = ?", sess.ID, sess.Version).
			Updates(map[string]interface{}{
				"status":            to,
				"status_entered_at": now,
				"version":           sess.Version + 1,
				"updated_at":        now,
			})
		if res.Error != nil {
			return fmt.Errorf("session: transition %s to %s: %w", id, to, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}

		// sess still carries the pre-transition StatusEnteredAt, read
		// under the same lock as Status, so the duration cannot overlap
		// with a concurrent transition's.
		e, err := s.log.LogStatusChange(tx, sess, sess.Status, to, actor, automatic)
		if err != nil {
			return err
		}

		updated = *sess
		updated.Status = to
		updated.StatusEnteredAt = now
		updated.Version = sess.Version + 1
		updated.UpdatedAt = now
		entry = e
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &updated, entry, nil
}
