// Package archive moves completed sessions into and out of the archived
// state without data loss. Archiving is the only "removal" path for
// non-draft sessions.
package archive

import (
	"fmt"
	"time"

	"github.com/thesisgrey/greylit/internal/activity"
	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/session"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

// Manager performs archive and unarchive operations. Status changes go
// through the session store's transition path; the snapshot and its
// audit record commit in the same transaction.
type Manager struct {
	db    *gorm.DB
	store *session.Store
	log   *activity.Logger

	Now func() time.Time
}

// NewManager creates a Manager sharing the store's database and logger.
func NewManager(db *gorm.DB, store *session.Store, log *activity.Logger) *Manager {
	return &Manager{db: db, store: store, log: log, Now: time.Now}
}

// Archive transitions a completed session to archived and snapshots its
// activity counts so archived listings need no recomputation.
func (m *Manager) Archive(id, actor string) (*models.ArchiveRecord, error) {
	var rec models.ArchiveRecord
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := m.store.WithDB(tx).RequestTransition(id, workflow.StatusArchived, actor, false); err != nil {
			return err
		}

		acts, trans, err := activity.Counts(tx, id)
		if err != nil {
			return err
		}

		rec = models.ArchiveRecord{
			SessionID:       id,
			ArchivedBy:      actor,
			ActivityCount:   acts,
			TransitionCount: trans,
			ArchivedAt:      m.Now(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("archive: snapshot session %s: %w", id, err)
		}

		_, err = m.log.Log(tx, activity.LogOpts{
			SessionID:   id,
			Kind:        models.ActivityArchived,
			Actor:       actor,
			Description: "Session archived",
			Details:     map[string]interface{}{"activity_count": acts, "transition_count": trans},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Unarchive returns an archived session to completed and stamps the open
// archive record. The record itself is kept for the audit trail.
func (m *Manager) Unarchive(id, actor string) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if _, _, err := m.store.WithDB(tx).RequestTransition(id, workflow.StatusCompleted, actor, false); err != nil {
			return err
		}

		now := m.Now()
		if err := tx.Model(&models.ArchiveRecord{}).
			Where("session_id = ? AND unarchived_at IS NULL", id).
			Update("unarchived_at", now).Error; err != nil {
			return fmt.Errorf("archive: stamp unarchive for %s: %w", id, err)
		}

		_, err := m.log.Log(tx, activity.LogOpts{
			SessionID:   id,
			Kind:        models.ActivityUnarchived,
			Actor:       actor,
			Description: "Session restored from archive",
		})
		return err
	})
}

// BulkResult reports the outcome of one session in a bulk operation.
type BulkResult struct {
	SessionID string
	Err       error
}

// BulkArchive archives each session independently. A failure on one
// never aborts the others; callers get a per-session result list in
// input order.
func (m *Manager) BulkArchive(ids []string, actor string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		_, err := m.Archive(id, actor)
		results = append(results, BulkResult{SessionID: id, Err: err})
	}
	return results
}
