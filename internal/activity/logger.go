// Package activity records the audit trail for review sessions: one
// append-only ActivityRecord per mutating action, plus a
// StatusHistoryEntry with derived metadata for every status change.
package activity

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

// Hook observes newly written activity records. Hooks run synchronously
// inside the writing transaction, so an observer sees exactly one record
// per status change, in commit order.
type Hook func(rec models.ActivityRecord)

// Logger writes audit records. Safe for concurrent use. The zero value
// is not usable; construct with NewLogger.
type Logger struct {
	mu    sync.RWMutex
	hooks []Hook

	// Now supplies timestamps; replaced in tests. Callers never pass
	// their own timestamps, so one clock rules record ordering.
	Now func() time.Time
}

// NewLogger creates a Logger using the wall clock.
func NewLogger() *Logger {
	return &Logger{Now: time.Now}
}

// Subscribe registers a hook for subsequently written records.
func (l *Logger) Subscribe(h Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, h)
}

// dispatch invokes all hooks with the record.
func (l *Logger) dispatch(rec models.ActivityRecord) {
	l.mu.RLock()
	hooks := l.hooks
	l.mu.RUnlock()
	for _, h := range hooks {
		h(rec)
	}
}

// LogOpts holds parameters for a generic activity record.
type LogOpts struct {
	SessionID   string
	Kind        string
	Actor       string
	Description string
	Details     map[string]interface{} // optional structured payload
}

// Log appends one activity record. Pass the enclosing transaction handle
// so the record commits or rolls back with the mutation it describes.
func (l *Logger) Log(tx *gorm.DB, opts LogOpts) (*models.ActivityRecord, error) {
	if opts.SessionID == "" {
		return nil, fmt.Errorf("activity: session ID is required")
	}
	if opts.Actor == "" {
		return nil, fmt.Errorf("activity: actor is required")
	}

	details, err := marshalDetails(opts.Details)
	if err != nil {
		return nil, fmt.Errorf("activity: marshal details: %w", err)
	}

	rec := models.ActivityRecord{
		SessionID:   opts.SessionID,
		Kind:        opts.Kind,
		Actor:       opts.Actor,
		Description: opts.Description,
		Details:     details,
		CreatedAt:   l.Now(),
	}
	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("activity: log %s for session %s: %w", opts.Kind, opts.SessionID, err)
	}

	l.dispatch(rec)
	return &rec, nil
}

// LogStatusChange writes the status_changed activity record and the
// status history entry for an approved transition. The caller must hold
// the session row lock and have already committed the new status within
// tx; session carries the pre-transition StatusEnteredAt so the duration
// is computed from state read under that same lock.
func (l *Logger) LogStatusChange(tx *gorm.DB, session *models.Session, from, to workflow.Status, actor string, automatic bool) (*models.StatusHistoryEntry, error) {
	now := l.Now()

	duration := now.Sub(session.StatusEnteredAt)
	if session.StatusEnteredAt.IsZero() || duration < 0 {
		duration = 0
	}

	rec := models.ActivityRecord{
		SessionID:   session.ID,
		Kind:        models.ActivityStatusChanged,
		Actor:       actor,
		Description: fmt.Sprintf("Status changed from %s to %s", from, to),
		OldStatus:   &from,
		NewStatus:   &to,
		CreatedAt:   now,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("activity: log status change for session %s: %w", session.ID, err)
	}

	entry := models.StatusHistoryEntry{
		SessionID:      session.ID,
		FromStatus:     from,
		ToStatus:       to,
		Duration:       duration,
		Classification: workflow.Classify(from, to),
		Automatic:      automatic,
		CreatedAt:      now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("activity: record history for session %s: %w", session.ID, err)
	}

	l.dispatch(rec)
	return &entry, nil
}

// marshalDetails marshals the payload to a JSON string, returning empty
// string for nil.
func marshalDetails(v map[string]interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
