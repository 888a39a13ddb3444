package models

import (
	"time"

	"github.com/thesisgrey/greylit/internal/workflow"
)

// Activity record kinds.
const (
	ActivityCreated       = "created"
	ActivityModified      = "modified"
	ActivityStatusChanged = "status_changed"
	ActivityComment       = "comment"
	ActivityArchived      = "archived"
	ActivityUnarchived    = "unarchived"
	ActivityError         = "error"
)

// ActivityRecord is an append-only audit entry for a mutating action on
// a Session. Records outlive status changes and archiving; only comment
// entries may be deleted, and deletions are themselves logged.
type ActivityRecord struct {
	ID          uint             `gorm:"primaryKey;autoIncrement"`
	SessionID   string           `gorm:"size:36;not null;index"`
	Kind        string           `gorm:"size:16;not null;index"`
	Actor       string           `gorm:"size:64;not null"`
	Description string           `gorm:"type:text"`
	OldStatus   *workflow.Status `gorm:"size:20"`
	NewStatus   *workflow.Status `gorm:"size:20"`
	Details     string           `gorm:"type:text"` // JSON object, opaque to the store
	CreatedAt   time.Time
}

// StatusHistoryEntry captures one approved status transition with its
// derived metadata. Duration is the time spent in FromStatus; the
// classification is computed from the status pair, never caller-chosen.
type StatusHistoryEntry struct {
	ID             uint                    `gorm:"primaryKey;autoIncrement"`
	SessionID      string                  `gorm:"size:36;not null;index"`
	FromStatus     workflow.Status         `gorm:"size:20;not null"`
	ToStatus       workflow.Status         `gorm:"size:20;not null"`
	Duration       time.Duration           `gorm:"not null"`
	Classification workflow.Classification `gorm:"size:20;not null"`
	Automatic      bool                    `gorm:"not null;default:false"`
	CreatedAt      time.Time
}
