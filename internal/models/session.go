package models

import (
	"time"

	"github.com/thesisgrey/greylit/internal/workflow"
)

// Session is a unit of systematic-review work tracked through the fixed
// status workflow. Status is only ever written through the session
// store's transition path; Version backs its optimistic concurrency
// check.
type Session struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Title       string          `gorm:"size:200;not null"`
	Description string          `gorm:"size:1000"`
	Status      workflow.Status `gorm:"size:20;default:draft;index"`
	OwnerID     string          `gorm:"size:64;not null;index"`
	Version     int             `gorm:"not null;default:0"`

	// StatusEnteredAt records when the current status was entered, for
	// duration-in-status accounting.
	StatusEnteredAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Reserved for future team sharing. No access logic reads these.
	TeamID     *string `gorm:"size:36"`
	Visibility *string `gorm:"size:16"`

	Activity []ActivityRecord     `gorm:"foreignKey:SessionID"`
	History  []StatusHistoryEntry `gorm:"foreignKey:SessionID"`
}
