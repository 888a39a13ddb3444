package models

import "time"

// ArchiveRecord snapshots a session at archive time so the dashboard can
// show archived summaries without recomputing counts. UnarchivedAt is set
// when the session is restored; the record is kept for the audit trail.
type ArchiveRecord struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	SessionID       string `gorm:"size:36;not null;index"`
	ArchivedBy      string `gorm:"size:64;not null"`
	ActivityCount   int64  `gorm:"not null;default:0"`
	TransitionCount int64  `gorm:"not null;default:0"`
	ArchivedAt      time.Time
	UnarchivedAt    *time.Time
}
