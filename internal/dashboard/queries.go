package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

// All queries in this package are read-only and scoped to the requesting
// owner. The multi-tenancy boundary is enforced here, not in the UI.

const (
	defaultPerPage = 25
	maxPerPage     = 100
)

// Filters holds optional filters for the session list.
type Filters struct {
	Status      string
	Search      string // case-insensitive match on title/description
	CreatedFrom time.Time
	CreatedTo   time.Time
	Page        int
	PerPage     int
}

// SessionRow holds session data for display in the list view.
type SessionRow struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Status    workflow.Status `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionListResult holds one page of sessions plus paging metadata.
type SessionListResult struct {
	Sessions []SessionRow `json:"sessions"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PerPage  int          `json:"per_page"`
}

// statusOrderSQL sorts sessions by display priority: active review work
// first, terminal states last, then recency.
func statusOrderSQL() string {
	var b strings.Builder
	b.WriteString("CASE status")
	for _, s := range workflow.All() {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", s, workflow.DisplayPriority(s))
	}
	fmt.Fprintf(&b, " ELSE %d END ASC, updated_at DESC", len(workflow.All()))
	return b.String()
}

// ListSessions returns the owner's sessions matching the filters,
// priority-sorted and paginated.
func ListSessions(db *gorm.DB, owner string, f Filters) (SessionListResult, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	q := db.Model(&models.Session{}).Where("owner_id = ?", owner)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if !f.CreatedFrom.IsZero() {
		q = q.Where("created_at >= ?", f.CreatedFrom)
	}
	if !f.CreatedTo.IsZero() {
		q = q.Where("created_at <= ?", f.CreatedTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return SessionListResult{}, fmt.Errorf("dashboard: count sessions: %w", err)
	}

	var sessions []models.Session
	if err := q.Order(statusOrderSQL()).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&sessions).Error; err != nil {
		return SessionListResult{}, fmt.Errorf("dashboard: list sessions: %w", err)
	}

	rows := make([]SessionRow, len(sessions))
	for i, s := range sessions {
		rows[i] = SessionRow{
			ID:        s.ID,
			Title:     s.Title,
			Status:    s.Status,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		}
	}

	return SessionListResult{Sessions: rows, Total: total, Page: page, PerPage: perPage}, nil
}

// HistoryRow holds a status transition for display.
type HistoryRow struct {
	FromStatus     workflow.Status         `json:"from_status"`
	ToStatus       workflow.Status         `json:"to_status"`
	Duration       string                  `json:"duration"`
	Classification workflow.Classification `json:"classification"`
	Automatic      bool                    `json:"automatic"`
	CreatedAt      time.Time               `json:"created_at"`
}

// ActivityRow holds an audit entry for display.
type ActivityRow struct {
	ID          uint      `json:"id"`
	SessionID   string    `json:"session_id"`
	Kind        string    `json:"kind"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionDetail holds full session data for the detail view.
type SessionDetail struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      workflow.Status `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	History  []HistoryRow  `json:"history"`
	Timeline []ActivityRow `json:"timeline"`

	// Snapshot from the most recent archive record, when present.
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	ActivityCount   int64      `json:"activity_count,omitempty"`
	TransitionCount int64      `json:"transition_count,omitempty"`
}

// GetSessionDetail returns full session data for the detail page. The
// owner scope fails closed: cross-owner IDs look like missing rows.
func GetSessionDetail(db *gorm.DB, owner, id string) (*SessionDetail, error) {
	var s models.Session
	if err := db.Where("id = ? AND owner_id = ?", id, owner).First(&s).Error; err != nil {
		return nil, err
	}

	detail := &SessionDetail{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Status:      s.Status,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}

	var entries []models.StatusHistoryEntry
	if err := db.Where("session_id = ?", id).Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("dashboard: history for %s: %w", id, err)
	}
	detail.History = make([]HistoryRow, len(entries))
	for i, e := range entries {
		detail.History[i] = HistoryRow{
			FromStatus:     e.FromStatus,
			ToStatus:       e.ToStatus,
			Duration:       formatDuration(e.Duration),
			Classification: e.Classification,
			Automatic:      e.Automatic,
			CreatedAt:      e.CreatedAt,
		}
	}

	var recs []models.ActivityRecord
	if err := db.Where("session_id = ?", id).Order("created_at DESC, id DESC").Limit(50).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("dashboard: timeline for %s: %w", id, err)
	}
	detail.Timeline = make([]ActivityRow, len(recs))
	for i, r := range recs {
		detail.Timeline[i] = ActivityRow{
			ID:          r.ID,
			SessionID:   r.SessionID,
			Kind:        r.Kind,
			Actor:       r.Actor,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		}
	}

	var ar models.ArchiveRecord
	if err := db.Where("session_id = ?", id).Order("archived_at DESC").First(&ar).Error; err == nil {
		detail.ArchivedAt = &ar.ArchivedAt
		detail.ActivityCount = ar.ActivityCount
		detail.TransitionCount = ar.TransitionCount
	}

	return detail, nil
}

// RecentActivity returns the owner's latest activity records across all
// their sessions, newest first.
func RecentActivity(db *gorm.DB, owner string, limit int) ([]ActivityRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []models.ActivityRecord
	if err := db.Model(&models.ActivityRecord{}).
		Joins("JOIN sessions ON sessions.id = activity_records.session_id").
		Where("sessions.owner_id = ?", owner).
		Order("activity_records.created_at DESC, activity_records.id DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("dashboard: recent activity: %w", err)
	}

	rows := make([]ActivityRow, len(recs))
	for i, r := range recs {
		rows[i] = ActivityRow{
			ID:          r.ID,
			SessionID:   r.SessionID,
			Kind:        r.Kind,
			Actor:       r.Actor,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		}
	}
	return rows, nil
}

// formatDuration formats a duration as a human-readable string like "2h 15m".
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
