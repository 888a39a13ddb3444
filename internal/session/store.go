// Package session implements the review session entity store: CRUD with
// ownership enforcement, and the single transactional entry point for
// status transitions.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thesisgrey/greylit/internal/activity"
	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
	copySuffix        = " (Copy)"
)

// Store provides session CRUD and transition operations. All mutating
// operations run inside a single transaction with their audit records.
type Store struct {
	db  *gorm.DB
	log *activity.Logger

	// Now and NewID are replaced in tests.
	Now   func() time.Time
	NewID func() string
}

// NewStore creates a Store backed by db, writing audit records through log.
func NewStore(db *gorm.DB, log *activity.Logger) *Store {
	return &Store{
		db:    db,
		log:   log,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// WithDB returns a copy of the store bound to db, typically an enclosing
// transaction handle so a composite operation commits as one unit.
// Nested Transaction calls become savepoints.
func (s *Store) WithDB(db *gorm.DB) *Store {
	clone := *s
	clone.db = db
	return &clone
}

// Create validates bounds and persists a new draft session, logging the
// created record in the same transaction.
func (s *Store) Create(owner, title, description string) (*models.Session, error) {
	if owner == "" {
		return nil, &ValidationError{Field: "owner", Reason: "is required"}
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}

	now := s.Now()
	sess := models.Session{
		ID:              s.NewID(),
		Title:           strings.TrimSpace(title),
		Description:     description,
		Status:          workflow.StatusDraft,
		OwnerID:         owner,
		StatusEnteredAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sess).Error; err != nil {
			return fmt.Errorf("session: create: %w", err)
		}
		_, err := s.log.Log(tx, activity.LogOpts{
			SessionID:   sess.ID,
			Kind:        models.ActivityCreated,
			Actor:       owner,
			Description: fmt.Sprintf("Created session %q", sess.Title),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Get retrieves a session by ID, enforcing ownership.
func (s *Store) Get(id, actor string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	if sess.OwnerID != actor {
		return nil, ErrNotOwner
	}
	return &sess, nil
}

// UpdateOpts carries the directly editable fields. Nil means unchanged.
type UpdateOpts struct {
	Title       *string
	Description *string
}

// Update edits title/description. Owner only, and only while the status
// still permits editing.
func (s *Store) Update(id, actor string, opts UpdateOpts) (*models.Session, error) {
	var updated models.Session
	err := s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := lockSession(tx, id, actor)
		if err != nil {
			return err
		}
		if !sess.Status.Editable() {
			return &ImmutableFieldError{Field: "title/description", Status: sess.Status}
		}

		changes := map[string]interface{}{}
		details := map[string]interface{}{}
		if opts.Title != nil {
			if err := validateTitle(*opts.Title); err != nil {
				return err
			}
			changes["title"] = strings.TrimSpace(*opts.Title)
			details["title"] = map[string]string{"old": sess.Title, "new": strings.TrimSpace(*opts.Title)}
		}
		if opts.Description != nil {
			if err := validateDescription(*opts.Description); err != nil {
				return err
			}
			changes["description"] = *opts.Description
			details["description"] = map[string]string{"old": sess.Description, "new": *opts.Description}
		}
		if len(changes) == 0 {
			updated = *sess
			return nil
		}

		now := s.Now()
		changes["updated_at"] = now
		changes["version"] = sess.Version + 1
		res := tx.Model(&models.Session{}).
			Where("id = ? AND version = ?", sess.ID, sess.Version).
			Updates(changes)
		if res.Error != nil {
			return fmt.Errorf("session: update %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}

		if _, err := s.log.Log(tx, activity.LogOpts{
			SessionID:   sess.ID,
			Kind:        models.ActivityModified,
			Actor:       actor,
			Description: "Updated session details",
			Details:     details,
		}); err != nil {
			return err
		}

		updated = *sess
		if t, ok := changes["title"].(string); ok {
			updated.Title = t
		}
		if d, ok := changes["description"].(string); ok {
			updated.Description = d
		}
		updated.Version = sess.Version + 1
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete hard-deletes a session and its audit records. Permitted only
// while the session is still a draft; anything further along must be
// archived instead, never destroyed.
func (s *Store) Delete(id, actor string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		sess, err := lockSession(tx, id, actor)
		if err != nil {
			return err
		}
		if sess.Status != workflow.StatusDraft {
			return &workflow.InvalidStateError{Status: sess.Status, Action: "delete"}
		}

		if err := tx.Where("session_id = ?", id).Delete(&models.ActivityRecord{}).Error; err != nil {
			return fmt.Errorf("session: delete records for %s: %w", id, err)
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.StatusHistoryEntry{}).Error; err != nil {
			return fmt.Errorf("session: delete history for %s: %w", id, err)
		}
		if err := tx.Delete(&models.Session{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("session: delete %s: %w", id, err)
		}
		return nil
	})
}

// Duplicate creates a fresh draft copy of a session for the actor. The
// copy gets a new ID, a " (Copy)" title suffix, the same description,
// and a brand-new audit trail. The source is never touched.
func (s *Store) Duplicate(id, actor string) (*models.Session, error) {
	src, err := s.Get(id, actor)
	if err != nil {
		return nil, err
	}

	title := src.Title + copySuffix
	if len(title) > maxTitleLen {
		title = src.Title[:maxTitleLen-len(copySuffix)] + copySuffix
	}

	return s.Create(actor, title, src.Description)
}

// validateTitle enforces the non-empty, max-200-chars bound.
func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if len(trimmed) > maxTitleLen {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("exceeds %d characters", maxTitleLen)}
	}
	return nil
}

// validateDescription enforces the max-1000-chars bound.
func validateDescription(desc string) error {
	if len(desc) > maxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("exceeds %d characters", maxDescriptionLen)}
	}
	return nil
}

// lockSession loads a session under a row lock and enforces ownership.
func lockSession(tx *gorm.DB, id, actor string) (*models.Session, error) {
	var sess models.Session
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&sess, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: get %s: %w", id, err)
	}
	if sess.OwnerID != actor {
		return nil, ErrNotOwner
	}
	return &sess, nil
}
