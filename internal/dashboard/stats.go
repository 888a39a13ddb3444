package dashboard

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/thesisgrey/greylit/internal/models"
	"github.com/thesisgrey/greylit/internal/workflow"
	"gorm.io/gorm"
)

// statsTTL bounds staleness of the per-owner status counts shown in the
// dashboard header.
const statsTTL = 5 * time.Second

// StatusCounts holds per-status session counts for one owner.
type StatusCounts struct {
	Counts map[workflow.Status]int64 `json:"counts"`
	Total  int64                     `json:"total"`
}

// Stats serves status counts with a short-TTL cache in front of the
// GROUP BY query.
type Stats struct {
	db *gorm.DB
	c  *cache.Cache
}

// NewStats creates a Stats reader for db.
func NewStats(db *gorm.DB) *Stats {
	return &Stats{
		db: db,
		c:  cache.New(statsTTL, time.Minute),
	}
}

// Counts returns per-status counts for the owner, cached for statsTTL.
func (s *Stats) Counts(owner string) (StatusCounts, error) {
	if cached, ok := s.c.Get(owner); ok {
		return cached.(StatusCounts), nil
	}

	type row struct {
		Status workflow.Status
		Count  int64
	}
	var rows []row
	if err := s.db.Model(&models.Session{}).
		Select("status, count(*) as count").
		Where("owner_id = ?", owner).
		Group("status").
		Find(&rows).Error; err != nil {
		return StatusCounts{}, fmt.Errorf("dashboard: status counts: %w", err)
	}

	counts := StatusCounts{Counts: make(map[workflow.Status]int64, len(workflow.All()))}
	for _, st := range workflow.All() {
		counts.Counts[st] = 0
	}
	for _, r := range rows {
		counts.Counts[r.Status] = r.Count
		counts.Total += r.Count
	}

	s.c.Set(owner, counts, cache.DefaultExpiration)
	return counts, nil
}

// Invalidate drops the cached counts for an owner, e.g. after a test
// fixture writes directly.
func (s *Stats) Invalidate(owner string) {
	s.c.Delete(owner)
}
