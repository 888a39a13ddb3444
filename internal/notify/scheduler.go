package notify

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/thesisgrey/greylit/internal/activity"
	"gorm.io/gorm"
)

// retentionCron runs the comment purge nightly, off the digest hour.
const retentionCron = "30 3 * * *"

// Scheduler runs the periodic digest and retention jobs.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// SchedulerOpts holds parameters for creating a Scheduler.
type SchedulerOpts struct {
	DB         *gorm.DB
	Dispatcher *Dispatcher
	Log        zerolog.Logger

	// DigestCron is a 5-field cron expression for the daily digest.
	// Empty disables the digest job.
	DigestCron string

	// RetentionDays purges comment records older than this many days.
	// Zero disables the retention job.
	RetentionDays int
}

// NewScheduler creates a Scheduler with the digest and retention jobs
// registered per opts.
func NewScheduler(opts SchedulerOpts) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), log: opts.Log}

	if opts.DigestCron != "" {
		digest := NewDigest(opts.DB)
		_, err := s.cron.AddFunc(opts.DigestCron, func() {
			evt, err := digest.BuildDaily()
			if err != nil {
				s.log.Error().Err(err).Msg("digest build failed")
				return
			}
			if evt == nil {
				s.log.Debug().Msg("digest skipped, no activity")
				return
			}
			opts.Dispatcher.Enqueue(*evt)
		})
		if err != nil {
			return nil, fmt.Errorf("notify: digest schedule %q: %w", opts.DigestCron, err)
		}
	}

	if opts.RetentionDays > 0 {
		days := opts.RetentionDays
		_, err := s.cron.AddFunc(retentionCron, func() {
			cutoff := time.Now().AddDate(0, 0, -days)
			purged, err := activity.PurgeComments(opts.DB, cutoff)
			if err != nil {
				s.log.Error().Err(err).Msg("comment retention sweep failed")
				return
			}
			if purged > 0 {
				s.log.Info().Int64("purged", purged).Time("cutoff", cutoff).
					Msg("purged expired comments")
			}
		})
		if err != nil {
			return nil, fmt.Errorf("notify: retention schedule: %w", err)
		}
	}

	return s, nil
}

// Start begins running scheduled jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
