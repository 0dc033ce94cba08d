// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Purger deletes expired idempotency records and reports how many went.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron    *cron.Cron
	purger  Purger
	timeout time.Duration
}

// New creates a scheduler that purges expired idempotency records on spec,
// a standard five-field cron expression or a descriptor such as
// "@every 1h". An empty spec registers nothing.
func New(purger Purger, spec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		purger:  purger,
		timeout: time.Minute,
	}
	if spec == "" {
		return s, nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.PurgeIdempotency(context.Background()) }); err != nil {
		return nil, err
	}
	log.Info().Str("schedule", spec).Msg("idempotency purge job registered")
	return s, nil
}

// PurgeIdempotency runs one purge pass. Failures are logged; the next tick
// tries again.
func (s *Scheduler) PurgeIdempotency(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("idempotency purge failed")
		return
	}
	log.Info().Int64("deleted", n).Dur("took", time.Since(start)).Msg("idempotency purge finished")
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}
