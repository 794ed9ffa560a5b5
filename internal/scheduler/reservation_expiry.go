// Package scheduler runs periodic circulation maintenance.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/openshelf/circulation/internal/audit"
	"github.com/openshelf/circulation/internal/lending"
)

// ExpirySweepScheduler periodically expires lapsed reservations so the
// hold queues never serve stale entries. Every workflow operation also
// sweeps on its own; the scheduled run keeps listings fresh between
// operations.
type ExpirySweepScheduler struct {
	lending  *lending.Service
	audit    *audit.Service
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewExpirySweepScheduler creates a scheduler running the sweep on the
// given cron schedule.
func NewExpirySweepScheduler(lendingService *lending.Service, auditService *audit.Service, schedule string) *ExpirySweepScheduler {
	return &ExpirySweepScheduler{
		lending:  lendingService,
		audit:    auditService,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *ExpirySweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Reservation expiry sweep: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep to
// complete.
func (s *ExpirySweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("Reservation expiry sweep: stopped")
}

// IsRunning reports whether the scheduler is active.
func (s *ExpirySweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunNow triggers a sweep outside the schedule.
func (s *ExpirySweepScheduler) RunNow() (int64, error) {
	expired, err := s.lending.ExpireReservations()
	if err != nil {
		return 0, err
	}
	if expired > 0 && s.audit != nil {
		s.audit.LogExpiry(expired)
	}
	return expired, nil
}

func (s *ExpirySweepScheduler) runSweep() {
	expired, err := s.RunNow()
	if err != nil {
		log.Printf("Reservation expiry sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("Reservation expiry sweep: expired %d reservations", expired)
	}
}
