package service

import (
	"context"
	"fmt"
	"time"

	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/common"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/utils"
)

// SchedulerService drives monitor cycles back to back with an adaptive delay.
type SchedulerService interface {
	Start(ctx context.Context)
	// NextDelay returns the burst delay after a cycle that found new items and
	// the idle delay otherwise.
	NextDelay(foundNew bool) time.Duration
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// NewSchedulerService creates a scheduler around monitor.
func NewSchedulerService(monitor MonitorService, heartbeatRepo repository.HeartbeatRepository, idleDelay, burstDelay time.Duration, log *logger.Logger) SchedulerService {
	return &schedulerService{
		monitor:    monitor,
		heartbeat:  newHeartbeatWriter(heartbeatRepo, log),
		idleDelay:  idleDelay,
		burstDelay: burstDelay,
		sleep:      sleepContext,
		logger:     log,
	}
}

type schedulerService struct {
	monitor    MonitorService
	heartbeat  *heartbeatWriter
	idleDelay  time.Duration
	burstDelay time.Duration
	sleep      SleepFunc
	logger     *logger.Logger
}

func (s *schedulerService) NextDelay(foundNew bool) time.Duration {
	if foundNew {
		return s.burstDelay
	}
	return s.idleDelay
}

// Start runs cycles sequentially until ctx is cancelled, then records the stopped phase.
func (s *schedulerService) Start(ctx context.Context) {
	s.heartbeat.beat(ctx, common.PhaseStarting, "")
	s.logger.Info("Scheduler started",
		logger.DurationField("idle_delay", s.idleDelay),
		logger.DurationField("burst_delay", s.burstDelay),
	)

	for utils.ShouldContinue(ctx, s.logger) {
		foundNew := false
		err := utils.RunSafe(func() error {
			foundNew = s.monitor.RunCycle(ctx).FoundNew()
			return nil
		})
		if err != nil {
			// The aborted cycle may already have consumed new items; poll again soon.
			foundNew = true
			s.logger.Error("Cycle aborted", logger.KindField(logger.KindTransient), logger.ErrorField(err))
		}

		delay := s.NextDelay(foundNew)
		mode := "idle"
		if foundNew {
			mode = "burst"
		}
		s.heartbeat.beat(ctx, common.PhaseSleeping, fmt.Sprintf("%s, next poll in %s", mode, delay))
		if err := s.sleep(ctx, delay); err != nil {
			break
		}
	}

	s.heartbeat.beat(context.WithoutCancel(ctx), common.PhaseStopped, "")
	s.logger.Info("Scheduler stopped")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
