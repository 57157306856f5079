package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
)

// LivenessStatus is the result of comparing the heartbeat against the clock.
type LivenessStatus struct {
	Found     bool
	Stalled   bool
	Age       time.Duration
	Heartbeat entity.Heartbeat
}

// Watchdog reports a stalled monitor loop. It only reads the heartbeat.
type Watchdog interface {
	Check(ctx context.Context) (LivenessStatus, error)
	Start(ctx context.Context) error
}

// NewWatchdog creates a Watchdog running on the given cron schedule.
func NewWatchdog(repo repository.HeartbeatRepository, staleAfter time.Duration, schedule string, loc *time.Location, log *logger.Logger) Watchdog {
	if loc == nil {
		loc = time.UTC
	}
	return &watchdog{
		repo:       repo,
		staleAfter: staleAfter,
		schedule:   schedule,
		loc:        loc,
		now:        time.Now,
		logger:     log,
	}
}

type watchdog struct {
	repo       repository.HeartbeatRepository
	staleAfter time.Duration
	schedule   string
	loc        *time.Location
	now        func() time.Time
	logger     *logger.Logger
}

// Check loads the heartbeat once. A missing heartbeat counts as stalled.
func (w *watchdog) Check(ctx context.Context) (LivenessStatus, error) {
	hb, found, err := w.repo.Load(ctx)
	if err != nil {
		return LivenessStatus{Stalled: true}, fmt.Errorf("failed to load heartbeat: %w", err)
	}
	if !found {
		return LivenessStatus{Stalled: true}, nil
	}
	age := hb.Age(w.now())
	return LivenessStatus{
		Found:     true,
		Stalled:   age > w.staleAfter,
		Age:       age,
		Heartbeat: hb,
	}, nil
}

// Start schedules Check until ctx is done. It blocks.
func (w *watchdog) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(w.loc))
	if _, err := c.AddFunc(w.schedule, func() { w.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule watchdog: %w", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (w *watchdog) run(ctx context.Context) {
	status, err := w.Check(ctx)
	if err != nil {
		w.logger.Error("Watchdog could not read heartbeat", logger.KindField(logger.KindStorage), logger.ErrorField(err))
		metrics.IncStorageError("heartbeat")
		return
	}
	metrics.SetHeartbeat(status.Age.Seconds(), status.Stalled)
	if status.Stalled {
		w.logger.Warn("Monitor loop stalled",
			logger.KindField(logger.KindTransient),
			logger.BoolField("found", status.Found),
			logger.DurationField("age", status.Age),
			logger.StringField("phase", status.Heartbeat.Status),
			logger.StringField("message", status.Heartbeat.Message),
		)
		return
	}
	w.logger.Debug("Monitor loop healthy", logger.DurationField("age", status.Age), logger.StringField("phase", status.Heartbeat.Status))
}
