package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/common"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
	"golang-news-signal/pkg/utils"
)

// MonitorService runs one poll-classify-route cycle.
type MonitorService interface {
	RunCycle(ctx context.Context) dto.CycleResult
}

// MonitorDeps groups the collaborators of the monitor cycle.
type MonitorDeps struct {
	Poller      FeedPoller
	Classifier  Classifier
	Router      NotificationRouter
	SeenRepo    repository.SeenItemRepository
	SignalRepo  repository.SignalRepository
	PrefRepo    repository.PreferenceRepository
	Heartbeat   repository.HeartbeatRepository
	// Articles fills empty summaries from the article page. Nil disables it.
	Articles    repository.ArticleRepository
	Feeds       []entity.Feed
	MaxParallel int
}

// NewMonitorService creates a MonitorService.
func NewMonitorService(deps MonitorDeps, log *logger.Logger) MonitorService {
	if deps.MaxParallel <= 0 {
		deps.MaxParallel = 1
	}
	return &monitorService{
		deps:      deps,
		heartbeat: newHeartbeatWriter(deps.Heartbeat, log),
		logger:    log,
	}
}

type monitorService struct {
	deps      MonitorDeps
	heartbeat *heartbeatWriter
	logger    *logger.Logger
	appendMu  sync.Mutex
}

// RunCycle polls every feed, persists the ledger, classifies the new items and
// routes each actionable signal. Failures are isolated to the unit of work that
// caused them.
func (s *monitorService) RunCycle(ctx context.Context) dto.CycleResult {
	start := time.Now()

	s.heartbeat.beat(ctx, common.PhaseFetching, fmt.Sprintf("polling %d feeds", len(s.deps.Feeds)))
	poll := s.deps.Poller.Poll(ctx, s.deps.Feeds)
	failed := poll.FailedFeeds()

	fetchedMsg := fmt.Sprintf("%d new items", len(poll.Items))
	if len(failed) > 0 {
		fetchedMsg += fmt.Sprintf(", failed feeds: %s", strings.Join(failed, ", "))
	}
	s.heartbeat.beat(ctx, common.PhaseFetched, fetchedMsg)

	if err := s.deps.SeenRepo.Flush(ctx); err != nil {
		s.logger.Error("Failed to flush seen ledger", logger.KindField(logger.KindStorage), logger.ErrorField(err))
		metrics.IncStorageError("ledger")
	}

	result := dto.CycleResult{
		NewItems:    len(poll.Items),
		FailedFeeds: failed,
		Deliveries:  map[string]int{},
	}

	if len(poll.Items) > 0 {
		s.heartbeat.beat(ctx, common.PhaseClassifying, fmt.Sprintf("classifying %d items", len(poll.Items)))
		s.classifyAll(ctx, poll.Items, &result)
		s.heartbeat.beat(ctx, common.PhaseClassified, fmt.Sprintf("%d signals", len(result.Signals)))
	}

	elapsed := time.Since(start)
	metrics.ObserveCycle(result.FoundNew(), elapsed.Seconds())
	s.logger.Info("Cycle completed",
		logger.IntField("new_items", result.NewItems),
		logger.IntField("failed_feeds", len(failed)),
		logger.IntField("signals", len(result.Signals)),
		logger.DurationField("elapsed", elapsed),
	)
	return result
}

func (s *monitorService) classifyAll(ctx context.Context, items []entity.FeedItem, result *dto.CycleResult) {
	prefs := s.snapshot(ctx)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, s.deps.MaxParallel)
	)

	for _, item := range items {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			err := utils.RunSafe(func() error {
				for _, signal := range s.deps.Classifier.Classify(ctx, s.enrich(ctx, item)) {
					s.appendSignal(ctx, &signal)
					outcomes := s.deps.Router.Route(ctx, signal, prefs)

					mu.Lock()
					result.Signals = append(result.Signals, signal)
					for _, o := range outcomes {
						result.Deliveries[o.Outcome]++
					}
					mu.Unlock()
				}
				return nil
			})
			if err != nil {
				s.logger.Error("Item processing aborted",
					logger.KindField(logger.KindTransient),
					logger.ErrorField(err),
					logger.StringField("link", item.Link),
				)
			}
		})
	}
	wg.Wait()
}

func (s *monitorService) enrich(ctx context.Context, item entity.FeedItem) entity.FeedItem {
	if s.deps.Articles == nil || item.Summary != "" {
		return item
	}
	text, err := s.deps.Articles.Extract(ctx, item.Link)
	if err != nil {
		s.logger.Warn("Article extraction failed, classifying title only",
			logger.KindField(logger.KindTransient),
			logger.ErrorField(err),
			logger.StringField("link", item.Link),
		)
		return item
	}
	item.Summary = text
	return item
}

// appendSignal stores signal once. The log has a single writer at a time.
func (s *monitorService) appendSignal(ctx context.Context, signal *entity.Signal) {
	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	id, err := s.deps.SignalRepo.Append(ctx, signal)
	if err != nil {
		s.logger.Error("Failed to append signal",
			logger.KindField(logger.KindStorage),
			logger.ErrorField(err),
			logger.StringField("ticker", signal.Ticker),
		)
		metrics.IncStorageError("signal_log")
		return
	}
	metrics.IncSignal(string(signal.Action))
	s.logger.Info("Signal generated",
		logger.StringField("signal_id", id),
		logger.StringField("ticker", signal.Ticker),
		logger.StringField("action", string(signal.Action)),
		logger.IntField("impact_percent", signal.ImpactPercent),
	)
}

// snapshot reads the current subscribers. A failure, including a panic in the
// store, routes to nobody this cycle; signals are still classified and logged.
func (s *monitorService) snapshot(ctx context.Context) map[string]entity.Preference {
	var prefs map[string]entity.Preference
	err := utils.RunSafe(func() error {
		var err error
		prefs, err = s.deps.PrefRepo.Snapshot(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to load preference snapshot", logger.KindField(logger.KindStorage), logger.ErrorField(err))
		metrics.IncStorageError("preferences")
		return map[string]entity.Preference{}
	}
	if prefs == nil {
		return map[string]entity.Preference{}
	}
	return prefs
}
