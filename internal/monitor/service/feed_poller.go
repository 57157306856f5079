package service

import (
	"context"
	"sync"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
	"golang-news-signal/pkg/utils"
)

// FeedPoller collects the unseen items of every configured feed.
type FeedPoller interface {
	Poll(ctx context.Context, feeds []entity.Feed) dto.PollResult
}

// NewFeedPoller creates a FeedPoller fetching at most maxConcurrent feeds at once.
func NewFeedPoller(feedRepo repository.FeedRepository, seenRepo repository.SeenItemRepository, maxConcurrent int, log *logger.Logger) FeedPoller {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &feedPoller{
		feedRepo:      feedRepo,
		seenRepo:      seenRepo,
		maxConcurrent: maxConcurrent,
		logger:        log,
	}
}

type feedPoller struct {
	feedRepo      repository.FeedRepository
	seenRepo      repository.SeenItemRepository
	maxConcurrent int
	logger        *logger.Logger
}

// Poll fetches feeds in parallel. A failing feed is reported and skipped. Unseen
// items are marked seen before they are returned, so an item is handed out at
// most once even if its downstream processing fails.
func (p *feedPoller) Poll(ctx context.Context, feeds []entity.Feed) dto.PollResult {
	reports := make([]dto.FeedReport, len(feeds))
	fresh := make([][]entity.FeedItem, len(feeds))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.maxConcurrent)

	for i, feed := range feeds {
		reports[i].Feed = feed.Name
		if !utils.ShouldContinue(ctx, p.logger) {
			reports[i].Error = ctx.Err().Error()
			continue
		}
		wg.Add(1)
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			items, err := p.feedRepo.Fetch(ctx, feed)
			if err != nil {
				p.logger.Error("Failed to fetch feed",
					logger.KindField(logger.KindTransient),
					logger.ErrorField(err),
					logger.StringField("feed", feed.Name),
					logger.StringField("url", feed.URL),
				)
				metrics.IncFeedFailure(feed.Name)
				reports[i].Error = err.Error()
				return
			}

			reports[i].Fetched = len(items)
			for _, item := range items {
				if p.seenRepo.Add(item.Link) {
					fresh[i] = append(fresh[i], item)
				}
			}
			reports[i].NewItems = len(fresh[i])
			metrics.AddNewItems(feed.Name, len(fresh[i]))

			p.logger.Debug("Feed polled",
				logger.StringField("feed", feed.Name),
				logger.IntField("fetched", len(items)),
				logger.IntField("new_items", len(fresh[i])),
			)
		})
	}
	wg.Wait()

	result := dto.PollResult{Reports: reports}
	for _, items := range fresh {
		result.Items = append(result.Items, items...)
	}
	return result
}
