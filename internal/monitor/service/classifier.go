package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/config"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/utils"
)

// TickerMatcher finds the tickers mentioned by a news item.
type TickerMatcher interface {
	Match(ctx context.Context, title, summary string) ([]string, error)
}

// ImpactAnalyzer produces a verdict for one ticker and news item.
type ImpactAnalyzer interface {
	Analyze(ctx context.Context, ticker, title, summary string) (dto.Verdict, error)
}

// Classifier turns a news item into zero or more actionable signals.
type Classifier interface {
	Classify(ctx context.Context, item entity.FeedItem) []entity.Signal
}

// NewClassifier creates a Classifier. Every matched ticker is analyzed independently.
func NewClassifier(matcher TickerMatcher, analyzer ImpactAnalyzer, cfg config.Monitor, log *logger.Logger) Classifier {
	var known map[string]struct{}
	if len(cfg.KnownTickers) > 0 {
		known = make(map[string]struct{}, len(cfg.KnownTickers))
		for _, t := range cfg.KnownTickers {
			known[dto.NormalizeTicker(t)] = struct{}{}
		}
	}

	var verdicts *cache.Cache
	if cfg.VerdictCacheTTL > 0 {
		verdicts = cache.New(cfg.VerdictCacheTTL, 2*cfg.VerdictCacheTTL)
	}

	return &classifier{
		matcher:        matcher,
		analyzer:       analyzer,
		matchTimeout:   cfg.MatchTimeout,
		analyzeTimeout: cfg.AnalyzeTimeout,
		known:          known,
		verdicts:       verdicts,
		logger:         log,
	}
}

type classifier struct {
	matcher        TickerMatcher
	analyzer       ImpactAnalyzer
	matchTimeout   time.Duration
	analyzeTimeout time.Duration
	known          map[string]struct{}
	verdicts       *cache.Cache
	logger         *logger.Logger
}

func (c *classifier) Classify(ctx context.Context, item entity.FeedItem) []entity.Signal {
	tickers := c.match(ctx, item)
	if len(tickers) == 0 {
		return nil
	}

	var signals []entity.Signal
	for _, ticker := range tickers {
		if !utils.ShouldContinue(ctx, c.logger) {
			break
		}
		verdict := c.analyze(ctx, ticker, item)
		if !verdict.Signal.Actionable() {
			c.logger.Debug("Verdict dropped",
				logger.StringField("ticker", ticker),
				logger.StringField("link", item.Link),
				logger.StringField("signal", string(verdict.Signal)),
				logger.StringField("reason", verdict.Reason),
			)
			continue
		}
		signals = append(signals, entity.Signal{
			Ticker:        ticker,
			Action:        verdict.Signal,
			Sentiment:     verdict.Sentiment,
			ImpactPercent: verdict.ImpactPercent,
			Reason:        verdict.Reason,
			Title:         item.Title,
			Feed:          item.Feed,
			SourceURL:     item.Link,
		})
	}
	return signals
}

func (c *classifier) match(ctx context.Context, item entity.FeedItem) []string {
	mctx, cancel := withOptionalTimeout(ctx, c.matchTimeout)
	defer cancel()

	tickers, err := c.matcher.Match(mctx, item.Title, item.Summary)
	if err != nil {
		c.logger.Warn("Ticker matching failed, item discarded",
			logger.KindField(failureKind(err)),
			logger.ErrorField(err),
			logger.StringField("link", item.Link),
		)
		return nil
	}

	if c.known != nil {
		filtered := tickers[:0:0]
		for _, t := range tickers {
			if _, ok := c.known[t]; ok {
				filtered = append(filtered, t)
			}
		}
		tickers = filtered
	}

	if len(tickers) == 0 {
		c.logger.Debug("No tickers matched", logger.StringField("link", item.Link))
		return nil
	}
	c.logger.Info("Tickers matched", logger.StringsField("tickers", tickers), logger.StringField("title", item.Title))
	return tickers
}

func (c *classifier) analyze(ctx context.Context, ticker string, item entity.FeedItem) dto.Verdict {
	key := verdictKey(ticker, item.Title)
	if c.verdicts != nil {
		if v, ok := c.verdicts.Get(key); ok {
			return v.(dto.Verdict)
		}
	}

	actx, cancel := withOptionalTimeout(ctx, c.analyzeTimeout)
	defer cancel()

	verdict, err := c.analyzer.Analyze(actx, ticker, item.Title, item.Summary)
	if err != nil {
		c.logger.Warn("Impact analysis failed, using default verdict",
			logger.KindField(failureKind(err)),
			logger.ErrorField(err),
			logger.StringField("ticker", ticker),
			logger.StringField("link", item.Link),
		)
		return dto.DefaultVerdict()
	}

	if c.verdicts != nil {
		c.verdicts.SetDefault(key, verdict)
	}
	return verdict
}

// verdictKey identifies a headline per ticker regardless of casing and spacing,
// so syndicated copies across feeds share one verdict.
func verdictKey(ticker, title string) string {
	return ticker + "|" + strings.ToLower(utils.SafeText(title))
}

func failureKind(err error) logger.Kind {
	if errors.Is(err, repository.ErrMalformedOutput) {
		return logger.KindData
	}
	return logger.KindTransient
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
