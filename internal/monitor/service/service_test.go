package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/notifier"
)

var bg = context.Background()

func newObservedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}

func kindCount(logs *observer.ObservedLogs, kind logger.Kind) int {
	return logs.FilterField(logger.KindField(kind)).Len()
}

type fakeFeedRepo struct {
	items map[string][]entity.FeedItem
	fail  map[string]error
}

func (f *fakeFeedRepo) Fetch(_ context.Context, feed entity.Feed) ([]entity.FeedItem, error) {
	if err := f.fail[feed.Name]; err != nil {
		return nil, err
	}
	return f.items[feed.Name], nil
}

type fakeMatcher struct {
	mu    sync.Mutex
	byKey map[string][]string
	err   error
	calls int
}

func (f *fakeMatcher) Match(_ context.Context, title, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byKey[title], nil
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	verdicts map[string]dto.Verdict
	errs     map[string]error
	calls    []string
}

func (f *fakeAnalyzer) Analyze(_ context.Context, ticker, _, _ string) (dto.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ticker)
	if err := f.errs[ticker]; err != nil {
		return dto.DefaultVerdict(), err
	}
	v, ok := f.verdicts[ticker]
	if !ok {
		return dto.Verdict{Signal: entity.ActionHold, Sentiment: entity.SentimentNeutral}, nil
	}
	return v, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifier.Message
	fail map[string]bool
}

func (r *recordingNotifier) Send(_ context.Context, msg notifier.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[msg.RecipientID] {
		return &notifier.Error{Transport: "fake", Recipient: msg.RecipientID, Err: errors.New("unreachable")}
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingNotifier) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, m := range r.sent {
		out = append(out, m.RecipientID)
	}
	return out
}

type staticPrefs map[string]entity.Preference

func (s staticPrefs) Snapshot(context.Context) (map[string]entity.Preference, error) {
	return map[string]entity.Preference(s), nil
}

type memoryHeartbeat struct {
	mu      sync.Mutex
	history []entity.Heartbeat
}

func (m *memoryHeartbeat) Save(_ context.Context, hb entity.Heartbeat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, hb)
	return nil
}

func (m *memoryHeartbeat) Load(context.Context) (entity.Heartbeat, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return entity.Heartbeat{}, false, nil
	}
	return m.history[len(m.history)-1], true, nil
}

func (m *memoryHeartbeat) phases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.history))
	for _, hb := range m.history {
		out = append(out, hb.Status)
	}
	return out
}
