package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/config"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/internal/monitor/repository"
	"golang-news-signal/pkg/common"
	"golang-news-signal/pkg/logger"
)

type monitorFixture struct {
	service   MonitorService
	signals   repository.SignalRepository
	transport *recordingNotifier
	heartbeat *memoryHeartbeat
	analyzer  *fakeAnalyzer
}

func newMonitorFixture(t *testing.T, feeds *fakeFeedRepo, prefs repository.PreferenceRepository) *monitorFixture {
	t.Helper()
	return newMonitorFixtureWithLogger(t, feeds, prefs, logger.NewNop())
}

func newMonitorFixtureWithLogger(t *testing.T, feeds *fakeFeedRepo, prefs repository.PreferenceRepository, log *logger.Logger) *monitorFixture {
	t.Helper()
	dir := t.TempDir()

	matcher := &fakeMatcher{byKey: map[string][]string{
		"Petrobras sobe": {"PETR4"},
		"Vale cai":       {"VALE3"},
		"Itau estavel":   {"ITUB4"},
	}}
	analyzer := &fakeAnalyzer{verdicts: map[string]dto.Verdict{
		"PETR4": {Signal: entity.ActionBuy, ImpactPercent: 4, Reason: "alta"},
		"VALE3": {Signal: entity.ActionSell, ImpactPercent: -3, Reason: "queda"},
	}}
	seen := repository.NewFileSeenItemRepository(filepath.Join(dir, "seen.json"), log)
	signals := repository.NewFileSignalRepository(filepath.Join(dir, "signals.json"), 100, log)
	transport := &recordingNotifier{}
	heartbeat := &memoryHeartbeat{}

	svc := NewMonitorService(MonitorDeps{
		Poller:      NewFeedPoller(feeds, seen, 2, log),
		Classifier:  NewClassifier(matcher, analyzer, config.Monitor{}, log),
		Router:      NewNotificationRouter(transport, 2, time.Second, log),
		SeenRepo:    seen,
		SignalRepo:  signals,
		PrefRepo:    prefs,
		Heartbeat:   heartbeat,
		Feeds:       threeFeeds,
		MaxParallel: 2,
	}, log)

	return &monitorFixture{service: svc, signals: signals, transport: transport, heartbeat: heartbeat, analyzer: analyzer}
}

func TestMonitorService_RunCycle(t *testing.T) {
	feeds := &fakeFeedRepo{
		items: map[string][]entity.FeedItem{
			"one":   {{Link: "https://one.example/petr", Title: "Petrobras sobe"}},
			"three": {{Link: "https://three.example/vale", Title: "Vale cai"}, {Link: "https://three.example/itub", Title: "Itau estavel"}},
		},
		fail: map[string]error{"two": errors.New("timeout")},
	}
	prefs := staticPrefs{
		"a": {RecipientID: "a"},
		"b": {RecipientID: "b", AllowList: entity.NewTickerSet("VALE3")},
	}
	f := newMonitorFixture(t, feeds, prefs)

	result := f.service.RunCycle(bg)

	assert.Equal(t, 3, result.NewItems)
	assert.True(t, result.FoundNew())
	assert.Equal(t, []string{"two"}, result.FailedFeeds)
	require.Len(t, result.Signals, 2)
	assert.Equal(t, 3, result.Deliveries[dto.OutcomeSent])
	assert.Equal(t, 1, result.Deliveries[dto.OutcomeSkippedAllow])
	assert.ElementsMatch(t, []string{"a", "a", "b"}, f.transport.recipients())

	logged, err := f.signals.List(bg, 0, false)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	for _, s := range logged {
		assert.NotEmpty(t, s.ID)
	}

	for _, msg := range f.transport.sent {
		assert.NotEmpty(t, msg.Data["signal_id"])
	}

	assert.Equal(t, []string{
		common.PhaseFetching,
		common.PhaseFetched,
		common.PhaseClassifying,
		common.PhaseClassified,
	}, f.heartbeat.phases())
}

func TestMonitorService_DedupAcrossCycles(t *testing.T) {
	feeds := &fakeFeedRepo{items: map[string][]entity.FeedItem{
		"one": {{Link: "https://one.example/petr", Title: "Petrobras sobe"}},
	}}
	f := newMonitorFixture(t, feeds, staticPrefs{"a": {RecipientID: "a"}})

	first := f.service.RunCycle(bg)
	second := f.service.RunCycle(bg)

	assert.Len(t, first.Signals, 1)
	assert.Equal(t, 0, second.NewItems)
	assert.False(t, second.FoundNew())
	assert.Empty(t, second.Signals)
	assert.Len(t, f.transport.sent, 1)
	assert.Equal(t, 1, f.analyzer.callCount())

	logged, err := f.signals.List(bg, 0, false)
	require.NoError(t, err)
	assert.Len(t, logged, 1)
	assert.Equal(t, []string{common.PhaseFetching, common.PhaseFetched}, f.heartbeat.phases()[4:])
}

func TestMonitorService_LogsSignalWithoutSubscribers(t *testing.T) {
	feeds := &fakeFeedRepo{items: map[string][]entity.FeedItem{
		"one": {{Link: "https://one.example/petr", Title: "Petrobras sobe"}},
	}}
	f := newMonitorFixture(t, feeds, staticPrefs{})

	result := f.service.RunCycle(bg)

	assert.Len(t, result.Signals, 1)
	assert.Empty(t, f.transport.sent)
	logged, err := f.signals.List(bg, 0, false)
	require.NoError(t, err)
	assert.Len(t, logged, 1)
}

type panickingPrefs struct{}

func (panickingPrefs) Snapshot(context.Context) (map[string]entity.Preference, error) {
	panic("runtime error: invalid memory address or nil pointer dereference")
}

type failingPrefs struct{}

func (failingPrefs) Snapshot(context.Context) (map[string]entity.Preference, error) {
	return nil, errors.New("registry locked")
}

func TestMonitorService_PreferenceStoreFailure(t *testing.T) {
	tests := []struct {
		name  string
		prefs repository.PreferenceRepository
	}{
		{name: "Panic", prefs: panickingPrefs{}},
		{name: "Error", prefs: failingPrefs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feeds := &fakeFeedRepo{items: map[string][]entity.FeedItem{
				"one": {{Link: "https://one.example/petr", Title: "Petrobras sobe"}},
			}}
			log, logs := newObservedLogger()
			f := newMonitorFixtureWithLogger(t, feeds, tt.prefs, log)

			result := f.service.RunCycle(bg)

			assert.True(t, result.FoundNew())
			require.Len(t, result.Signals, 1)
			assert.Empty(t, f.transport.sent)
			assert.Equal(t, 1, kindCount(logs, logger.KindStorage))

			logged, err := f.signals.List(bg, 0, false)
			require.NoError(t, err)
			require.Len(t, logged, 1)
			assert.Equal(t, "PETR4", logged[0].Ticker)
			assert.Equal(t, []string{
				common.PhaseFetching,
				common.PhaseFetched,
				common.PhaseClassifying,
				common.PhaseClassified,
			}, f.heartbeat.phases())
		})
	}
}

type fakeArticles struct {
	text  string
	err   error
	calls int
}

func (f *fakeArticles) Extract(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestMonitorService_Enrich(t *testing.T) {
	svc := &monitorService{logger: logger.NewNop()}
	item := entity.FeedItem{Link: "https://news.example/1", Title: "t"}

	assert.Equal(t, item, svc.enrich(bg, item))

	articles := &fakeArticles{text: "corpo da noticia"}
	svc.deps.Articles = articles
	assert.Equal(t, "corpo da noticia", svc.enrich(bg, item).Summary)

	withSummary := item
	withSummary.Summary = "resumo"
	assert.Equal(t, "resumo", svc.enrich(bg, withSummary).Summary)
	assert.Equal(t, 1, articles.calls)

	log, logs := newObservedLogger()
	svc.logger = log
	svc.deps.Articles = &fakeArticles{err: errors.New("403")}
	assert.Empty(t, svc.enrich(bg, item).Summary)
	assert.Equal(t, 1, kindCount(logs, logger.KindTransient))
}
