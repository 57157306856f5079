package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-news-signal/internal/entity"
	"golang-news-signal/pkg/common"
	"golang-news-signal/pkg/config"
)

// Monitor holds the polling loop configuration.
type Monitor struct {
	IdleDelay           time.Duration `mapstructure:"idle_delay"`
	BurstDelay          time.Duration `mapstructure:"burst_delay"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	MatchTimeout        time.Duration `mapstructure:"match_timeout"`
	AnalyzeTimeout      time.Duration `mapstructure:"analyze_timeout"`
	SendTimeout         time.Duration `mapstructure:"send_timeout"`
	MaxConcurrentFeeds  int           `mapstructure:"max_concurrent_feeds"`
	MaxConcurrentItems  int           `mapstructure:"max_concurrent_items"`
	MaxConcurrentSends  int           `mapstructure:"max_concurrent_sends"`
	VerdictCacheTTL     time.Duration `mapstructure:"verdict_cache_ttl"`
	HeartbeatStaleAfter time.Duration `mapstructure:"heartbeat_stale_after"`
	WatchdogSchedule    string        `mapstructure:"watchdog_schedule"`
	KnownTickers        []string      `mapstructure:"known_tickers"`
	Location            string        `mapstructure:"location"`

	// EnrichEmptySummaries fetches the article page for items published without a summary.
	EnrichEmptySummaries bool `mapstructure:"enrich_empty_summaries"`
}

// Storage selects and locates the persistence backends.
type Storage struct {
	Ledger        string `mapstructure:"ledger"`
	SignalLog     string `mapstructure:"signal_log"`
	Heartbeat     string `mapstructure:"heartbeat"`
	SeenFile      string `mapstructure:"seen_file"`
	SignalsFile   string `mapstructure:"signals_file"`
	HeartbeatFile string `mapstructure:"heartbeat_file"`
	MaxSignals    int    `mapstructure:"max_signals"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	MatcherModel        string `mapstructure:"matcher_model"`
	AnalyzerModel       string `mapstructure:"analyzer_model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Notification selects the push transport.
type Notification struct {
	Transport string `mapstructure:"transport"`
}

// Expo holds the Expo push configuration.
type Expo struct {
	PushURL     string `mapstructure:"push_url"`
	AccessToken string `mapstructure:"access_token"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
}

// Preferences locates the subscriber registry written by the control plane.
type Preferences struct {
	Path            string `mapstructure:"path"`
	LegacyTokenPath string `mapstructure:"legacy_token_path"`
}

// Config holds the full configuration for the monitor service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Metrics      config.Metrics  `mapstructure:"metrics"`
	Monitor      Monitor         `mapstructure:"monitor"`
	Storage      Storage         `mapstructure:"storage"`
	Feeds        []entity.Feed   `mapstructure:"feeds"`
	Gemini       Gemini          `mapstructure:"gemini"`
	Notification Notification    `mapstructure:"notification"`
	Expo         Expo            `mapstructure:"expo"`
	Telegram     Telegram        `mapstructure:"telegram"`
	Preferences  Preferences     `mapstructure:"preferences"`
}

// Load loads the monitor configuration from the given path and applies defaults.
// It does not validate; callers that need a runnable configuration call Validate.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	m := &c.Monitor
	setDuration(&m.IdleDelay, 30*time.Second)
	setDuration(&m.BurstDelay, 10*time.Second)
	setDuration(&m.FetchTimeout, 20*time.Second)
	setDuration(&m.MatchTimeout, 60*time.Second)
	setDuration(&m.AnalyzeTimeout, 60*time.Second)
	setDuration(&m.SendTimeout, 15*time.Second)
	setDuration(&m.VerdictCacheTTL, 10*time.Minute)
	setDuration(&m.HeartbeatStaleAfter, 5*time.Minute)
	setInt(&m.MaxConcurrentFeeds, 4)
	setInt(&m.MaxConcurrentItems, 4)
	setInt(&m.MaxConcurrentSends, 8)
	setString(&m.WatchdogSchedule, "@every 1m")
	setString(&m.Location, "America/Sao_Paulo")
	for i, t := range m.KnownTickers {
		m.KnownTickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}

	s := &c.Storage
	setString(&s.Ledger, common.StorageFile)
	setString(&s.SignalLog, common.StorageFile)
	setString(&s.Heartbeat, common.StorageFile)
	setString(&s.SeenFile, "seen_news.json")
	setString(&s.SignalsFile, "signals.json")
	setString(&s.HeartbeatFile, "heartbeat.json")
	setInt(&s.MaxSignals, 1000)

	setString(&c.Gemini.MatcherModel, "gemma-3-12b-it")
	setString(&c.Gemini.AnalyzerModel, "gemma-3-27b-it")
	setInt(&c.Gemini.MaxRequestPerMinute, 30)

	setString(&c.Notification.Transport, common.TransportExpo)
	setString(&c.Preferences.Path, "tokens.json")
	setString(&c.Preferences.LegacyTokenPath, "token.txt")
	setString(&c.Redis.KeyPrefix, common.DefaultRedisKeyPrefix)
	setString(&c.Logger.Level, "info")
	setString(&c.Logger.Encoding, "json")
	setString(&c.App.Name, "news-signal-monitor")

	for i := range c.Feeds {
		f := &c.Feeds[i]
		f.URL = strings.TrimSpace(f.URL)
		if f.Name == "" {
			f.Name = f.URL
		}
	}
}

// Validate reports configuration problems that make the monitor unable to run.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Feeds) == 0 {
		errs = append(errs, errors.New("at least one feed is required"))
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			errs = append(errs, fmt.Errorf("feed %d (%s) has no url", i, f.Name))
		}
	}
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("gemini.api_key is required"))
	}
	if c.Monitor.IdleDelay <= 0 || c.Monitor.BurstDelay <= 0 {
		errs = append(errs, errors.New("monitor delays must be positive"))
	}
	if c.Storage.MaxSignals <= 0 {
		errs = append(errs, errors.New("storage.max_signals must be positive"))
	}
	errs = append(errs, checkDriver("storage.ledger", c.Storage.Ledger, common.StorageFile, common.StorageRedis))
	errs = append(errs, checkDriver("storage.heartbeat", c.Storage.Heartbeat, common.StorageFile, common.StorageRedis))
	errs = append(errs, checkDriver("storage.signal_log", c.Storage.SignalLog, common.StorageFile, common.StorageDatabase))

	switch c.Notification.Transport {
	case common.TransportExpo:
	case common.TransportTelegram:
		if c.Telegram.BotToken == "" {
			errs = append(errs, errors.New("telegram.bot_token is required for the telegram transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported notification transport %q", c.Notification.Transport))
	}
	return errors.Join(errs...)
}

func checkDriver(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported driver %q", key, value)
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}

func setInt(i *int, def int) {
	if *i <= 0 {
		*i = def
	}
}

func setString(s *string, def string) {
	if strings.TrimSpace(*s) == "" {
		*s = def
	}
}
