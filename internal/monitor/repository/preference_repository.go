package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang-news-signal/internal/entity"
	"golang-news-signal/internal/monitor/dto"
	"golang-news-signal/pkg/logger"
	"golang-news-signal/pkg/metrics"
)

// PreferenceRepository reads the subscriber registry maintained by the control plane.
type PreferenceRepository interface {
	// Snapshot returns recipient id -> preference as currently persisted. It is
	// re-read on every call.
	Snapshot(ctx context.Context) (map[string]entity.Preference, error)
}

type filePreferenceRepository struct {
	path       string
	legacyPath string
	logger     *logger.Logger
}

// NewFilePreferenceRepository reads the registry at path and, when legacyPath is
// set, a single bare recipient token from legacyPath.
func NewFilePreferenceRepository(path, legacyPath string, log *logger.Logger) PreferenceRepository {
	return &filePreferenceRepository{path: path, legacyPath: legacyPath, logger: log}
}

// preferenceRecord is the on-disk layout of one subscriber. Lists are pointers so
// a record written before a list field existed can be told apart from an empty list.
type preferenceRecord struct {
	MinBuy    interface{} `json:"min_buy"`
	MinSell   interface{} `json:"min_sell"`
	Whitelist *[]string   `json:"whitelist"`
	Blacklist *[]string   `json:"blacklist"`
}

// upgrade fills every list field the record does not carry. Each field is
// defaulted on its own so partially written records are accepted.
func (r preferenceRecord) upgrade() preferenceRecord {
	if r.Whitelist == nil {
		r.Whitelist = &[]string{}
	}
	if r.Blacklist == nil {
		r.Blacklist = &[]string{}
	}
	return r
}

func (r preferenceRecord) toPreference(recipientID string) entity.Preference {
	r = r.upgrade()
	minBuy := dto.ParseImpact(r.MinBuy)
	if minBuy < 0 {
		minBuy = 0
	}
	minSell := dto.ParseImpact(r.MinSell)
	if minSell < 0 {
		minSell = -minSell
	}
	return entity.Preference{
		RecipientID:   recipientID,
		MinBuyImpact:  minBuy,
		MinSellImpact: minSell,
		AllowList:     tickerSet(*r.Whitelist),
		DenyList:      tickerSet(*r.Blacklist),
	}
}

func tickerSet(tickers []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if t = dto.NormalizeTicker(t); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func defaultPreference(recipientID string) entity.Preference {
	return preferenceRecord{}.toPreference(recipientID)
}

func (r *filePreferenceRepository) Snapshot(_ context.Context) (map[string]entity.Preference, error) {
	prefs, err := r.readRegistry()
	if err != nil {
		r.logger.Error("Preference registry unreadable, using empty snapshot", logger.KindField(logger.KindStorage), logger.ErrorField(err), logger.StringField("path", r.path))
		metrics.IncStorageError("preferences")
		prefs = map[string]entity.Preference{}
	}

	if token := r.readLegacyToken(); token != "" {
		if _, ok := prefs[token]; !ok {
			prefs[token] = defaultPreference(token)
		}
	}
	return prefs, nil
}

func (r *filePreferenceRepository) readRegistry() (map[string]entity.Preference, error) {
	prefs := map[string]entity.Preference{}
	if r.path == "" {
		return prefs, nil
	}

	// #nosec G304 -- path comes from service configuration.
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return prefs, nil
	}

	switch data[0] {
	case '[':
		var tokens []string
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", r.path, err)
		}
		for _, token := range tokens {
			if token = strings.TrimSpace(token); token != "" {
				prefs[token] = defaultPreference(token)
			}
		}
	case '{':
		var records map[string]preferenceRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", r.path, err)
		}
		for token, record := range records {
			if token = strings.TrimSpace(token); token != "" {
				prefs[token] = record.toPreference(token)
			}
		}
	default:
		return nil, fmt.Errorf("failed to decode %s: unexpected registry layout", r.path)
	}
	return prefs, nil
}

func (r *filePreferenceRepository) readLegacyToken() string {
	if r.legacyPath == "" {
		return ""
	}
	// #nosec G304 -- path comes from service configuration.
	data, err := os.ReadFile(r.legacyPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("Legacy token file unreadable", logger.KindField(logger.KindStorage), logger.ErrorField(err), logger.StringField("path", r.legacyPath))
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
