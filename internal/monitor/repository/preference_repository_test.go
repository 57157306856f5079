package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-news-signal/internal/entity"
	"golang-news-signal/pkg/logger"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFilePreferenceRepository_Snapshot(t *testing.T) {
	empty := map[string]struct{}{}

	tests := []struct {
		name    string
		content string
		want    map[string]entity.Preference
	}{
		{
			name:    "V0TokenArray",
			content: `["ExponentPushToken[a]", " ", "ExponentPushToken[b]"]`,
			want: map[string]entity.Preference{
				"ExponentPushToken[a]": {RecipientID: "ExponentPushToken[a]", AllowList: empty, DenyList: empty},
				"ExponentPushToken[b]": {RecipientID: "ExponentPushToken[b]", AllowList: empty, DenyList: empty},
			},
		},
		{
			name:    "V1WithoutLists",
			content: `{"tok": {"min_buy": 5, "min_sell": -3}}`,
			want: map[string]entity.Preference{
				"tok": {RecipientID: "tok", MinBuyImpact: 5, MinSellImpact: 3, AllowList: empty, DenyList: empty},
			},
		},
		{
			name:    "V2WithLists",
			content: `{"tok": {"min_buy": "-2", "min_sell": 4, "whitelist": ["petr4", " VALE3 "], "blacklist": ["mglu3"]}}`,
			want: map[string]entity.Preference{
				"tok": {
					RecipientID:   "tok",
					MinBuyImpact:  0,
					MinSellImpact: 4,
					AllowList:     entity.NewTickerSet("PETR4", "VALE3"),
					DenyList:      entity.NewTickerSet("MGLU3"),
				},
			},
		},
		{
			name:    "WhitelistOnly",
			content: `{"tok": {"min_buy": 2, "whitelist": ["PETR4"]}}`,
			want: map[string]entity.Preference{
				"tok": {RecipientID: "tok", MinBuyImpact: 2, AllowList: entity.NewTickerSet("PETR4"), DenyList: empty},
			},
		},
		{
			name:    "BlacklistOnlyNullWhitelist",
			content: `{"tok": {"min_sell": 1, "whitelist": null, "blacklist": ["mglu3"]}}`,
			want: map[string]entity.Preference{
				"tok": {RecipientID: "tok", MinSellImpact: 1, AllowList: empty, DenyList: entity.NewTickerSet("MGLU3")},
			},
		},
		{
			name:    "EmptyFile",
			content: "",
			want:    map[string]entity.Preference{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFilePreferenceRepository(writeRegistry(t, tt.content), "", logger.NewNop())
			got, err := repo.Snapshot(bg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilePreferenceRepository_MissingAndCorrupt(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		log, logs := newObservedLogger()
		repo := NewFilePreferenceRepository(filepath.Join(t.TempDir(), "tokens.json"), "", log)
		got, err := repo.Snapshot(bg)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 0, kindCount(logs, logger.KindStorage))
	})

	t.Run("Corrupt", func(t *testing.T) {
		log, logs := newObservedLogger()
		repo := NewFilePreferenceRepository(writeRegistry(t, `{"tok": [`), "", log)
		got, err := repo.Snapshot(bg)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, 1, kindCount(logs, logger.KindStorage))
	})
}

func TestFilePreferenceRepository_LegacyToken(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "token.txt")
	require.NoError(t, os.WriteFile(legacy, []byte("  legacy-token\n"), 0o600))

	registry := writeRegistry(t, `{"tok": {"min_buy": 1, "min_sell": 1}}`)
	got, err := NewFilePreferenceRepository(registry, legacy, logger.NewNop()).Snapshot(bg)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got["legacy-token"].MinBuyImpact)
	assert.Equal(t, 1, got["tok"].MinBuyImpact)

	t.Run("DoesNotOverrideRegistered", func(t *testing.T) {
		require.NoError(t, os.WriteFile(legacy, []byte("tok"), 0o600))
		got, err := NewFilePreferenceRepository(registry, legacy, logger.NewNop()).Snapshot(bg)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1, got["tok"].MinBuyImpact)
	})
}

func TestFilePreferenceRepository_ReReadsEachSnapshot(t *testing.T) {
	path := writeRegistry(t, `["a"]`)
	repo := NewFilePreferenceRepository(path, "", logger.NewNop())

	first, err := repo.Snapshot(bg)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	require.NoError(t, os.WriteFile(path, []byte(`["a","b"]`), 0o600))
	second, err := repo.Snapshot(bg)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}
