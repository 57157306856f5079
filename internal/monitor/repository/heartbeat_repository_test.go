package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-news-signal/internal/entity"
)

func TestHeartbeatRepository(t *testing.T) {
	_, client := newMiniredis(t)
	backends := map[string]HeartbeatRepository{
		"file":  NewFileHeartbeatRepository(filepath.Join(t.TempDir(), "heartbeat.json")),
		"redis": NewRedisHeartbeatRepository(client, "test:heartbeat"),
	}

	for name, repo := range backends {
		t.Run(name, func(t *testing.T) {
			_, found, err := repo.Load(bg)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, repo.Save(bg, entity.Heartbeat{Status: "fetching", LastUpdate: 100, Message: "3 feeds", PID: 42}))
			require.NoError(t, repo.Save(bg, entity.Heartbeat{Status: "sleeping", LastUpdate: 160, Message: "", PID: 42}))

			hb, found, err := repo.Load(bg)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, entity.Heartbeat{Status: "sleeping", LastUpdate: 160, Message: "", PID: 42}, hb)
		})
	}
}

func TestFileHeartbeatRepository_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o600))

	_, found, err := NewFileHeartbeatRepository(path).Load(bg)
	assert.Error(t, err)
	assert.False(t, found)
}
