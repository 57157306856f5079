package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB(t *testing.T) {
	t.Run("SQLiteMemory", func(t *testing.T) {
		db, err := NewDB(Config{Driver: "sqlite", DBName: ":memory:", MaxOpenConns: 1, ConnMaxLifetime: "1m"})
		require.NoError(t, err)
		sqlDB, err := db.DB.DB()
		require.NoError(t, err)
		assert.NoError(t, sqlDB.Ping())
		_ = sqlDB.Close()
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := NewDB(Config{Driver: "oracle"})
		assert.Error(t, err)
	})

	t.Run("BadLifetime", func(t *testing.T) {
		_, err := NewDB(Config{Driver: "sqlite", DBName: ":memory:", ConnMaxLifetime: "soon"})
		assert.Error(t, err)
	})
}
