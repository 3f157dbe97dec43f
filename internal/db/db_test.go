package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/techtribe/studio-api/internal/chat"
	"github.com/techtribe/studio-api/internal/models"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	gdb, err := Connect("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))

	for _, table := range []any{&models.User{}, &chat.Conversation{}, &chat.Message{}} {
		require.True(t, gdb.Migrator().HasTable(table), "missing table for %T", table)
	}

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_Idempotent(t *testing.T) {
	gdb, err := Connect("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	require.NoError(t, Migrate(gdb))
}
