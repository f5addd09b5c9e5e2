package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"querystack/internal/database"
	"querystack/internal/models"
)

func memoryConfig() database.Config {
	return database.Config{
		Driver:   "sqlite",
		DSN:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel: gormlogger.Silent,
	}
}

func TestPool_LazyOpenAndMigrate(t *testing.T) {
	pool := database.New(memoryConfig(), zap.NewNop())
	defer pool.Close()

	ctx := context.Background()
	require.NoError(t, pool.Ping(ctx))

	db, err := pool.DB(ctx)
	require.NoError(t, err)
	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}

	again, err := pool.DB(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.Statement.ConnPool, again.Statement.ConnPool)
}

func TestPool_UnsupportedDriver(t *testing.T) {
	pool := database.New(database.Config{Driver: "oracle"}, zap.NewNop())
	err := pool.Ping(context.Background())
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	pool := database.New(memoryConfig(), zap.NewNop())
	assert.NoError(t, pool.Close())
	require.NoError(t, pool.Ping(context.Background()))
	assert.NoError(t, pool.Close())
	assert.NoError(t, pool.Close())
}
