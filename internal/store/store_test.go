package store

import (
	"context"
	"testing"

	"shopapi/internal/config"
	"shopapi/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestOpen_Memory(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	repo, cleanup, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMemory}, zap.New(core))
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &user.MemoryRepo{}, repo)
	assert.NoError(t, repo.Ping(context.Background()))
	assert.Equal(t, 1, logs.Len())
}

func TestOpen_UnknownDriver(t *testing.T) {
	repo, cleanup, err := Open(context.Background(), config.Config{StoreDriver: "sqlite"}, zap.NewNop())

	assert.Error(t, err)
	assert.Nil(t, repo)
	assert.NotNil(t, cleanup)
}
