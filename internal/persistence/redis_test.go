package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestNewRedisWithoutAddr(t *testing.T) {
	r, err := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestNewRedisConnects(t *testing.T) {
	s := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: s.Addr()}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, r)
	t.Cleanup(r.Close)

	assert.NoError(t, r.Ping(context.Background()))
}

func TestNewRedisUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	addr := s.Addr()
	s.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}
