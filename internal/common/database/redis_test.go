package database

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iq-bot/internal/common/config"
)

func TestNewRedisPing(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client := NewRedis(config.RedisConfig{Host: mr.Host(), Port: port})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, mr.Addr(), client.Client.Options().Addr)
}

func TestPingFailsWhenServerIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	client := NewRedis(config.RedisConfig{Address: addr})
	defer client.Close()

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}
