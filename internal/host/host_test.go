package host

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dyluth/lattice/pkg/blackboard"
	"github.com/dyluth/lattice/pkg/ident"
)

// setupStore creates a blackboard client connected to a miniredis instance
func setupStore(t *testing.T) *blackboard.Client {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client, err := blackboard.NewClient(&redis.Options{Addr: mr.Addr()}, "host-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func testSource() *ident.Fixed {
	return ident.NewFixed(time.Date(2025, 5, 5, 8, 0, 0, 0, time.UTC))
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

var ctx = context.Background()
