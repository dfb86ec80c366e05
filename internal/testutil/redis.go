// Package testutil provides shared helpers for tests that need a live Redis.
// An in-process miniredis instance stands in for the real server, so the
// whole suite runs without external services.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/roost-io/roost/pkg/bus"
)

// StartBus spins up a miniredis and returns a bus connected to it.
// Both are torn down via t.Cleanup.
func StartBus(t *testing.T, instanceName string) (*bus.Bus, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	b, err := bus.New(&redis.Options{Addr: mr.Addr()}, instanceName)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	return b, mr
}
