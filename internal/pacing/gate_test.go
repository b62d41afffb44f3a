package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const interval = 20 * time.Millisecond

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitAsync(ctx context.Context, g *Gate) <-chan error {
	done := make(chan error, 1)
	go func() { done <- g.Wait(ctx) }()
	return done
}

func requireBlocked(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		t.Fatalf("wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
}

func requireDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return")
	}
}

func TestWaitReturnsAtBoundary(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)

	done := waitAsync(ctx, g)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	requireBlocked(t, done)

	fc.Advance(interval)
	requireDone(t, done)
}

func TestSignalBeforeWaitWakesImmediately(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)

	g.Signal()
	require.NoError(t, g.Wait(context.Background()))
}

func TestSignalsCoalesce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)

	g.Signal()
	g.Signal()
	g.Signal()
	require.NoError(t, g.Wait(ctx))

	done := waitAsync(ctx, g)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	requireBlocked(t, done)

	fc.Advance(interval)
	requireDone(t, done)
}

func TestSignalWakesPendingWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)

	done := waitAsync(ctx, g)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	g.Signal()
	requireDone(t, done)
}

func TestWaitHonoursContext(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)
	ctx, cancel := context.WithCancel(context.Background())

	done := waitAsync(ctx, g)
	require.NoError(t, fc.BlockUntilContext(context.Background(), 1))
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("wait ignored cancellation")
	}

	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)
}

func TestWaitSkipsMissedBoundaries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)

	fc.Advance(5 * interval)
	require.NoError(t, g.Wait(ctx))
	require.NoError(t, g.Wait(ctx))

	done := waitAsync(ctx, g)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	requireBlocked(t, done)
	fc.Advance(interval)
	requireDone(t, done)
}

func TestAdvanceClampsFutureBoundary(t *testing.T) {
	fc := clockwork.NewFakeClock()
	g := New(fc, interval)
	now := fc.Now()
	g.next = now.Add(10 * interval)

	assert.Equal(t, 2*interval, g.advance(now))
	assert.Equal(t, now, g.next)
}

func TestZeroIntervalNeverBlocks(t *testing.T) {
	g := New(clockwork.NewFakeClock(), 0)
	g.Signal()
	require.NoError(t, g.Wait(context.Background()))
	require.NoError(t, g.Wait(context.Background()))
}
