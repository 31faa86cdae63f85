package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tablebook/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_ExpiresAfterLifetime(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTL[int, string](time.Minute, clk)
	defer c.Stop()

	c.Set(1, "monday")

	v, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "monday", v)

	clk.Advance(59 * time.Second)
	_, ok = c.Get(1)
	assert.True(t, ok, "entry should still be fresh just before the TTL")

	clk.Advance(time.Second)
	_, ok = c.Get(1)
	assert.False(t, ok, "entry should expire exactly at the TTL")
}

func TestTTL_Invalidate(t *testing.T) {
	c := NewTTL[string, int](time.Hour, nil)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
}

func TestTTL_GetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := NewTTL[int, string](time.Hour, nil)
	defer c.Stop()

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "loaded", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), 3, load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "loaded", r)
	}
}

func TestTTL_GetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewTTL[int, string](time.Hour, nil)
	defer c.Stop()

	boom := errors.New("store unavailable")
	_, err := c.GetOrLoad(context.Background(), 1, func(ctx context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	v, err := c.GetOrLoad(context.Background(), 1, func(ctx context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

// staleLoad starts a GetOrLoad for key whose loader blocks until release is
// closed, and returns once the loader is running.
func staleLoad(t *testing.T, c *TTL[int, string], key int, release <-chan struct{}) <-chan string {
	t.Helper()

	started := make(chan struct{})
	done := make(chan string, 1)
	go func() {
		v, err := c.GetOrLoad(context.Background(), key, func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "old hours", nil
		})
		assert.NoError(t, err)
		done <- v
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("loader did not start")
	}
	return done
}

func TestTTL_InvalidateDuringLoadKeepsStaleValueOut(t *testing.T) {
	c := NewTTL[int, string](time.Hour, nil)
	defer c.Stop()

	release := make(chan struct{})
	done := staleLoad(t, c, 5, release)

	c.Invalidate(5)

	v, err := c.GetOrLoad(context.Background(), 5, func(ctx context.Context) (string, error) {
		return "new hours", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new hours", v, "a miss after invalidation must not join the earlier load")

	close(release)
	assert.Equal(t, "old hours", <-done)

	v, ok := c.Get(5)
	require.True(t, ok)
	assert.Equal(t, "new hours", v)
}

func TestTTL_InvalidateDuringLoadWithoutReload(t *testing.T) {
	c := NewTTL[int, string](time.Hour, nil)
	defer c.Stop()

	release := make(chan struct{})
	done := staleLoad(t, c, 2, release)

	c.Invalidate(2)
	close(release)
	<-done

	_, ok := c.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTL_InvalidateAllDuringLoad(t *testing.T) {
	c := NewTTL[int, string](time.Hour, nil)
	defer c.Stop()

	release := make(chan struct{})
	done := staleLoad(t, c, 1, release)

	c.InvalidateAll()

	v, err := c.GetOrLoad(context.Background(), 1, func(ctx context.Context) (string, error) {
		return "new hours", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new hours", v)

	close(release)
	<-done

	v, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "new hours", v)
}

func TestTTL_StopIsIdempotent(t *testing.T) {
	c := NewTTL[int, int](time.Minute, nil)
	c.Stop()
	assert.NotPanics(t, c.Stop)
}
