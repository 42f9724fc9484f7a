package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/procurehq/backend-procure/internal/lock"
)

func newLocker(t *testing.T) lock.Locker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond}
}

func TestKey(t *testing.T) {
	require.Equal(t, "lock:comparison:RFQ-42", lock.Key("comparison", "RFQ-42"))
}

func TestWithLockSerialisesRebuilds(t *testing.T) {
	locker := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := lock.Key("comparison", "RFQ-42")

	var order []string
	var mu sync.Mutex
	firstHeld := make(chan struct{})
	releaseFirst := make(chan struct{})

	go func() {
		err := locker.WithLock(ctx, key, 100*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "first rebuild")
			mu.Unlock()
			close(firstHeld)
			<-releaseFirst
			return nil
		})
		require.NoError(t, err)
	}()

	<-firstHeld

	go func() {
		err := locker.WithLock(ctx, key, 100*time.Millisecond, func(context.Context) error {
			mu.Lock()
			order = append(order, "second rebuild")
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}()

	close(releaseFirst)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first rebuild", "second rebuild"}, order)
}

func TestWithLockGivesUpWhenHeld(t *testing.T) {
	locker := newLocker(t)
	key := lock.Key("comparison", "RFQ-7")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = locker.WithLock(context.Background(), key, time.Second, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, key, time.Second, func(context.Context) error {
		t.Fatal("callback must not run without the lock")
		return nil
	})
	require.ErrorIs(t, err, lock.ErrNotAcquired)
}

func TestWithLockReleasesAfterError(t *testing.T) {
	locker := newLocker(t)
	ctx := context.Background()
	key := lock.Key("comparison", "RFQ-13")

	boom := func(context.Context) error { return context.DeadlineExceeded }
	require.Error(t, locker.WithLock(ctx, key, time.Second, boom))

	// The failed rebuild must not leave the RFQ locked.
	ran := false
	require.NoError(t, locker.WithLock(ctx, key, time.Second, func(context.Context) error {
		ran = true
		return nil
	}))
	require.True(t, ran)
}
