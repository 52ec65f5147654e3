package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKeys(t *testing.T) {
	got := normalizeKeys([]string{"table:2:2024-06-01", "reservation:1", "table:2:2024-06-01", "table:1:2024-06-01"})
	assert.Equal(t, []string{"reservation:1", "table:1:2024-06-01", "table:2:2024-06-01"}, got)
	assert.Equal(t, "table:7:2024-06-01", tableDateKey(7, "2024-06-01"))
	assert.Equal(t, "reservation:9", reservationKey(9))
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, []string{"a", "b"})
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, []string{"c", "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// "c" was released when the second Lock gave up.
	unlockC, err := l.Lock(ctx, []string{"c"})
	require.NoError(t, err)
	unlockC()

	unlock()
	unlock()

	unlockB, err := l.Lock(ctx, []string{"b"})
	require.NoError(t, err)
	unlockB()
}

func TestMemoryLockerWaitsForRelease(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlock, err := l.Lock(ctx, []string{"table:1:2024-06-01"})
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := l.Lock(ctx, []string{"table:1:2024-06-01"})
		if err == nil {
			u()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(30 * time.Millisecond):
	}
	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock not acquired after release")
	}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, 10*time.Second)
	l.retry = 5 * time.Millisecond
	ctx := context.Background()

	unlock, err := l.Lock(ctx, []string{"table:1:2024-06-01", "reservation:1"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("reservations:lock:table:1:2024-06-01"))
	assert.True(t, mr.Exists("reservations:lock:reservation:1"))
	assert.Equal(t, 10*time.Second, mr.TTL("reservations:lock:reservation:1"))

	short, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(short, []string{"reservation:2", "table:1:2024-06-01"})
	assert.Error(t, err)
	assert.False(t, mr.Exists("reservations:lock:reservation:2"), "partial acquisition is rolled back")

	unlock()
	assert.False(t, mr.Exists("reservations:lock:table:1:2024-06-01"))
	assert.False(t, mr.Exists("reservations:lock:reservation:1"))

	unlock, err = l.Lock(ctx, []string{"table:1:2024-06-01"})
	require.NoError(t, err)
	unlock()
}

func TestRedisLockerExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, time.Second)
	l.retry = 5 * time.Millisecond
	ctx := context.Background()

	stale, err := l.Lock(ctx, []string{"table:3:2024-06-01"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := l.Lock(ctx, []string{"table:3:2024-06-01"})
	require.NoError(t, err)

	// The expired holder must not release the new holder's key.
	stale()
	assert.True(t, mr.Exists("reservations:lock:table:3:2024-06-01"))

	fresh()
	assert.False(t, mr.Exists("reservations:lock:table:3:2024-06-01"))
}

func TestRedisLockerDefaults(t *testing.T) {
	l := NewRedisLocker(nil, 0)
	assert.Equal(t, 15*time.Second, l.ttl)
	_, err := l.Lock(context.Background(), []string{"a"})
	assert.Error(t, err)
}
