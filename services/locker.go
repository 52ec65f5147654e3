package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TableLocker serializes check-then-act sequences that touch the same
// tables on the same date. Lock blocks until every key is held or ctx is
// done; the returned func releases all of them.
type TableLocker interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
}

func tableDateKey(tableID uint, date string) string {
	return fmt.Sprintf("table:%d:%s", tableID, date)
}

func reservationKey(reservationID uint) string {
	return fmt.Sprintf("reservation:%d", reservationID)
}

// normalizeKeys sorts and de-duplicates keys so that two callers always
// acquire overlapping key sets in the same order.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MemoryLocker is a TableLocker for a single process.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *MemoryLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	keys = normalizeKeys(keys)
	held := make([]chan struct{}, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	for _, k := range keys {
		ch := l.slot(k)
		select {
		case ch <- struct{}{}:
			held = append(held, ch)
		case <-ctx.Done():
			release()
			return nil, fmt.Errorf("acquire lock %s: %w", k, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
