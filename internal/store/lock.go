package store

import (
	"context"
	"sync"
)

// Unlock releases a lock obtained from a Locker. It is safe to call once.
type Unlock func()

// Locker hands out mutually exclusive locks keyed by collection name.
// Locks on different names are independent.
type Locker interface {
	Lock(ctx context.Context, name string) (Unlock, error)
}

// LocalLocker serializes goroutines within one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates a new LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// Lock blocks until the named lock is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, name string) (Unlock, error) {
	ch := l.slot(name)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}
