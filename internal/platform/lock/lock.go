// Package lock serialises writers per patient.
package lock

import (
	"context"
	"sync"
)

// Locker grants exclusive access to a key until the returned release
// function is called. Lock blocks until the key is free or ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

type keyed struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker is an in-process keyed mutex.
type MemoryLocker struct {
	mu   sync.Mutex
	keys map[string]*keyed
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{keys: make(map[string]*keyed)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	k, ok := l.keys[key]
	if !ok {
		k = &keyed{ch: make(chan struct{}, 1)}
		l.keys[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, k)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-k.ch
			l.unref(key, k)
		})
	}, nil
}

func (l *MemoryLocker) unref(key string, k *keyed) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k.refs--
	if k.refs == 0 {
		delete(l.keys, key)
	}
}
