package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rrens/fairway/internal/domain"
)

// SenderLocker serializes message handling per conversation key
type SenderLocker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases the key.
	Lock(ctx context.Context, key string) (func(), error)
}

// KeyedMutex is an in-process SenderLocker for single-node deployments
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an in-process keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l, false)
		return nil, fmt.Errorf("lock %s: %w: %w", key, domain.ErrBusy, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, l, true) })
	}, nil
}

func (k *KeyedMutex) release(key string, l *keyLock, held bool) {
	if held {
		<-l.ch
	}
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}
