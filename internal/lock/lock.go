// Package lock provides per-vehicle mutual exclusion. A Locker never blocks
// callers that target different vehicles.
package lock

import (
	"context"
	"sync"
)

// Unlock releases a lock obtained from Locker.Lock. It is safe to call once.
type Unlock func()

type Locker interface {
	// Lock blocks until the vehicle is free or ctx is done, in which case ctx.Err() is returned.
	Lock(ctx context.Context, vehicleID int64) (Unlock, error)
}

type slot struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex; slots are dropped once nobody waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[int64]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, vehicleID int64) (Unlock, error) {
	l.mu.Lock()
	s, ok := l.slots[vehicleID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[vehicleID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(vehicleID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(vehicleID, s)
		})
	}, nil
}

func (l *LocalLocker) drop(vehicleID int64, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, vehicleID)
	}
}

var _ Locker = (*LocalLocker)(nil)
