package services

import "sync"

// EventLocker serialises mutations of one event's entries within the
// process. Locks are created on demand and dropped once no caller holds or
// waits for them.
type EventLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewEventLocker() *EventLocker {
	return &EventLocker{locks: make(map[string]*refLock)}
}

// Lock blocks until the caller holds eventID's lock and returns its release.
func (l *EventLocker) Lock(eventID string) (unlock func()) {
	l.mu.Lock()
	rl, ok := l.locks[eventID]
	if !ok {
		rl = &refLock{}
		l.locks[eventID] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, eventID)
		}
		l.mu.Unlock()
	}
}

func (l *EventLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
