package rewards

import "sync"

// accountLocker serializes operations per user id. Locks for different users
// are independent; there is no global lock across accounts. Entries are kept
// for the process lifetime, bounded by the active user population.
type accountLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocker() *accountLocker {
	return &accountLocker{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the per-user mutex and returns its release function.
func (l *accountLocker) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
