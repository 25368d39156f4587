package session

import (
	"sync"
	"time"
)

type item struct {
	data   []byte
	expiry time.Time
}

// MemStore is an in-memory Store with TTL cleanup. Suitable for a
// single-process deployment; sessions do not survive a restart.
type MemStore struct {
	mu    sync.RWMutex
	items map[string]item

	stop chan struct{}
}

// New returns a MemStore sweeping expired entries every minute.
func New() *MemStore {
	return NewWithCleanupInterval(time.Minute)
}

// NewWithCleanupInterval returns a MemStore sweeping at the given interval.
// An interval of 0 disables the sweeper; expired entries are still hidden
// from Find and All.
func NewWithCleanupInterval(interval time.Duration) *MemStore {
	s := &MemStore{items: make(map[string]item)}
	if interval > 0 {
		s.stop = make(chan struct{})
		go s.cleanupLoop(interval)
	}
	return s
}

func (s *MemStore) Find(token string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[token]
	if !ok || time.Now().After(it.expiry) {
		return nil, false, nil
	}
	return it.data, true, nil
}

func (s *MemStore) Commit(token string, data []byte, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[token] = item{data: data, expiry: expiry}
	return nil
}

func (s *MemStore) Delete(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
	return nil
}

func (s *MemStore) All() (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	out := make(map[string][]byte, len(s.items))
	for tok, it := range s.items {
		if now.After(it.expiry) {
			continue
		}
		out[tok] = it.data
	}
	return out, nil
}

// StopCleanup terminates the background sweeper.
func (s *MemStore) StopCleanup() {
	if s.stop != nil {
		close(s.stop)
	}
}

func (s *MemStore) cleanupLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			now := time.Now()
			s.mu.Lock()
			for tok, it := range s.items {
				if now.After(it.expiry) {
					delete(s.items, tok)
				}
			}
			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}
