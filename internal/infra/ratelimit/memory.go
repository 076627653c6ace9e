// Package ratelimit implements sliding-window request counters.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"wallet/internal/domain/service"

	"github.com/google/uuid"
)

type memoryHit struct {
	at     time.Time
	ticket string
}

type memoryLog struct {
	window time.Duration
	hits   []memoryHit // Ascending by time.
}

// MemoryStore is a process-local sliding log. It is exact but not shared between replicas.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string]*memoryLog
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string]*memoryLog)}
}

var _ service.RateLimitStore = (*MemoryStore)(nil)

// Hit records a request for key at now.
func (s *MemoryStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (*service.RateLimitHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[key]
	if !ok {
		log = &memoryLog{}
		s.logs[key] = log
	}
	log.window = window
	log.prune(now)

	ticket := uuid.NewString()
	log.hits = append(log.hits, memoryHit{at: now, ticket: ticket})

	return &service.RateLimitHit{
		Count:    len(log.hits),
		Ticket:   ticket,
		OldestAt: log.hits[0].at,
	}, nil
}

// Undo removes the hit identified by ticket.
func (s *MemoryStore) Undo(ctx context.Context, key, ticket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.logs[key]
	if !ok {
		return nil
	}
	for i, hit := range log.hits {
		if hit.ticket == ticket {
			log.hits = append(log.hits[:i], log.hits[i+1:]...)
			break
		}
	}
	if len(log.hits) == 0 {
		delete(s.logs, key)
	}

	return nil
}

// Sweep drops keys whose hits have all left their window.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, log := range s.logs {
		log.prune(now)
		if len(log.hits) == 0 {
			delete(s.logs, key)
			removed++
		}
	}

	return removed
}

// Run sweeps on every tick until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func (l *memoryLog) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.hits) && !l.hits[i].at.After(cutoff) {
		i++
	}
	if i > 0 {
		l.hits = append(l.hits[:0], l.hits[i:]...)
	}
}
