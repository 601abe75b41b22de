package history

import (
	"context"
	"errors"
	"sync"
)

// ErrConflict is returned by a Store when the entries to insert do not
// continue the stored chain (a concurrent writer got there first).
var ErrConflict = errors.New("history: sequence conflict")

// Store persists ledger entries. Insert is all-or-nothing: either every entry
// is stored or none is. Head and Load return (nil, nil) for an unknown
// patient.
type Store interface {
	Head(ctx context.Context, patientID string) (*Entry, error)
	Insert(ctx context.Context, patientID string, entries []Entry) error
	Load(ctx context.Context, patientID string) ([]Entry, error)
}

// MemoryStore keeps ledgers in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: make(map[string][]Entry)}
}

func (s *MemoryStore) Head(_ context.Context, patientID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.ledgers[patientID]
	if len(entries) == 0 {
		return nil, nil
	}
	head := entries[len(entries)-1]
	return &head, nil
}

func (s *MemoryStore) Insert(_ context.Context, patientID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.ledgers[patientID]
	if entries[0].Seq != len(existing) {
		return ErrConflict
	}
	s.ledgers[patientID] = append(existing, entries...)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, patientID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.ledgers[patientID]
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// tamper rewrites a stored text in place. Tests use it to simulate an edited
// ledger.
func (s *MemoryStore) tamper(patientID string, seq int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[patientID][seq].Text = text
}
