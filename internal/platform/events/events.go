// Package events announces ledger appends and priority alerts to other
// systems.
package events

import (
	"context"
	"sync"
	"time"
)

// LedgerAppended is published for every history entry that was committed.
type LedgerAppended struct {
	PatientID string    `json:"patient_id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Hash      string    `json:"hash"`
}

// PriorityRaised is published when a triage pass finds abnormal vitals.
type PriorityRaised struct {
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Bed       string    `json:"bed"`
	Abnormal  []string  `json:"abnormal"`
	RaisedAt  time.Time `json:"raised_at"`
	RaisedBy  string    `json:"raised_by"`
}

type Publisher interface {
	PublishLedger(ctx context.Context, evs ...LedgerAppended) error
	PublishPriority(ctx context.Context, ev PriorityRaised) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishLedger(context.Context, ...LedgerAppended) error { return nil }
func (Nop) PublishPriority(context.Context, PriorityRaised) error  { return nil }
func (Nop) Close()                                                 {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu       sync.Mutex
	Ledger   []LedgerAppended
	Priority []PriorityRaised
}

func (r *Recorder) PublishLedger(_ context.Context, evs ...LedgerAppended) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ledger = append(r.Ledger, evs...)
	return nil
}

func (r *Recorder) PublishPriority(_ context.Context, ev PriorityRaised) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Priority = append(r.Priority, ev)
	return nil
}

func (r *Recorder) Close() {}

// PriorityCount returns how many priority alerts were recorded.
func (r *Recorder) PriorityCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Priority)
}
