package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// Ledger is the history log as seen by the clinical services.
type Ledger interface {
	Create(ctx context.Context, patientID, name string) error
	Exists(ctx context.Context, patientID string) (bool, error)
	Append(ctx context.Context, patientID, text string) (Entry, error)
	AppendBatch(ctx context.Context, patientID string, texts ...string) ([]Entry, error)
	ReadAll(ctx context.Context, patientID string) ([]Entry, error)
	Verify(ctx context.Context, patientID string) error
}

// Log implements Ledger over a Store, stamping and chaining entries.
type Log struct {
	store Store
	now   func() time.Time
}

func NewLog(store Store) *Log {
	return &Log{store: store, now: time.Now}
}

// SetClock replaces the time source.
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Log) stamp() time.Time {
	return l.now().Truncate(time.Second)
}

// Create writes the header of a new ledger. It is a no-op when the ledger
// already exists.
func (l *Log) Create(ctx context.Context, patientID, name string) error {
	if strings.ContainsAny(name, "\r\n") {
		return apperr.Invariant("history header name of patient %s spans several lines", patientID)
	}
	head, err := l.store.Head(ctx, patientID)
	if err != nil {
		return fmt.Errorf("read history head: %w", err)
	}
	if head != nil {
		return nil
	}
	err = l.store.Insert(ctx, patientID, []Entry{NewHeader(patientID, name, l.stamp())})
	if errors.Is(err, ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

func (l *Log) Exists(ctx context.Context, patientID string) (bool, error) {
	head, err := l.store.Head(ctx, patientID)
	if err != nil {
		return false, fmt.Errorf("read history head: %w", err)
	}
	return head != nil, nil
}

func (l *Log) Append(ctx context.Context, patientID, text string) (Entry, error) {
	entries, err := l.AppendBatch(ctx, patientID, text)
	if err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

// AppendBatch appends texts as consecutive entries sharing one timestamp.
// Either all of them are stored or none is.
func (l *Log) AppendBatch(ctx context.Context, patientID string, texts ...string) ([]Entry, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.ContainsAny(text, "\r\n") {
			return nil, apperr.Invariant("history text for patient %s spans several lines", patientID)
		}
	}
	head, err := l.store.Head(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("read history head: %w", err)
	}
	if head == nil {
		return nil, apperr.Invariant("append to missing history of patient %s", patientID)
	}

	entries := Extend(*head, l.stamp(), texts...)
	if err := l.store.Insert(ctx, patientID, entries); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, &apperr.InvariantViolation{Reason: "concurrent append to history of patient " + patientID, Cause: err}
		}
		return nil, fmt.Errorf("append history: %w", err)
	}
	return entries, nil
}

func (l *Log) ReadAll(ctx context.Context, patientID string) ([]Entry, error) {
	entries, err := l.store.Load(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(entries) == 0 {
		return nil, apperr.NotFound("patient history", patientID)
	}
	return entries, nil
}

// Verify recomputes the hash chain of a patient's ledger.
func (l *Log) Verify(ctx context.Context, patientID string) error {
	entries, err := l.ReadAll(ctx, patientID)
	if err != nil {
		return err
	}
	return Verify(entries)
}
