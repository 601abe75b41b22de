package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func newTestLog(t *testing.T) (*Log, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	l := NewLog(store)
	l.SetClock(fixedClock(t0))
	return l, store
}

func TestLog_CreateIsIdempotent(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Create(ctx, "123", "Maria"))
	require.NoError(t, l.Create(ctx, "123", "Other Name"))

	entries, err := l.ReadAll(ctx, "123")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Text, "History of Maria (CPF: 123)")
}

func TestLog_AppendOrder(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, l.Create(ctx, "123", "Maria"))

	for _, text := range []string{"first", "second", "third"} {
		_, err := l.Append(ctx, "123", text)
		require.NoError(t, err)
	}

	entries, err := l.ReadAll(ctx, "123")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "first", entries[1].Text)
	assert.Equal(t, "second", entries[2].Text)
	assert.Equal(t, "third", entries[3].Text)
	assert.NoError(t, l.Verify(ctx, "123"))
}

func TestLog_TimestampsTruncatedToSecond(t *testing.T) {
	l, _ := newTestLog(t)
	l.SetClock(fixedClock(t0.Add(750 * time.Millisecond)))
	ctx := context.Background()
	require.NoError(t, l.Create(ctx, "123", "Maria"))

	e, err := l.Append(ctx, "123", "event")
	require.NoError(t, err)
	assert.Equal(t, t0, e.Timestamp)
}

func TestLog_AppendUnknownPatient(t *testing.T) {
	l, store := newTestLog(t)
	ctx := context.Background()

	_, err := l.AppendBatch(ctx, "999", "Triage: x", "FLAG: y")
	require.Error(t, err)
	assert.True(t, apperr.IsInvariant(err))

	entries, _ := store.Load(ctx, "999")
	assert.Empty(t, entries)
}

func TestLog_AppendRejectsMultilineText(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, l.Create(ctx, "123", "Maria"))

	_, err := l.AppendBatch(ctx, "123", "ok", "two\nlines")
	require.Error(t, err)

	entries, err := l.ReadAll(ctx, "123")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLog_ReadAllUnknownPatient(t *testing.T) {
	l, _ := newTestLog(t)
	_, err := l.ReadAll(context.Background(), "999")
	assert.True(t, apperr.IsNotFound(err))
}

func TestLog_VerifyDetectsTampering(t *testing.T) {
	l, store := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, l.Create(ctx, "123", "Maria"))
	_, err := l.AppendBatch(ctx, "123", "a", "b", "c")
	require.NoError(t, err)

	store.tamper("123", 2, "rewritten")

	var te *TamperError
	require.True(t, errors.As(l.Verify(ctx, "123"), &te))
	assert.Equal(t, 2, te.Seq)
}

func TestLog_ConflictingInsert(t *testing.T) {
	l, store := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, l.Create(ctx, "123", "Maria"))

	head, err := store.Head(ctx, "123")
	require.NoError(t, err)
	stale := Extend(*head, t0, "late writer")
	_, err = l.Append(ctx, "123", "first writer")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Insert(ctx, "123", stale), ErrConflict)
}

func TestFileStore_RoundTripAndTamper(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	l := NewLog(store)
	l.SetClock(fixedClock(t0))
	ctx := context.Background()

	require.NoError(t, l.Create(ctx, "123", "Maria"))
	_, err = l.AppendBatch(ctx, "123", "Admitted to bed 4 on 21/06/2025", "Triage: heart_rate=80")
	require.NoError(t, err)

	entries, err := l.ReadAll(ctx, "123")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Triage: heart_rate=80", entries[2].Text)
	require.NoError(t, l.Verify(ctx, "123"))

	data, err := os.ReadFile(filepath.Join(dir, "123.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "History of Maria (CPF: 123)\nCreated at: "))

	edited := strings.Replace(string(data), "heart_rate=80", "heart_rate=75", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.txt"), []byte(edited), 0o640))

	var te *TamperError
	require.True(t, errors.As(l.Verify(ctx, "123"), &te))
	assert.Equal(t, 2, te.Seq)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Load(context.Background(), "../etc/passwd")
	require.Error(t, err)
}

func TestFileStore_MultilineNameLeavesNoTrace(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	l := NewLog(store)
	l.SetClock(fixedClock(t0))
	ctx := context.Background()

	err = l.Create(ctx, "456", "Maria\nSilva")
	assert.True(t, apperr.IsInvariant(err))
	_, statErr := os.Stat(filepath.Join(dir, "456.txt"))
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, l.Create(ctx, "456", "Maria Silva"))
	_, err = l.Append(ctx, "456", "Admitted to bed 4 on 2025-06-21")
	require.NoError(t, err)
	require.NoError(t, l.Verify(ctx, "456"))
}

func TestFileStore_InsertChecksLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	header := NewHeader("123", "Maria", t0)
	header.Text = "History of Maria\nSilva (CPF: 123)\nCreated at: 2025-06-21 14:30:05"
	assert.True(t, apperr.IsInvariant(store.Insert(ctx, "123", []Entry{header})))

	require.NoError(t, store.Insert(ctx, "123", []Entry{NewHeader("123", "Maria", t0)}))
	head, err := store.Head(ctx, "123")
	require.NoError(t, err)
	bad := Extend(*head, t0, "first\nsecond")
	assert.True(t, apperr.IsInvariant(store.Insert(ctx, "123", bad)))

	entries, err := store.Load(ctx, "123")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_LineWithoutStamp(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	l := NewLog(store)
	l.SetClock(fixedClock(t0))
	ctx := context.Background()
	require.NoError(t, l.Create(ctx, "123", "Maria"))
	_, err = l.Append(ctx, "123", "Exam request sent to technician.")
	require.NoError(t, err)

	path := filepath.Join(dir, "123.txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(data), "[2025-06-21 14:30:05] ", "", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o640))

	_, err = store.Load(ctx, "123")
	assert.True(t, apperr.IsInvariant(err))
}
