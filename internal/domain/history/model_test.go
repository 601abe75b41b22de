package history

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 21, 14, 30, 5, 0, time.UTC)

func TestNewHeader(t *testing.T) {
	h := NewHeader("123", "Maria", t0)
	assert.Equal(t, 0, h.Seq)
	assert.Equal(t, Genesis, h.PrevHash)
	assert.Equal(t, "History of Maria (CPF: 123)\nCreated at: 2025-06-21 14:30:05", h.Text)
	assert.Len(t, h.Hash, 64)
}

func TestLines(t *testing.T) {
	h := NewHeader("123", "Maria", t0)
	events := Extend(h, t0.Add(time.Minute), "Admitted to bed 4 on 21/06/2025", "Triage: heart_rate=80")
	lines := Lines(append([]Entry{h}, events...))

	require.Len(t, lines, 4)
	assert.Equal(t, "History of Maria (CPF: 123)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Created at: "))
	assert.Equal(t, "[2025-06-21 14:31:05] Admitted to bed 4 on 21/06/2025", lines[2])
	assert.Equal(t, "[2025-06-21 14:31:05] Triage: heart_rate=80", lines[3])
}

func TestExtendChainsHashes(t *testing.T) {
	h := NewHeader("123", "Maria", t0)
	events := Extend(h, t0, "a", "b")
	assert.Equal(t, 1, events[0].Seq)
	assert.Equal(t, h.Hash, events[0].PrevHash)
	assert.Equal(t, events[0].Hash, events[1].PrevHash)
	assert.NotEqual(t, events[0].Hash, events[1].Hash)
}

func TestVerify(t *testing.T) {
	h := NewHeader("123", "Maria", t0)
	entries := append([]Entry{h}, Extend(h, t0, "a", "b", "c")...)
	require.NoError(t, Verify(entries))

	t.Run("edited text", func(t *testing.T) {
		tampered := append([]Entry(nil), entries...)
		tampered[2].Text = "rewritten"
		var te *TamperError
		require.True(t, errors.As(Verify(tampered), &te))
		assert.Equal(t, 2, te.Seq)
	})

	t.Run("removed entry", func(t *testing.T) {
		tampered := append(append([]Entry(nil), entries[:2]...), entries[3:]...)
		var te *TamperError
		require.True(t, errors.As(Verify(tampered), &te))
		assert.Equal(t, 2, te.Seq)
	})

	t.Run("edited header", func(t *testing.T) {
		tampered := append([]Entry(nil), entries...)
		tampered[0].Text = HeaderText("123", "Someone else", t0)
		var te *TamperError
		require.True(t, errors.As(Verify(tampered), &te))
		assert.Equal(t, 0, te.Seq)
	})
}
