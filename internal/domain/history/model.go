// Package history is the append-only, hash-chained event ledger kept for
// every patient. Entry 0 is the ledger header; each later entry stores the
// hash of its predecessor so that rewriting any stored text is detectable.
package history

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is how entry times are rendered in ledger lines.
const TimestampLayout = "2006-01-02 15:04:05"

// Genesis is the previous-hash value of every header entry.
var Genesis = strings.Repeat("0", sha256.Size*2)

// Entry is one immutable ledger record.
type Entry struct {
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// IsHeader reports whether e is the ledger header.
func (e Entry) IsHeader() bool { return e.Seq == 0 }

// Line renders the entry as it appears in the text ledger. The header keeps
// its own multi-line text.
func (e Entry) Line() string {
	if e.IsHeader() {
		return e.Text
	}
	return fmt.Sprintf("[%s] %s", e.Timestamp.Format(TimestampLayout), e.Text)
}

// ComputeHash chains one entry onto prevHash.
func ComputeHash(prevHash string, seq int, ts time.Time, text string) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(seq)))
	h.Write([]byte{'|'})
	h.Write([]byte(ts.UTC().Format(time.RFC3339)))
	h.Write([]byte{'|'})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// HeaderText is the fixed two-line ledger header.
func HeaderText(patientID, name string, createdAt time.Time) string {
	return fmt.Sprintf("History of %s (CPF: %s)\nCreated at: %s", name, patientID, createdAt.Format(TimestampLayout))
}

// NewHeader builds entry 0 of a ledger.
func NewHeader(patientID, name string, createdAt time.Time) Entry {
	text := HeaderText(patientID, name, createdAt)
	return Entry{
		Seq:       0,
		Timestamp: createdAt,
		Text:      text,
		PrevHash:  Genesis,
		Hash:      ComputeHash(Genesis, 0, createdAt, text),
	}
}

// Extend chains texts after head, all stamped with ts.
func Extend(head Entry, ts time.Time, texts ...string) []Entry {
	out := make([]Entry, 0, len(texts))
	prev := head
	for _, text := range texts {
		e := Entry{
			Seq:       prev.Seq + 1,
			Timestamp: ts,
			Text:      text,
			PrevHash:  prev.Hash,
		}
		e.Hash = ComputeHash(e.PrevHash, e.Seq, e.Timestamp, e.Text)
		out = append(out, e)
		prev = e
	}
	return out
}

// Lines renders a full ledger, header first.
func Lines(entries []Entry) []string {
	lines := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		lines = append(lines, strings.Split(e.Line(), "\n")...)
	}
	return lines
}

// TamperError identifies the first entry whose stored content no longer
// matches the chain.
type TamperError struct {
	Seq    int
	Reason string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("history chain broken at entry %d: %s", e.Seq, e.Reason)
}

// Verify recomputes the chain over entries and returns a *TamperError for the
// first inconsistent entry.
func Verify(entries []Entry) error {
	prevHash := Genesis
	for i, e := range entries {
		if e.Seq != i {
			return &TamperError{Seq: i, Reason: fmt.Sprintf("sequence %d out of place", e.Seq)}
		}
		if e.PrevHash != prevHash {
			return &TamperError{Seq: e.Seq, Reason: "previous hash mismatch"}
		}
		if ComputeHash(e.PrevHash, e.Seq, e.Timestamp, e.Text) != e.Hash {
			return &TamperError{Seq: e.Seq, Reason: "content hash mismatch"}
		}
		prevHash = e.Hash
	}
	return nil
}
