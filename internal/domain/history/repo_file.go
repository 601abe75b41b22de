package history

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mediclass/mediclass/internal/platform/apperr"
)

// FileStore keeps each ledger as a readable text file <dir>/<cpf>.txt plus a
// <cpf>.chain sidecar holding one "seq timestamp prev_hash hash" line per
// entry. Texts are read back from the .txt file, so editing it breaks the
// chain.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Ready reports whether the ledger directory is still usable.
func (s *FileStore) Ready(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("history dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("history dir %s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) textPath(patientID string) string {
	return filepath.Join(s.dir, patientID+".txt")
}

func (s *FileStore) chainPath(patientID string) string {
	return filepath.Join(s.dir, patientID+".chain")
}

func validFileKey(patientID string) error {
	if patientID == "" || strings.ContainsAny(patientID, `/\`) || patientID == "." || patientID == ".." {
		return apperr.Format("cpf", patientID, "a plain identifier")
	}
	return nil
}

func (s *FileStore) Head(ctx context.Context, patientID string) (*Entry, error) {
	entries, err := s.Load(ctx, patientID)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	head := entries[len(entries)-1]
	return &head, nil
}

func (s *FileStore) Insert(_ context.Context, patientID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := validFileKey(patientID); err != nil {
		return err
	}
	for _, e := range entries {
		if err := fitsLayout(e); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, err := s.readChain(patientID)
	if err != nil {
		return err
	}
	if entries[0].Seq != len(chain) {
		return ErrConflict
	}

	var text, sidecar bytes.Buffer
	for _, e := range entries {
		text.WriteString(e.Line())
		text.WriteByte('\n')
		fmt.Fprintf(&sidecar, "%d %s %s %s\n", e.Seq, e.Timestamp.UTC().Format(time.RFC3339), e.PrevHash, e.Hash)
	}
	if err := appendFile(s.textPath(patientID), text.Bytes()); err != nil {
		return err
	}
	return appendFile(s.chainPath(patientID), sidecar.Bytes())
}

// fitsLayout checks that e occupies the lines Load expects: two for the
// header, one for every event.
func fitsLayout(e Entry) error {
	want := 1
	if e.IsHeader() {
		want = 2
	}
	if got := strings.Count(e.Text, "\n") + 1; got != want || strings.Contains(e.Text, "\r") {
		return apperr.Invariant("history entry %d does not fit the file layout", e.Seq)
	}
	return nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

type chainLine struct {
	seq       int
	timestamp time.Time
	prevHash  string
	hash      string
}

func (s *FileStore) readChain(patientID string) ([]chainLine, error) {
	data, err := os.ReadFile(s.chainPath(patientID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chain: %w", err)
	}
	var out []chainLine
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			return nil, apperr.Invariant("malformed chain line %d for patient %s", len(out), patientID)
		}
		seq, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, apperr.Invariant("malformed chain sequence for patient %s", patientID)
		}
		ts, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, apperr.Invariant("malformed chain timestamp for patient %s", patientID)
		}
		out = append(out, chainLine{seq: seq, timestamp: ts, prevHash: fields[2], hash: fields[3]})
	}
	return out, sc.Err()
}

// Load pairs the text lines with the sidecar. The header occupies the first
// two text lines; every other entry occupies one.
func (s *FileStore) Load(_ context.Context, patientID string) ([]Entry, error) {
	if err := validFileKey(patientID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, err := s.readChain(patientID)
	if err != nil || len(chain) == 0 {
		return nil, err
	}
	data, err := os.ReadFile(s.textPath(patientID))
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != len(chain)+1 {
		return nil, apperr.Invariant("history files of patient %s are out of step", patientID)
	}

	entries := make([]Entry, 0, len(chain))
	for i, cl := range chain {
		var text string
		if i == 0 {
			text = lines[0] + "\n" + lines[1]
		} else {
			if text, err = stripStamp(patientID, lines[i+1]); err != nil {
				return nil, err
			}
		}
		entries = append(entries, Entry{
			Seq:       cl.seq,
			Timestamp: cl.timestamp,
			Text:      text,
			PrevHash:  cl.prevHash,
			Hash:      cl.hash,
		})
	}
	return entries, nil
}

// stampWidth is the length of the "[YYYY-MM-DD HH:MM:SS] " prefix that
// Entry.Line writes in front of every event.
var stampWidth = len("[" + TimestampLayout + "] ")

// stripStamp removes the fixed-width stamp of an event line. Lines without
// one were not written by this store and are an invariant violation.
func stripStamp(patientID, line string) (string, error) {
	if len(line) < stampWidth || line[0] != '[' || line[stampWidth-2:stampWidth] != "] " {
		return "", apperr.Invariant("history line of patient %s has no stamp", patientID)
	}
	return line[stampWidth:], nil
}
