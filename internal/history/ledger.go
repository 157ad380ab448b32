// Package history keeps an append-only record of rewritten archives.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry records one completed rewrite.
type Entry struct {
	Source    string    `json:"source"`
	Dest      string    `json:"dest,omitempty"` // set when the file was renamed
	Title     string    `json:"title"`
	Series    string    `json:"series,omitempty"`
	Position  int       `json:"position"` // 1-based
	SHA256    string    `json:"sha256"`
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is a JSONL append-only rewrite log.
type Ledger struct {
	path string
	now  func() time.Time
}

// Open opens (or creates the directory of) the ledger at path.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	return &Ledger{path: path, now: time.Now}, nil
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Append adds an entry to the ledger, stamping it with the current time.
func (l *Ledger) Append(e Entry) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	e.Timestamp = l.now().UTC()
	if e.Dest == e.Source {
		e.Dest = ""
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(data))
	return err
}

// Contains reports whether path was ever rewritten, as a source or as the
// destination of a rename.
func (l *Ledger) Contains(path string) (bool, error) {
	entries, err := l.Entries()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Source == path || e.Dest == path {
			return true, nil
		}
	}
	return false, nil
}

// Entries returns all ledger entries in the order they were written.
// Lines that do not decode are skipped.
func (l *Ledger) Entries() ([]Entry, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// Last returns the newest n entries, newest last. n <= 0 returns all.
func (l *Ledger) Last(n int) ([]Entry, error) {
	entries, err := l.Entries()
	if err != nil || n <= 0 || len(entries) <= n {
		return entries, err
	}
	return entries[len(entries)-n:], nil
}
