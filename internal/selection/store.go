// Package selection persists "the last selection the user made" across
// command invocations and process restarts. Buckets are flat text files,
// one per document base name, each line carrying an optional session
// token plus a stable reference.
package selection

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/draftgrid/cadsel/internal/entity"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/session"
)

// Entry is one stored selection line.
type Entry struct {
	SessionToken string
	Ref          entity.Ref
}

// Store reads and writes selection buckets under dir. Concurrent writers
// are only coordinated by whole-file rewrite plus read-time session
// filtering; last writer wins.
type Store struct {
	dir string
}

// NewStore creates a store rooted at baseDir/selections.
func NewStore(baseDir string) *Store {
	return &Store{dir: filepath.Join(baseDir, "selections")}
}

// Save replaces a bucket wholesale. Foreign-session rows are dropped at
// write time; legacy untagged rows the caller chose to keep must be in
// entries.
func (s *Store) Save(bucket string, entries []Entry) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return errors.NewInternal(err)
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s|%s|%s\n", e.SessionToken, e.Ref.DocumentPath, e.Ref.Handle)
	}

	// Temp file plus rename keeps the old bucket intact on failure.
	path := s.bucketPath(bucket)
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(err)
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	if err := os.WriteFile(tempPath, []byte(sb.String()), 0600); err != nil {
		return errors.NewInternal(err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errors.NewInternal(err)
	}
	return nil
}

// Load reads a bucket. A missing bucket is an empty selection, not an
// error. Lines with two fields are legacy entries without a session
// token; malformed lines are skipped.
func (s *Store) Load(bucket string) ([]Entry, error) {
	f, err := os.Open(s.bucketPath(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		switch len(parts) {
		case 3:
			entries = append(entries, Entry{
				SessionToken: parts[0],
				Ref:          entity.Ref{DocumentPath: parts[1], Handle: parts[2]},
			})
		case 2:
			// Legacy line without a session token: matches any session.
			entries = append(entries, Entry{
				Ref: entity.Ref{DocumentPath: parts[0], Handle: parts[1]},
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// Clear removes a bucket.
func (s *Store) Clear(bucket string) error {
	err := os.Remove(s.bucketPath(bucket))
	if err != nil && !os.IsNotExist(err) {
		return errors.NewInternal(err)
	}
	return nil
}

// FilterSession keeps the entries belonging to the given session.
// Entries with an empty token are legacy and always kept.
func FilterSession(entries []Entry, sessionToken string) []Entry {
	var kept []Entry
	for _, e := range entries {
		if session.TokenMatches(e.SessionToken, sessionToken) {
			kept = append(kept, e)
		}
	}
	return kept
}

// bucketPath maps a bucket name to its file, sanitized against path
// separators in document names.
func (s *Store) bucketPath(bucket string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, bucket)
	if safe == "" {
		safe = "unnamed"
	}
	return filepath.Join(s.dir, safe+".sel")
}
