// Package cutlog keeps registry state and recent records in a state
// directory on local disk.
package cutlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/diamond"
)

const (
	// StateFile is the name of the state file in the state directory.
	StateFile = "state.json"

	// LockFile guards the read-modify-write of the state file between
	// processes sharing the directory.
	LockFile = ".lock"

	// DefaultHistory is the number of records kept when no limit is set.
	DefaultHistory = 256
)

type fileState struct {
	Owner   diamond.Address   `json:"owner"`
	Seq     uint64            `json:"seq"`
	Facets  []diamond.Facet   `json:"facets"`
	History []*diamond.Record `json:"history"`
}

// Store implements diamond.Store and diamond.HistoryStore on a directory.
type Store struct {
	dir   string
	limit int

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithHistory sets how many records are retained. Values below one keep
// only the latest record.
func WithHistory(n int) Option {
	return func(s *Store) { s.limit = max(n, 1) }
}

// Open returns a store in dir, creating the directory when missing.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cutlog: state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cutlog: %w", err)
	}
	s := &Store{dir: dir, limit: DefaultHistory}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, StateFile)
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads the state file. It returns nil when no state was saved yet.
func (s *Store) Load(ctx context.Context) (*diamond.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read(ctx)
	if err != nil || st == nil {
		return nil, err
	}
	return &diamond.State{Owner: st.Owner, Seq: st.Seq, Facets: st.Facets}, nil
}

// Commit appends rec to the history and saves the resulting state. The
// state directory is locked while the file is read and replaced, so a
// second process committing the same sequence number gets an error.
func (s *Store) Commit(ctx context.Context, rec *diamond.Record) error {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockDir(s.dir)
	if err != nil {
		return err
	}
	defer unlock()

	st, err := s.read(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		st = &fileState{}
	}
	if st.Seq != 0 && rec.Seq != st.Seq+1 {
		return fmt.Errorf("cutlog: record seq %d does not follow %d", rec.Seq, st.Seq)
	}

	next := &fileState{
		Owner:   rec.Owner,
		Seq:     rec.Seq,
		Facets:  rec.Facets,
		History: append(slices.Clone(st.History), rec),
	}
	if over := len(next.History) - s.limit; over > 0 {
		next.History = next.History[over:]
	}

	b, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := replaceFile(s.Path(), b); err != nil {
		log.ErrorContext(ctx, "could not save state", "path", s.Path(), "err", err)
		return err
	}

	log.DebugContext(ctx, "saved state", "seq", rec.Seq, "length", len(b))
	return nil
}

// History returns up to limit records, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]*diamond.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.read(ctx)
	if err != nil || st == nil {
		return nil, err
	}

	out := make([]*diamond.Record, 0, min(limit, len(st.History)))
	for i := len(st.History) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, st.History[i])
	}
	return out, nil
}

// read returns the state on disk, or nil when there is none. The file is
// reread every time so changes made by other processes are seen.
func (s *Store) read(ctx context.Context) (*fileState, error) {
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		logger.FromContext(ctx).ErrorContext(ctx, "could not read state", "path", s.Path(), "err", err)
		return nil, err
	}

	st := &fileState{}
	if err := json.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("cutlog: parse %s: %w", s.Path(), err)
	}
	return st, nil
}

func lockPath(dir string) string {
	return filepath.Join(dir, LockFile)
}

func replaceFile(path string, b []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	n, err := f.Write(b)
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	if err == nil {
		err = f.Sync()
	}
	if err1 := f.Close(); err == nil {
		err = err1
	}
	if err != nil {
		return err
	}

	err = os.Rename(tmpPath, path)
	return err
}
