package cutlog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auraprotocol/diamond/diamond"
)

var (
	owner = diamond.MustParseAddress("0x00000000000000000000000000000000000000ee")
	facet = diamond.MustParseAddress("0x0000000000000000000000000000000000000001")
)

func openDiamond(t *testing.T, s *Store) *diamond.Diamond {
	t.Helper()
	d, err := diamond.Open(context.Background(), diamond.WithStore(s), diamond.WithOwner(owner))
	require.NoError(t, err)
	return d
}

func addCut(sigs ...string) diamond.Batch {
	cut := diamond.FacetCut{Action: diamond.Add, Facet: facet}
	for _, sig := range sigs {
		cut.Selectors = append(cut.Selectors, diamond.SelectorFromSignature(sig))
	}
	return diamond.Batch{Cuts: []diamond.FacetCut{cut}}
}

func TestStoreEmpty(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	st, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st)

	recs, err := s.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")

	s, err := Open(dir)
	require.NoError(t, err)
	d := openDiamond(t, s)

	_, err = d.SubmitCut(ctx, owner, addCut("pause()", "unpause()"))
	require.NoError(t, err)
	_, err = d.SubmitCut(ctx, owner, diamond.Batch{Cuts: []diamond.FacetCut{{
		Action:    diamond.Remove,
		Selectors: []diamond.Selector{diamond.SelectorFromSignature("pause()")},
	}}})
	require.NoError(t, err)

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "tmp file should not exist after commit")

	reopened, err := Open(dir)
	require.NoError(t, err)
	st, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, owner, st.Owner)
	assert.Equal(t, uint64(2), st.Seq)
	assert.Equal(t, []diamond.Facet{{
		Address:   facet,
		Selectors: []diamond.Selector{diamond.SelectorFromSignature("unpause()")},
	}}, st.Facets)

	d2 := openDiamond(t, reopened)
	assert.Equal(t, d.Loupe().Facets(), d2.Loupe().Facets())

	recs, err := reopened.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(2), recs[0].Seq)
	assert.Equal(t, diamond.Remove, recs[0].Cuts[0].Action)
	assert.Equal(t, uint64(1), recs[1].Seq)
}

func TestStoreHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), WithHistory(3))
	require.NoError(t, err)
	d := openDiamond(t, s)

	for _, sig := range []string{"a()", "b()", "c()", "d()", "e()"} {
		_, err := d.SubmitCut(ctx, owner, addCut(sig))
		require.NoError(t, err)
	}

	recs, err := s.History(ctx, 100)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, uint64(5), recs[0].Seq)
	assert.Equal(t, uint64(3), recs[2].Seq)

	recs, err = s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, uint64(5), recs[0].Seq)
}

func TestStoreRejectsSequenceGap(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Commit(ctx, &diamond.Record{Seq: 1, Owner: owner}))
	err = s.Commit(ctx, &diamond.Record{Seq: 3, Owner: owner})
	assert.Error(t, err)
}

func TestStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFile), []byte("{not json"), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	assert.Error(t, err)

	_, err = diamond.Open(context.Background(), diamond.WithStore(s), diamond.WithOwner(owner))
	assert.Error(t, err)
}

func TestReplaceFile(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		existing bool
	}{
		{"create new file", []byte("new content"), false},
		{"replace existing file", []byte("updated content"), true},
		{"empty content", []byte(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.json")
			if tt.existing {
				require.NoError(t, os.WriteFile(path, []byte("original content"), 0o644))
			}

			require.NoError(t, replaceFile(path, tt.content))

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.content, got)

			_, err = os.Stat(path + ".tmp")
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := Open(t.TempDir())
	require.NoError(t, err)

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, s.Dir(), func(context.Context) { calls <- struct{}{} })
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("initial call not made")
	}

	require.NoError(t, s.Commit(ctx, &diamond.Record{Seq: 1, Owner: owner}))

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after state change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchClosedWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	require.NoError(t, watcher.Close())

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, watcher, func(context.Context) { calls <- struct{}{} }, 500*time.Millisecond)
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("initial call not made")
	}

	// a closed watcher is dropped without an extra reload
	select {
	case <-calls:
		t.Fatal("reload when the watcher channels closed")
	case <-time.After(200 * time.Millisecond):
	}

	// the timer keeps reloading
	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("no timer reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestCommitLocksStateDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// separate stores stand in for separate processes; flock locks are
	// per open file, so they exclude each other within one process too
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		s, err := Open(dir)
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Commit(ctx, &diamond.Record{Seq: 1, Owner: owner}); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load(), "exactly one writer commits seq 1")
	_, err := os.Stat(filepath.Join(dir, LockFile))
	assert.NoError(t, err)

	s, err := Open(dir)
	require.NoError(t, err)
	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Seq)
}
