package diamond

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(n byte) Address {
	var a Address
	a[len(a)-1] = n
	return a
}

func sel(n byte) Selector {
	return Selector{0xaa, 0xbb, 0xcc, n}
}

func sels(ns ...byte) []Selector {
	out := make([]Selector, 0, len(ns))
	for _, n := range ns {
		out = append(out, sel(n))
	}
	return out
}

func add(facet Address, ns ...byte) FacetCut {
	return FacetCut{Action: Add, Facet: facet, Selectors: sels(ns...)}
}

func replace(facet Address, ns ...byte) FacetCut {
	return FacetCut{Action: Replace, Facet: facet, Selectors: sels(ns...)}
}

func remove(ns ...byte) FacetCut {
	return FacetCut{Action: Remove, Selectors: sels(ns...)}
}

// requireConsistent checks that the forward and reverse maps agree and that
// no facet without selectors is listed.
func requireConsistent(t *testing.T, tbl *Table) {
	t.Helper()

	count := 0
	for _, f := range tbl.Facets() {
		require.NotEmpty(t, f.Selectors, "facet %s listed without selectors", f.Address)
		for _, s := range f.Selectors {
			got, ok := tbl.Resolve(s)
			require.True(t, ok, "selector %s of facet %s not routed", s, f.Address)
			require.Equal(t, f.Address, got, "selector %s", s)
			count++
		}
	}
	require.Equal(t, tbl.Len(), count, "forward map has routes missing from the reverse map")
	require.Equal(t, len(tbl.Addresses()), tbl.FacetCount())
}

func mustProcess(t *testing.T, tbl *Table, cuts ...FacetCut) *Table {
	t.Helper()
	next, err := Process(tbl, Batch{Cuts: cuts})
	require.NoError(t, err)
	requireConsistent(t, next)
	return next
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err), "err: %v", err)
}

// memStore is an in-memory Store for tests.
type memStore struct {
	mu      sync.Mutex
	state   *State
	records []*Record
	failErr error
}

func (m *memStore) Load(context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	st := *m.state
	return &st, nil
}

func (m *memStore) Commit(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.records = append(m.records, rec)
	m.state = &State{Owner: rec.Owner, Seq: rec.Seq, Facets: rec.Facets}
	return nil
}

func (m *memStore) History(_ context.Context, limit int) ([]*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Record{}
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

var errBoom = errors.New("boom")
