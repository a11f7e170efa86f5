package diamond

import (
	"fmt"
	"slices"
)

// Facet is one live facet and the selectors routed to it, in the order
// they were added.
type Facet struct {
	Address   Address    `json:"facet"`
	Selectors []Selector `json:"selectors"`
}

// Table is the bidirectional selector index. The forward map resolves a
// selector to its facet; the reverse map lists each facet's selectors in
// insertion order. A facet with no selectors is never present.
//
// A Table is never modified after it has been published; Process builds a
// new one for every committed batch.
type Table struct {
	routes    map[Selector]Address
	order     []Address // facets in order of first addition
	selectors map[Address][]Selector
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		routes:    map[Selector]Address{},
		selectors: map[Address][]Selector{},
	}
}

// TableFromFacets rebuilds a table from a facet list as returned by
// Table.Facets.
func TableFromFacets(facets []Facet) (*Table, error) {
	t := NewTable()
	for _, f := range facets {
		if f.Address.IsZero() {
			return nil, fmt.Errorf("facet list contains the null address")
		}
		if len(f.Selectors) == 0 {
			return nil, fmt.Errorf("facet %s has no selectors", f.Address)
		}
		if _, ok := t.selectors[f.Address]; ok {
			return nil, fmt.Errorf("facet %s listed twice", f.Address)
		}
		for _, s := range f.Selectors {
			if prev, ok := t.routes[s]; ok {
				return nil, fmt.Errorf("selector %s routed to both %s and %s", s, prev, f.Address)
			}
			t.add(s, f.Address)
		}
	}
	return t, nil
}

// Resolve returns the facet a selector routes to.
func (t *Table) Resolve(s Selector) (Address, bool) {
	a, ok := t.routes[s]
	return a, ok
}

// SelectorsOf returns the selectors routed to facet, or nil for an unknown
// facet.
func (t *Table) SelectorsOf(facet Address) []Selector {
	return slices.Clone(t.selectors[facet])
}

// Addresses returns the live facets in order of first addition.
func (t *Table) Addresses() []Address {
	return slices.Clone(t.order)
}

// Facets returns every live facet with its selectors.
func (t *Table) Facets() []Facet {
	facets := make([]Facet, 0, len(t.order))
	for _, a := range t.order {
		facets = append(facets, Facet{Address: a, Selectors: slices.Clone(t.selectors[a])})
	}
	return facets
}

// Len returns the number of routed selectors.
func (t *Table) Len() int {
	return len(t.routes)
}

// FacetCount returns the number of live facets.
func (t *Table) FacetCount() int {
	return len(t.order)
}

func (t *Table) clone() *Table {
	c := &Table{
		routes:    make(map[Selector]Address, len(t.routes)),
		order:     slices.Clone(t.order),
		selectors: make(map[Address][]Selector, len(t.selectors)),
	}
	for s, a := range t.routes {
		c.routes[s] = a
	}
	for a, sels := range t.selectors {
		c.selectors[a] = slices.Clone(sels)
	}
	return c
}

// add routes an unrouted selector to facet.
func (t *Table) add(s Selector, facet Address) {
	if _, ok := t.selectors[facet]; !ok {
		t.order = append(t.order, facet)
	}
	t.routes[s] = facet
	t.selectors[facet] = append(t.selectors[facet], s)
}

// remove clears the route of s and prunes its facet when it has no
// selectors left.
func (t *Table) remove(s Selector) {
	facet, ok := t.routes[s]
	if !ok {
		return
	}
	delete(t.routes, s)

	sels := t.selectors[facet]
	if i := slices.Index(sels, s); i >= 0 {
		sels = slices.Delete(sels, i, i+1)
	}
	if len(sels) > 0 {
		t.selectors[facet] = sels
		return
	}

	delete(t.selectors, facet)
	if i := slices.Index(t.order, facet); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

// replace routes an already routed selector to facet. Routing a selector to
// the facet that already owns it keeps its position.
func (t *Table) replace(s Selector, facet Address) {
	if cur, ok := t.routes[s]; ok && cur == facet {
		return
	}
	t.remove(s)
	t.add(s, facet)
}
