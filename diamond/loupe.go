package diamond

// Loupe is the read-only view of one committed table. A Loupe never
// changes; call (*Diamond).Loupe again to see later cuts.
type Loupe struct {
	t *Table
}

// NewLoupe returns a view of t.
func NewLoupe(t *Table) Loupe {
	if t == nil {
		t = NewTable()
	}
	return Loupe{t: t}
}

// Facets returns every live facet with its selectors.
func (l Loupe) Facets() []Facet {
	return l.t.Facets()
}

// FacetSelectors returns the selectors routed to facet.
func (l Loupe) FacetSelectors(facet Address) []Selector {
	return l.t.SelectorsOf(facet)
}

// FacetAddress returns the facet a selector is routed to.
func (l Loupe) FacetAddress(s Selector) (Address, bool) {
	return l.t.Resolve(s)
}

// FacetAddresses returns the live facets in order of first addition.
func (l Loupe) FacetAddresses() []Address {
	return l.t.Addresses()
}

// Len returns the number of routed selectors.
func (l Loupe) Len() int {
	return l.t.Len()
}
