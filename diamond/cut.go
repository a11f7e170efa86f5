package diamond

//go:generate go tool github.com/dmarkham/enumer -type=FacetCutAction -transform=lower -text

// FacetCutAction is the operation a FacetCut applies to its selectors.
type FacetCutAction uint8

const (
	Add     FacetCutAction = iota // route unrouted selectors to a facet
	Replace                       // re-route routed selectors to a facet
	Remove                        // clear the route of routed selectors
)

// FacetCut is one operation of a cut. Remove is keyed by selector only and
// must carry the null facet.
type FacetCut struct {
	Action    FacetCutAction `json:"action"`
	Facet     Address        `json:"facet"`
	Selectors []Selector     `json:"selectors"`
}

// InitCall is the optional initialization call executed after the table
// change of a batch has been staged.
type InitCall struct {
	Target   Address  `json:"target"`
	Calldata Calldata `json:"calldata"`
}

// Batch is the atomic unit of change: every cut is applied and the init
// call succeeds, or nothing is observable.
type Batch struct {
	Cuts []FacetCut `json:"cuts"`
	Init *InitCall  `json:"init,omitempty"`
}

// selectorCount returns the number of selectors referenced by the batch.
func (b Batch) selectorCount() int {
	n := 0
	for _, c := range b.Cuts {
		n += len(c.Selectors)
	}
	return n
}
