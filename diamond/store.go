package diamond

import (
	"context"
	"time"

	"github.com/auraprotocol/diamond/ulid"
)

// RecordKind tells a cut record from an ownership record.
type RecordKind string

const (
	RecordCut       RecordKind = "cut"
	RecordOwnership RecordKind = "ownership"
)

// Record describes one committed change. Facets and Owner are the state
// after the change.
type Record struct {
	ID            ulid.ULID  `json:"id"`
	Seq           uint64     `json:"seq"`
	Kind          RecordKind `json:"kind"`
	Caller        Address    `json:"caller"`
	Time          time.Time  `json:"time"`
	Cuts          []FacetCut `json:"cuts,omitempty"`
	Init          *InitCall  `json:"init,omitempty"`
	PreviousOwner Address    `json:"previous_owner,omitzero"`
	Owner         Address    `json:"owner"`
	Facets        []Facet    `json:"facets"`
}

// State is the persisted registry state.
type State struct {
	Owner  Address `json:"owner"`
	Seq    uint64  `json:"seq"`
	Facets []Facet `json:"facets"`
}

// Store persists committed records. Commit is called while the change is
// still staged; an error discards the change.
type Store interface {
	// Load returns the last committed state, or nil for an empty store.
	Load(ctx context.Context) (*State, error)
	Commit(ctx context.Context, rec *Record) error
}

// HistoryStore is implemented by stores that keep past records.
type HistoryStore interface {
	// History returns up to limit records, newest first.
	History(ctx context.Context, limit int) ([]*Record, error)
}

// Notifier is told about every committed record, in commit order, after the
// change has been published to readers. Each notifier is called from its own
// goroutine, so a slow one delays only its own deliveries.
type Notifier interface {
	Notify(ctx context.Context, rec *Record)
}
