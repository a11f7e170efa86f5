package diamond

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a cut or ownership change was rejected.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindEmptyBatch
	KindSelectorAlreadyExists
	KindSelectorNotFound
	KindDuplicateSelectorInBatch
	KindNullModule
	KindInitFailed
	KindNoSelectors
	KindRemoveFacetNotNull
	KindInvalidAction
	KindNullOwner
	KindStoreFailed
	KindNestedCut
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                  "Unknown",
	KindUnauthorized:             "Unauthorized",
	KindEmptyBatch:               "EmptyBatch",
	KindSelectorAlreadyExists:    "SelectorAlreadyExists",
	KindSelectorNotFound:         "SelectorNotFound",
	KindDuplicateSelectorInBatch: "DuplicateSelectorInBatch",
	KindNullModule:               "NullModule",
	KindInitFailed:               "InitFailed",
	KindNoSelectors:              "NoSelectors",
	KindRemoveFacetNotNull:       "RemoveFacetNotNull",
	KindInvalidAction:            "InvalidAction",
	KindNullOwner:                "NullOwner",
	KindStoreFailed:              "StoreFailed",
	KindNestedCut:                "NestedCut",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Sentinels for errors.Is; they match any *CutError of the same kind.
var (
	ErrUnauthorized             = &CutError{Kind: KindUnauthorized, Op: -1}
	ErrEmptyBatch               = &CutError{Kind: KindEmptyBatch, Op: -1}
	ErrSelectorAlreadyExists    = &CutError{Kind: KindSelectorAlreadyExists, Op: -1}
	ErrSelectorNotFound         = &CutError{Kind: KindSelectorNotFound, Op: -1}
	ErrDuplicateSelectorInBatch = &CutError{Kind: KindDuplicateSelectorInBatch, Op: -1}
	ErrNullModule               = &CutError{Kind: KindNullModule, Op: -1}
	ErrInitFailed               = &CutError{Kind: KindInitFailed, Op: -1}
	ErrNoSelectors              = &CutError{Kind: KindNoSelectors, Op: -1}
	ErrRemoveFacetNotNull       = &CutError{Kind: KindRemoveFacetNotNull, Op: -1}
	ErrInvalidAction            = &CutError{Kind: KindInvalidAction, Op: -1}
	ErrNullOwner                = &CutError{Kind: KindNullOwner, Op: -1}
	ErrStore                    = &CutError{Kind: KindStoreFailed, Op: -1}
	ErrNestedCut                = &CutError{Kind: KindNestedCut, Op: -1}
)

// ErrFunctionNotFound is returned by Dispatch for an unrouted selector.
var ErrFunctionNotFound = errors.New("diamond: function does not exist")

// CutError reports a rejected change. Op is the index of the offending
// operation in the batch, or -1 when the error concerns the batch as a
// whole.
type CutError struct {
	Kind     ErrorKind
	Op       int
	Selector *Selector
	Facet    Address
	Err      error
}

func (e *CutError) Error() string {
	var b strings.Builder
	b.WriteString("diamond: ")
	b.WriteString(e.Kind.String())
	if e.Op >= 0 {
		fmt.Fprintf(&b, " (cut %d)", e.Op)
	}
	if e.Selector != nil {
		fmt.Fprintf(&b, " selector %s", e.Selector)
	}
	if !e.Facet.IsZero() {
		fmt.Fprintf(&b, " facet %s", e.Facet)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CutError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *CutError of the same kind.
func (e *CutError) Is(target error) bool {
	t, ok := target.(*CutError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of a *CutError in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ce *CutError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

func selectorErr(kind ErrorKind, op int, s Selector, facet Address) *CutError {
	return &CutError{Kind: kind, Op: op, Selector: &s, Facet: facet}
}
