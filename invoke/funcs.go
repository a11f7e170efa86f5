package invoke

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/auraprotocol/diamond/diamond"
)

// Func is an in-process facet implementation.
type Func func(ctx context.Context, calldata []byte) ([]byte, error)

// Funcs invokes facets implemented in the same process.
type Funcs struct {
	mu    sync.RWMutex
	funcs map[diamond.Address]Func
}

func NewFuncs() *Funcs {
	return &Funcs{funcs: map[diamond.Address]Func{}}
}

// Register sets the implementation of facet.
func (f *Funcs) Register(facet diamond.Address, fn Func) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funcs[facet] = fn
}

// Invoke implements diamond.Invoker.
func (f *Funcs) Invoke(ctx context.Context, facet diamond.Address, calldata []byte) ([]byte, error) {
	f.mu.RLock()
	fn, ok := f.funcs[facet]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoEndpoint, facet)
	}
	return fn(ctx, calldata)
}

// Chain tries each invoker in turn while they report ErrNoEndpoint.
type Chain []diamond.Invoker

func (c Chain) Invoke(ctx context.Context, facet diamond.Address, calldata []byte) ([]byte, error) {
	for _, inv := range c {
		out, err := inv.Invoke(ctx, facet, calldata)
		if err == nil || !errors.Is(err, ErrNoEndpoint) {
			return out, err
		}
	}
	return nil, fmt.Errorf("%w %s", ErrNoEndpoint, facet)
}
