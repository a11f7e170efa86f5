package diamond

import (
	"context"
	"errors"
	"time"
)

// Invoker executes a call against a facet. It is the execution side of the
// registry, supplied by the embedding system: init calls and Dispatch both
// go through it.
type Invoker interface {
	Invoke(ctx context.Context, facet Address, calldata []byte) ([]byte, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, facet Address, calldata []byte) ([]byte, error)

func (f InvokerFunc) Invoke(ctx context.Context, facet Address, calldata []byte) ([]byte, error) {
	return f(ctx, facet, calldata)
}

var errNoInvoker = errors.New("no invoker configured")

type stagedKey struct{}

// StagedLoupe returns the table being committed when called from within an
// init call. Init logic uses it to observe the routes its own batch adds.
func StagedLoupe(ctx context.Context) (Loupe, bool) {
	l, ok := ctx.Value(stagedKey{}).(Loupe)
	return l, ok
}

// inInit reports whether ctx belongs to a running init call. The write
// lock is held for the whole call, so changes from inside it are refused.
func inInit(ctx context.Context) bool {
	_, ok := ctx.Value(stagedKey{}).(Loupe)
	return ok
}

// runInit executes the init call of a batch against the staged table.
func (d *Diamond) runInit(ctx context.Context, call *InitCall, staged *Table) error {
	if call == nil {
		return nil
	}
	if d.invoker == nil {
		return &CutError{Kind: KindInitFailed, Op: -1, Facet: call.Target, Err: errNoInvoker}
	}

	start := time.Now()
	ctx = context.WithValue(ctx, stagedKey{}, NewLoupe(staged))
	_, err := d.invoker.Invoke(ctx, call.Target, call.Calldata)
	if d.metrics != nil {
		d.metrics.InitDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return &CutError{Kind: KindInitFailed, Op: -1, Facet: call.Target, Err: err}
	}
	return nil
}
