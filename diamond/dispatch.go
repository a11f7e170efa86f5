package diamond

import (
	"context"
	"fmt"

	"go.ntppool.org/common/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatch routes calldata by its leading selector to the facet currently
// owning it and executes the call through the configured Invoker.
func (d *Diamond) Dispatch(ctx context.Context, calldata []byte) ([]byte, error) {
	sel, ok := SelectorOf(calldata)
	if !ok {
		d.countDispatch("short_calldata")
		return nil, fmt.Errorf("%w: calldata shorter than a selector", ErrFunctionNotFound)
	}

	facet, ok := d.Resolve(sel)
	if !ok {
		d.countDispatch("not_found")
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, sel)
	}

	ctx, span := tracing.Start(ctx, "diamond.Dispatch",
		trace.WithAttributes(
			attribute.String("selector", sel.String()),
			attribute.String("facet", facet.String()),
		),
	)
	defer span.End()

	if d.invoker == nil {
		d.countDispatch("error")
		return nil, errNoInvoker
	}

	out, err := d.invoker.Invoke(ctx, facet, calldata)
	if err != nil {
		span.RecordError(err)
		d.countDispatch("error")
		return nil, fmt.Errorf("facet %s selector %s: %w", facet, sel, err)
	}
	d.countDispatch("ok")
	return out, nil
}

func (d *Diamond) countDispatch(result string) {
	if d.metrics != nil {
		d.metrics.Dispatches.WithLabelValues(result).Inc()
	}
}
