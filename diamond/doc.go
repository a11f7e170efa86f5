// Package diamond implements the facet dispatch registry behind a diamond
// proxy.
//
// A diamond routes each call, identified by its 4-byte function selector, to
// one of several independently deployed implementation units ("facets").
// The routing table is reconfigured only through cuts: ordered batches of
// Add, Replace and Remove operations that are validated in full and then
// applied as one unit.
//
// # Routing states
//
// Every selector is either unrouted or routed to exactly one facet:
//   - Add: unrouted -> routed
//   - Replace: routed -> routed (possibly to the same facet)
//   - Remove: routed -> unrouted
//
// Any other transition aborts the whole batch.
//
// # Atomicity
//
// A cut is staged on a copy of the current table. The optional init call
// runs against the staged table, then the record is persisted, and only then
// is the staged table published to readers. A failure at any step discards
// the staged copy, so readers never observe a partial batch.
//
// # Usage
//
//	d, err := diamond.Open(ctx, diamond.WithOwner(owner), diamond.WithStore(store))
//	if err != nil {
//	    return err
//	}
//	rec, err := d.SubmitCut(ctx, owner, diamond.Batch{Cuts: cuts})
package diamond
