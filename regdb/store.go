package regdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.ntppool.org/common/logger"
	"go.ntppool.org/common/tracing"

	"github.com/auraprotocol/diamond/diamond"
)

// Store implements diamond.Store and diamond.HistoryStore in PostgreSQL.
type Store struct {
	q *Queries
}

// NewStore returns a store using db, usually a *pgxpool.Pool.
func NewStore(db DBTX) *Store {
	return &Store{q: New(db)}
}

// Load restores the state row and the ordered route set.
func (s *Store) Load(ctx context.Context) (*diamond.State, error) {
	ctx, span := tracing.Start(ctx, "regdb.Load")
	defer span.End()

	row, err := s.q.GetState(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	routes, err := s.q.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}

	owner, err := toAddress(row.Owner)
	if err != nil {
		return nil, err
	}
	facets, err := routesToFacets(routes)
	if err != nil {
		return nil, err
	}

	return &diamond.State{Owner: owner, Seq: uint64(row.Seq), Facets: facets}, nil
}

// Commit writes rec and replaces the route set in one transaction.
func (s *Store) Commit(ctx context.Context, rec *diamond.Record) error {
	ctx, span := tracing.Start(ctx, "regdb.Commit")
	defer span.End()

	log := logger.FromContext(ctx)

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	tx, err := s.q.Begin(ctx)
	if err != nil {
		return err
	}
	defer LogRollback(ctx, tx)

	prev, err := tx.GetStateForUpdate(ctx)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		prev.Seq = 0
	case err != nil:
		return err
	}
	if prev.Seq != 0 && uint64(prev.Seq)+1 != rec.Seq {
		return fmt.Errorf("regdb: record seq %d does not follow %d", rec.Seq, prev.Seq)
	}

	err = tx.UpsertState(ctx, UpsertStateParams{Owner: rec.Owner[:], Seq: int64(rec.Seq)})
	if err != nil {
		return err
	}

	if rec.Kind == diamond.RecordCut {
		if err := replaceRoutes(ctx, tx, rec.Facets); err != nil {
			return err
		}
	}

	err = tx.InsertCut(ctx, InsertCutParams{
		ID:        rec.ID.String(),
		Seq:       int64(rec.Seq),
		Kind:      string(rec.Kind),
		Caller:    rec.Caller[:],
		Payload:   payload,
		CreatedOn: rec.Time,
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.DebugContext(ctx, "committed record", "seq", rec.Seq, "kind", rec.Kind)
	return nil
}

// History returns up to limit records, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]*diamond.Record, error) {
	ctx, span := tracing.Start(ctx, "regdb.History")
	defer span.End()

	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.q.ListCuts(ctx, int32(min(limit, 10000)))
	if err != nil {
		return nil, err
	}

	out := make([]*diamond.Record, 0, len(rows))
	for _, r := range rows {
		rec := &diamond.Record{}
		if err := json.Unmarshal(r.Payload, rec); err != nil {
			return nil, fmt.Errorf("regdb: record %s: %w", r.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func replaceRoutes(ctx context.Context, q Querier, facets []diamond.Facet) error {
	if err := q.DeleteRoutes(ctx); err != nil {
		return err
	}
	for fi, f := range facets {
		for si, sel := range f.Selectors {
			err := q.InsertRoute(ctx, InsertRouteParams{
				Selector:         sel[:],
				Facet:            f.Address[:],
				FacetPosition:    int32(fi),
				SelectorPosition: int32(si),
			})
			if err != nil {
				return fmt.Errorf("route %s: %w", sel, err)
			}
		}
	}
	return nil
}

// routesToFacets groups rows ordered by facet and selector position.
func routesToFacets(routes []DiamondRoute) ([]diamond.Facet, error) {
	var facets []diamond.Facet
	lastPos := int32(-1)
	for _, r := range routes {
		addr, err := toAddress(r.Facet)
		if err != nil {
			return nil, err
		}
		var sel diamond.Selector
		if len(r.Selector) != len(sel) {
			return nil, fmt.Errorf("regdb: selector has %d bytes", len(r.Selector))
		}
		copy(sel[:], r.Selector)

		if len(facets) == 0 || r.FacetPosition != lastPos {
			facets = append(facets, diamond.Facet{Address: addr})
			lastPos = r.FacetPosition
		}
		f := &facets[len(facets)-1]
		f.Selectors = append(f.Selectors, sel)
	}
	return facets, nil
}

func toAddress(b []byte) (diamond.Address, error) {
	var a diamond.Address
	if len(b) != len(a) {
		return a, fmt.Errorf("regdb: address has %d bytes", len(b))
	}
	copy(a[:], b)
	return a, nil
}
