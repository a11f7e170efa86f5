package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/auraprotocol/diamond/client/api"
	"github.com/auraprotocol/diamond/cutlog"
	"github.com/auraprotocol/diamond/diamond"
)

// reader is implemented by *api.Client and localReader.
type reader interface {
	Facets(ctx context.Context) ([]diamond.Facet, error)
	Owner(ctx context.Context) (api.Owner, error)
	History(ctx context.Context, limit int) ([]*diamond.Record, error)
}

// writer is implemented by *api.Client and localWriter.
type writer interface {
	Cut(ctx context.Context, batch diamond.Batch) (*diamond.Record, error)
	TransferOwnership(ctx context.Context, owner diamond.Address) (*diamond.Record, error)
}

var errNoState = errors.New("no registry state")

type localReader struct {
	store *cutlog.Store
}

func (r *localReader) state(ctx context.Context) (*diamond.State, error) {
	state, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w in %s", errNoState, r.store.Dir())
	}
	return state, nil
}

func (r *localReader) Facets(ctx context.Context) ([]diamond.Facet, error) {
	state, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	return state.Facets, nil
}

func (r *localReader) Owner(ctx context.Context) (api.Owner, error) {
	state, err := r.state(ctx)
	if err != nil {
		return api.Owner{}, err
	}
	return api.Owner{Owner: state.Owner, Seq: state.Seq}, nil
}

func (r *localReader) History(ctx context.Context, limit int) ([]*diamond.Record, error) {
	return r.store.History(ctx, limit)
}

// localWriter submits changes to a registry opened on a state directory.
// Init calls fail: there is no invoker.
type localWriter struct {
	d      *diamond.Diamond
	caller diamond.Address
}

func openLocalWriter(ctx context.Context, dir string, caller, owner diamond.Address) (*localWriter, error) {
	if caller.IsZero() {
		return nil, errors.New("local writes need a caller (--as)")
	}
	store, err := cutlog.Open(dir)
	if err != nil {
		return nil, err
	}
	opts := []diamond.Option{diamond.WithStore(store)}
	if !owner.IsZero() {
		opts = append(opts, diamond.WithOwner(owner))
	}
	d, err := diamond.Open(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &localWriter{d: d, caller: caller}, nil
}

func (w *localWriter) Cut(ctx context.Context, batch diamond.Batch) (*diamond.Record, error) {
	return w.d.SubmitCut(ctx, w.caller, batch)
}

func (w *localWriter) TransferOwnership(ctx context.Context, owner diamond.Address) (*diamond.Record, error) {
	return w.d.TransferOwnership(ctx, w.caller, owner)
}

// writer returns the write side of the registry. owner is only used to
// create a new local registry.
func (cli *CtlCmd) writer(ctx context.Context, caller, owner diamond.Address) (writer, error) {
	if cli.remote() {
		if cli.Token == "" {
			return nil, errors.New("remote writes need --token")
		}
		return cli.client(), nil
	}
	if cli.StateDir == "" {
		return nil, errNoTarget
	}
	return openLocalWriter(ctx, cli.StateDir, caller, owner)
}
