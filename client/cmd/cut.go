package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/diamond"
	"github.com/auraprotocol/diamond/manifest"
)

type cutCmd struct {
	Manifest   string `arg:"" type:"existingfile" help:"deployment manifest (.yaml, .yml or .toml)"`
	NetworkMap string `name:"network-map" type:"existingfile" help:"network map overriding the one named in the manifest"`
	DryRun     bool   `name:"dry-run" help:"validate the cut against the current table without submitting it"`
	As         string `name:"as" env:"DIAMOND_CALLER" help:"caller for local writes (default: the manifest owner)"`
}

func (cmd *cutCmd) Run(ctx context.Context, cli *CtlCmd) error {
	log := logger.FromContext(ctx)

	m, err := manifest.Load(cmd.Manifest)
	if err != nil {
		return err
	}
	if cmd.NetworkMap != "" {
		nm, err := manifest.LoadNetworkMap(cmd.NetworkMap)
		if err != nil {
			return err
		}
		m.SetNetworkMap(nm)
	}

	batch, err := m.Batch()
	if err != nil {
		return err
	}

	if cmd.DryRun {
		return cmd.dryRun(ctx, cli, batch)
	}

	owner, err := m.OwnerAddress()
	if err != nil {
		return err
	}
	caller := owner
	if cmd.As != "" {
		caller, err = diamond.ParseAddress(cmd.As)
		if err != nil {
			return fmt.Errorf("--as: %w", err)
		}
	}

	w, err := cli.writer(ctx, caller, owner)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "submitting cut", "manifest", cmd.Manifest, "cuts", len(batch.Cuts))
	rec, err := w.Cut(ctx, batch)
	if err != nil {
		return err
	}
	if cli.JSON {
		return printJSON(cli.out, rec)
	}
	return printRecord(cli.out, rec)
}

// dryRun applies the batch to a copy of the current table. Init calls
// are not executed.
func (cmd *cutCmd) dryRun(ctx context.Context, cli *CtlCmd, batch diamond.Batch) error {
	r, err := cli.reader()
	if err != nil {
		return err
	}
	facets, err := r.Facets(ctx)
	if err != nil && !errors.Is(err, errNoState) {
		return err
	}

	current, err := diamond.TableFromFacets(facets)
	if err != nil {
		return err
	}
	next, err := diamond.Process(current, batch)
	if err != nil {
		return err
	}

	if cli.JSON {
		return printJSON(cli.out, next.Facets())
	}
	fmt.Fprintf(cli.out, "cut is valid: %d facets, %d selectors after the cut\n", next.FacetCount(), next.Len())
	if batch.Init != nil {
		fmt.Fprintf(cli.out, "init call to %s not executed\n", batch.Init.Target)
	}
	return printFacets(cli.out, next.Facets())
}
