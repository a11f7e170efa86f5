package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/cutlog"
	"github.com/auraprotocol/diamond/diamond"
)

type loupeCmd struct {
	Selector string        `name:"selector" help:"only show the facet routing this selector"`
	Facet    string        `name:"facet" help:"only show the selectors of this facet"`
	Watch    bool          `name:"watch" help:"print the table again whenever it changes"`
	Interval time.Duration `name:"interval" default:"10s" help:"poll interval of --watch against an API"`
}

func (cmd *loupeCmd) Run(ctx context.Context, cli *CtlCmd) error {
	r, err := cli.reader()
	if err != nil {
		return err
	}

	if !cmd.Watch {
		return cmd.show(ctx, cli, r)
	}

	log := logger.FromContext(ctx)
	show := func(ctx context.Context) {
		if err := cmd.show(ctx, cli, r); err != nil {
			log.WarnContext(ctx, "loupe", "err", err)
		}
	}

	if !cli.remote() {
		return cutlog.Watch(ctx, cli.StateDir, show)
	}

	// the API has no change feed; poll and print on sequence changes
	var seq uint64
	first := true
	ticker := time.NewTicker(cmd.Interval)
	defer ticker.Stop()
	for {
		o, err := r.Owner(ctx)
		if err != nil {
			log.WarnContext(ctx, "loupe", "err", err)
		} else if first || o.Seq != seq {
			first = false
			seq = o.Seq
			show(ctx)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (cmd *loupeCmd) show(ctx context.Context, cli *CtlCmd, r reader) error {
	facets, err := r.Facets(ctx)
	if err != nil {
		if errors.Is(err, errNoState) {
			facets = nil
		} else {
			return err
		}
	}
	t, err := diamond.TableFromFacets(facets)
	if err != nil {
		return err
	}
	l := diamond.NewLoupe(t)

	switch {
	case cmd.Selector != "":
		s, err := diamond.ParseSelector(cmd.Selector)
		if err != nil {
			return err
		}
		facet, ok := l.FacetAddress(s)
		if cli.JSON {
			return printJSON(cli.out, map[string]any{"selector": s, "facet": facet, "routed": ok})
		}
		if !ok {
			_, err = fmt.Fprintf(cli.out, "%s is not routed\n", s)
			return err
		}
		_, err = fmt.Fprintf(cli.out, "%s\t%s\n", s, facet)
		return err

	case cmd.Facet != "":
		facet, err := diamond.ParseAddress(cmd.Facet)
		if err != nil {
			return err
		}
		selectors := l.FacetSelectors(facet)
		if cli.JSON {
			if selectors == nil {
				selectors = []diamond.Selector{}
			}
			return printJSON(cli.out, selectors)
		}
		for _, s := range selectors {
			fmt.Fprintln(cli.out, s)
		}
		return nil
	}

	if cli.JSON {
		facets := l.Facets()
		if facets == nil {
			facets = []diamond.Facet{}
		}
		return printJSON(cli.out, facets)
	}
	return printFacets(cli.out, l.Facets())
}
