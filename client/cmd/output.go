package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/auraprotocol/diamond/diamond"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printFacets(w io.Writer, facets []diamond.Facet) error {
	if len(facets) == 0 {
		_, err := fmt.Fprintln(w, "no facets")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range facets {
		for i, s := range f.Selectors {
			facet := ""
			if i == 0 {
				facet = f.Address.String()
			}
			fmt.Fprintf(tw, "%s\t%s\n", facet, s)
		}
	}
	return tw.Flush()
}

func printRecord(w io.Writer, rec *diamond.Record) error {
	switch rec.Kind {
	case diamond.RecordOwnership:
		_, err := fmt.Fprintf(w, "seq %d %s: owner %s -> %s\n", rec.Seq, rec.ID, rec.PreviousOwner, rec.Owner)
		return err
	default:
		n := 0
		for _, c := range rec.Cuts {
			n += len(c.Selectors)
		}
		_, err := fmt.Fprintf(w, "seq %d %s: %d cuts, %d selectors by %s, %d facets live\n",
			rec.Seq, rec.ID, len(rec.Cuts), n, rec.Caller, len(rec.Facets))
		return err
	}
}
