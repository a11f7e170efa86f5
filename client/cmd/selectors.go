package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/auraprotocol/diamond/diamond"
)

type selectorsCmd struct {
	Signatures []string `arg:"" name:"signature" help:"canonical function signature, e.g. 'transfer(address,uint256)'"`
}

type selectorEntry struct {
	Signature string           `json:"signature"`
	Selector  diamond.Selector `json:"selector"`
}

func (cmd *selectorsCmd) Run(cli *CtlCmd) error {
	entries := make([]selectorEntry, 0, len(cmd.Signatures))
	for _, sig := range cmd.Signatures {
		entries = append(entries, selectorEntry{Signature: sig, Selector: diamond.SelectorFromSignature(sig)})
	}
	if cli.JSON {
		return printJSON(cli.out, entries)
	}
	tw := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Selector, e.Signature)
	}
	return tw.Flush()
}
