package cmd

import (
	"context"
	"fmt"
)

type historyCmd struct {
	Limit int `name:"limit" short:"n" default:"20" help:"number of records"`
}

func (cmd *historyCmd) Run(ctx context.Context, cli *CtlCmd) error {
	r, err := cli.reader()
	if err != nil {
		return err
	}
	recs, err := r.History(ctx, cmd.Limit)
	if err != nil {
		return err
	}
	if cli.JSON {
		return printJSON(cli.out, recs)
	}
	if len(recs) == 0 {
		_, err = fmt.Fprintln(cli.out, "no history")
		return err
	}
	for _, rec := range recs {
		if err := printRecord(cli.out, rec); err != nil {
			return err
		}
	}
	return nil
}
