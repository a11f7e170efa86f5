package cmd

import (
	"context"
	"fmt"

	"github.com/auraprotocol/diamond/diamond"
)

type ownerCmd struct {
	Show     ownerShowCmd     `cmd:"" default:"1" help:"show the owner and sequence"`
	Transfer ownerTransferCmd `cmd:"" help:"transfer ownership"`
}

type ownerShowCmd struct{}

func (cmd *ownerShowCmd) Run(ctx context.Context, cli *CtlCmd) error {
	r, err := cli.reader()
	if err != nil {
		return err
	}
	o, err := r.Owner(ctx)
	if err != nil {
		return err
	}
	if cli.JSON {
		return printJSON(cli.out, o)
	}
	_, err = fmt.Fprintf(cli.out, "owner %s seq %d\n", o.Owner, o.Seq)
	return err
}

type ownerTransferCmd struct {
	NewOwner string `arg:"" name:"address" help:"new owner address"`
	As       string `name:"as" env:"DIAMOND_CALLER" help:"caller for local writes"`
}

func (cmd *ownerTransferCmd) Run(ctx context.Context, cli *CtlCmd) error {
	newOwner, err := diamond.ParseAddress(cmd.NewOwner)
	if err != nil {
		return err
	}

	var caller diamond.Address
	if cmd.As != "" {
		caller, err = diamond.ParseAddress(cmd.As)
		if err != nil {
			return fmt.Errorf("--as: %w", err)
		}
	}

	w, err := cli.writer(ctx, caller, diamond.Address{})
	if err != nil {
		return err
	}
	rec, err := w.TransferOwnership(ctx, newOwner)
	if err != nil {
		return err
	}
	if cli.JSON {
		return printJSON(cli.out, rec)
	}
	return printRecord(cli.out, rec)
}
