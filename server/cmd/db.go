package cmd

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/regdb"
)

type dbCmd struct {
	Database regdb.Config `embed:"" prefix:"db-"`

	Migrate dbMigrateCmd `cmd:"" help:"create the registry tables"`
	Status  dbStatusCmd  `cmd:"" help:"show the stored owner and sequence"`
}

func (cmd *dbCmd) AfterApply(kctx *kong.Context) error {
	kctx.Bind(cmd)
	return nil
}

type dbMigrateCmd struct{}

func (cmd *dbMigrateCmd) Run(ctx context.Context, db *dbCmd) error {
	pool, err := regdb.OpenDB(ctx, db.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := regdb.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.FromContext(ctx).InfoContext(ctx, "schema up to date")
	return nil
}

type dbStatusCmd struct{}

func (cmd *dbStatusCmd) Run(ctx context.Context, db *dbCmd) error {
	pool, err := regdb.OpenDB(ctx, db.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	state, err := regdb.NewStore(pool).Load(ctx)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Println("No registry state stored")
		return nil
	}

	selectors := 0
	for _, f := range state.Facets {
		selectors += len(f.Selectors)
	}
	fmt.Printf("owner %s seq %d facets %d selectors %d\n", state.Owner, state.Seq, len(state.Facets), selectors)
	return nil
}
