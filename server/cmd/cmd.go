// Package cmd is the command line of the registry daemon.
package cmd

import (
	"context"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/alecthomas/kong"
	"go.ntppool.org/common/config/depenv"
	"go.ntppool.org/common/logger"

	rootcmd "github.com/auraprotocol/diamond/cmd"
	"github.com/auraprotocol/diamond/version"
)

func init() {
	logger.ConfigPrefix = "DIAMOND"
}

// ServerCmd is the root of the diamondd command line.
type ServerCmd struct {
	DeployEnv string `name:"deployment-mode" env:"DEPLOYMENT_MODE" default:"devel" help:"prod, test or devel"`
	StateDir  string `name:"state-dir" help:"directory for the file store (env DIAMOND_STATE_DIR or STATE_DIRECTORY)"`

	Server  serverCmd   `cmd:"" help:"run the registry API server"`
	DB      dbCmd       `cmd:"" name:"db" help:"database maintenance"`
	Version version.Cmd `cmd:"" help:"show version"`

	depEnv depenv.DeploymentEnvironment
}

func (cmd *ServerCmd) Help() string {
	return heredoc.Doc(`
		diamondd serves a function selector registry: the loupe queries,
		owner-only cut and ownership submission, and call dispatch to the
		facet endpoints.

		State is kept in --state-dir, or in PostgreSQL when --db-dsn or
		--db-config is set.
	`)
}

// BeforeApply resolves the state directory from the environment; the
// flag, applied afterwards, still wins.
func (cmd *ServerCmd) BeforeApply() error {
	if cmd.StateDir != "" {
		return nil
	}
	dir, err := rootcmd.StateDir("diamondd")
	if err != nil {
		return err
	}
	cmd.StateDir = dir
	return nil
}

func (cmd *ServerCmd) AfterApply(kctx *kong.Context, ctx context.Context) error {
	cmd.depEnv = depenv.DeploymentEnvironmentFromString(cmd.DeployEnv)
	if cmd.depEnv == depenv.DeployUndefined {
		return fmt.Errorf("unknown deployment mode %q", cmd.DeployEnv)
	}

	log := logger.Setup()
	kctx.BindTo(logger.NewContext(ctx, log), (*context.Context)(nil))
	kctx.Bind(cmd)
	return nil
}
