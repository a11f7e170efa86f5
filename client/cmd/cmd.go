// Package cmd is the diamondctl command line: selector hashing, manifest
// cuts, loupe queries and ownership against a registry API or a local
// state directory.
package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/alecthomas/kong"
	"go.ntppool.org/common/logger"

	"github.com/auraprotocol/diamond/client/api"
	rootcmd "github.com/auraprotocol/diamond/cmd"
	"github.com/auraprotocol/diamond/cutlog"
	"github.com/auraprotocol/diamond/version"
)

func init() {
	logger.ConfigPrefix = "DIAMOND"
}

var errNoTarget = errors.New("no registry: set --api or --state-dir")

// CtlCmd is the root of the diamondctl command line.
type CtlCmd struct {
	API      string `name:"api" env:"DIAMOND_API" help:"registry API base URL"`
	Token    string `name:"token" env:"DIAMOND_TOKEN" help:"admin bearer token for cut and ownership requests"`
	StateDir string `name:"state-dir" help:"local state directory, used when --api is not set (env DIAMOND_STATE_DIR or STATE_DIRECTORY)"`
	JSON     bool   `name:"json" help:"print JSON"`

	Selectors selectorsCmd `cmd:"" help:"print the selectors of function signatures"`
	Cut       cutCmd       `cmd:"" help:"apply a manifest as one cut"`
	Loupe     loupeCmd     `cmd:"" help:"show the routing table"`
	History   historyCmd   `cmd:"" help:"show recent records"`
	Owner     ownerCmd     `cmd:"" help:"show or transfer ownership"`
	TokenCmd  tokenCmd     `cmd:"" name:"token" help:"mint an admin token"`
	Version   version.Cmd  `cmd:"" help:"show version"`

	out io.Writer
}

func (cli *CtlCmd) Help() string {
	return heredoc.Doc(`
		diamondctl talks to a registry API (--api) or, without one, reads
		and writes the file store in --state-dir directly.

		Local writes are made as the caller given with --as; remote writes
		are made as the subject of --token.
	`)
}

func (cli *CtlCmd) BeforeApply() error {
	if cli.StateDir != "" {
		return nil
	}
	dir, err := rootcmd.StateDir("diamondd")
	if err != nil {
		return err
	}
	cli.StateDir = dir
	return nil
}

func (cli *CtlCmd) AfterApply(kctx *kong.Context, ctx context.Context) error {
	if cli.out == nil {
		cli.out = os.Stdout
	}
	kctx.BindTo(logger.NewContext(ctx, logger.Setup()), (*context.Context)(nil))
	kctx.Bind(cli)
	return nil
}

func (cli *CtlCmd) remote() bool {
	return cli.API != ""
}

func (cli *CtlCmd) client() *api.Client {
	return api.New(cli.API, cli.Token)
}

// reader returns the read side of the configured registry.
func (cli *CtlCmd) reader() (reader, error) {
	if cli.remote() {
		return cli.client(), nil
	}
	if cli.StateDir == "" {
		return nil, errNoTarget
	}
	store, err := cutlog.Open(cli.StateDir)
	if err != nil {
		return nil, err
	}
	return &localReader{store: store}, nil
}
