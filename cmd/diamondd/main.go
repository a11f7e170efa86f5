package main

import (
	basecmd "github.com/auraprotocol/diamond/cmd"
	"github.com/auraprotocol/diamond/server/cmd"
	"github.com/auraprotocol/diamond/version"
)

func main() {
	basecmd.Run(&cmd.ServerCmd{Version: version.Cmd{Name: "diamondd"}}, "diamondd", "Function selector registry daemon")
}
