package main

import (
	"github.com/auraprotocol/diamond/client/cmd"
	basecmd "github.com/auraprotocol/diamond/cmd"
	"github.com/auraprotocol/diamond/version"
)

func main() {
	basecmd.Run(&cmd.CtlCmd{Version: version.Cmd{Name: "diamondctl"}}, "diamondctl", "Function selector registry tool")
}
