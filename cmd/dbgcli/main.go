package main

import (
	"github.com/robotalks/dbglink/pkg/cli/sh"
	env "github.com/robotalks/dbglink/pkg/env/host"

	_ "github.com/robotalks/dbglink/pkg/cli/cmds/dbg"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
