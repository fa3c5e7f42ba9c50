package main

import (
	"github.com/robotalks/mos.go/pkg/cli/sh"
	"github.com/robotalks/mos.go/pkg/env"

	_ "github.com/robotalks/mos.go/pkg/cli/cmds/sunroof"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
