package main

import (
	"github.com/robotalks/termkbd/pkg/bus/connector"
	"github.com/robotalks/termkbd/pkg/cli/sh"

	_ "github.com/robotalks/termkbd/pkg/cli/cmds/kbd"
)

//go-build: CGO_ENABLED=0

func init() {
	connector.SetupFlags()
}

func main() {
	sh.Main()
}
