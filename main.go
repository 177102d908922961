package main

import (
	_ "embed"
	"strings"

	"github.com/QuesmaOrg/tfc-rig/cmd"
)

//go:embed VERSION
var version string

func main() {
	cmd.SetVersionInfo(strings.TrimSpace(version), "", "")
	cmd.Execute()
}
