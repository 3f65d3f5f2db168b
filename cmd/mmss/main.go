// Package main is the single-binary entrypoint for MMSS.
package main

import "github.com/mmss-network/mmss/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
