//go:build linux || freebsd

// udplitectl -- CLI utility for exercising UDP-Lite endpoints.
package main

import (
	"github.com/tormol/udplite/cmd/udplitectl/commands"
)

func main() {
	commands.Execute()
}
