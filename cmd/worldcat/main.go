// Package main provides the entry point for the worldcat CLI tool.
package main

import "github.com/MarkBruyneel/WorldCat/cmd/worldcat/cmd"

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
