// Package main is the entry point for the nhlmetrics CLI tool, which turns
// NHL play-by-play feeds into per-player possession and expected-goal metrics.
package main

import "github.com/pable/go-nhl-metrics/cmd"

func main() {
	cmd.Execute()
}
