// Package main is the entry point for the scrimmetrics CLI, which processes
// raw scrim telemetry logs into match statistics.
package main

import "github.com/scrimsight/go-scrim-metrics/cmd"

func main() {
	cmd.Execute()
}
