// Package main is the entry point for the agent-control binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/cmd"
	"github.com/newrelic/newrelic-agent-control-sub002/internal/cmd/agentcontrol"
)

func main() {
	root := cmd.Command(&agentcontrol.Command{}, cobra.Command{
		Use:   "agent-control",
		Short: "Runs the New Relic agent-control process",
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
