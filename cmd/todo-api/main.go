// Command todo-api serves the multi-user todo API and its web frontend.
//
//	@title						Todo Service API
//	@version					1.0
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:          "todo-api",
		Short:        "Multi-user todo service",
		Version:      version,
		SilenceUsage: true,
		// Running without a subcommand starts the server.
		RunE: serve.RunE,
	}
	root.AddCommand(serve, newBootstrapCmd(), newPingCmd())
	return root
}
