// Ghostwriter-mcp exposes a Ghostwriter reporting instance to MCP clients.
//
// Usage:
//
//	# Serve MCP over stdio (the default)
//	ghostwriter-mcp serve
//
//	# Serve MCP over streamable HTTP on localhost:9091
//	GHOSTWRITER_URL=https://gw.local/v1/graphql GHOSTWRITER_API_TOKEN=... \
//	    ghostwriter-mcp serve --transport http
//
//	# Allocate an unused codename
//	ghostwriter-mcp codename --kind project
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// configPath is bound to the persistent --config flag.
var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ghostwriter-mcp",
		Short: "MCP server for Ghostwriter engagement bookkeeping",
		Long: `ghostwriter-mcp lets MCP clients create or find clients, projects and
reports in Ghostwriter, attach library findings and record evidence.

Configuration comes from ~/.config/ghostwriter-mcp/config.{yaml,toml} and
environment variables such as GHOSTWRITER_URL and GHOSTWRITER_API_TOKEN.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/ghostwriter-mcp/config.yaml)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCodenameCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ghostwriter-mcp by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}
