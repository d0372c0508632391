package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/codename"
	"github.com/fyrsmithlabs/ghostwriter-mcp/internal/config"
)

func newCodenameCmd() *cobra.Command {
	var (
		kind        string
		seed        string
		maxAttempts int
	)

	cmd := &cobra.Command{
		Use:   "codename",
		Short: "Print a codename not used by any client or project",
		Long: `Generate a codename and check it against every client and project in
Ghostwriter. Nothing is created; the name is not reserved.

Examples:
  ghostwriter-mcp codename
  ghostwriter-mcp codename --kind client --seed acme --max-attempts 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithFile(configPath)
			if err != nil {
				return err
			}
			return runCodename(cmd.Context(), cmd.OutOrStdout(), cfg, codename.Request{
				Kind:        codename.Kind(kind),
				Seed:        seed,
				MaxAttempts: maxAttempts,
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(codename.KindProject), `entity the codename is for: "client" or "project"`)
	cmd.Flags().StringVar(&seed, "seed", "", "seed for a deterministic candidate sequence")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "candidates to try before giving up (default codename.max_attempts)")
	return cmd
}

func runCodename(ctx context.Context, w io.Writer, cfg *config.Config, req codename.Request) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close(context.WithoutCancel(ctx))
	}()

	name, err := a.codenames.Generate(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, name)
	return err
}
