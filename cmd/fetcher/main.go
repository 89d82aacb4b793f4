package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"felixplore/internal/config"
	"felixplore/internal/fetcher"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")
	if err := rootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func rootCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fetcher <publication> <issue>",
		Short:         "Fetch articles from PostgreSQL and format as Markdown",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			issueNo, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid issue number %q: %w", args[1], err)
			}
			if err := fetcher.Run(context.Background(), cfg, args[0], issueNo, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.Table, "table", cfg.Table, "Database table name for articles")
	return cmd
}
