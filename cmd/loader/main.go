package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"felixplore/internal/config"
	"felixplore/internal/loader"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")
	if err := rootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loader",
		Short: "Load the Parquet article dump into Postgres",
		Long: `loader reads the whole Parquet file, creates the pgvector extension and the
articles table when missing, then inserts every row in a single transaction.

Connection settings come from POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_HOST,
POSTGRES_PORT and POSTGRES_DB. Running it twice inserts every row twice.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(cmd.OutOrStdout(), "", log.LstdFlags)
			res, err := loader.Run(context.Background(), cfg, logger)
			if err != nil {
				return err
			}
			logger.Printf("load complete: read=%d inserted=%d null_vectors=%d warnings=%d", res.Read, res.Inserted, res.NullVectors, res.Warnings)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.ParquetPath, "file", cfg.ParquetPath, "Parquet file to load")
	cmd.Flags().StringVar(&cfg.Table, "table", cfg.Table, "target table name")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "rows sent per round trip")
	return cmd
}
