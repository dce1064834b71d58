package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vjranagit/detector-stability/pkg/storage"
)

func generateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the synthetic telemetry dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := storage.NewCSVStore(a.cfg.Data.Dir)
			ds, err := a.generateDataset(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s (rows: %d)\n", store.Path(), ds.Len())
			return nil
		},
	}

	cmd.Flags().Int("samples", 0, "number of rows (default from config)")
	cmd.Flags().Uint64("seed", 0, "random seed (default from config)")
	_ = a.v.BindPFlag("generator.sample_count", cmd.Flags().Lookup("samples"))
	_ = a.v.BindPFlag("generator.seed", cmd.Flags().Lookup("seed"))

	return cmd
}
