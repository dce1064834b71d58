package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vjranagit/detector-stability/pkg/storage"
)

func trainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the stability model from the telemetry dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ds, err := storage.NewCSVStore(a.cfg.Data.Dir).Load(ctx)
			if err != nil {
				return err
			}

			models, err := storage.NewModelStore(a.cfg.ToStorageConfig())
			if err != nil {
				return err
			}
			defer models.Close()

			model, err := a.trainModel(ctx, ds, models)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Trained stability model %s. R²: %.3f\n", model.ID, model.R2)
			return nil
		},
	}

	cmd.Flags().Int("trees", 0, "number of trees (default from config)")
	_ = a.v.BindPFlag("model.trees", cmd.Flags().Lookup("trees"))

	return cmd
}
