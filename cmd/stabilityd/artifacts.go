package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/vjranagit/detector-stability/pkg/generator"
	"github.com/vjranagit/detector-stability/pkg/stability"
	"github.com/vjranagit/detector-stability/pkg/storage"
	"github.com/vjranagit/detector-stability/pkg/telemetry"
	"go.uber.org/zap"
)

// generateDataset writes a fresh dataset to the store
func (a *app) generateDataset(ctx context.Context, store storage.DatasetStore) (*telemetry.Dataset, error) {
	genCfg := a.cfg.ToGeneratorConfig()
	path, ds, err := generator.GenerateToStore(ctx, store, genCfg)
	if err != nil {
		return nil, err
	}

	a.logger.Info("telemetry generated",
		zap.String("path", path),
		zap.Int("rows", ds.Len()),
		zap.Uint64("seed", genCfg.Seed),
	)
	return ds, nil
}

// trainModel fits a model on ds and stores it under the configured name
func (a *app) trainModel(ctx context.Context, ds *telemetry.Dataset, models storage.ModelStore) (*stability.Model, error) {
	model, report, err := stability.Train(ctx, ds, a.cfg.ToTrainConfig())
	if err != nil {
		return nil, err
	}

	a.logger.Info("stability model trained",
		zap.Stringer("model_id", report.ModelID),
		zap.Int("train_rows", report.TrainRows),
		zap.Int("test_rows", report.TestRows),
		zap.Int("trees", report.Trees),
		zap.Float64("r2", report.R2),
		zap.Duration("took", report.Duration),
	)

	if err := models.Put(ctx, a.cfg.Model.Name, model); err != nil {
		return nil, fmt.Errorf("failed to store model: %w", err)
	}
	a.logger.Info("stability model saved", zap.String("name", a.cfg.Model.Name))

	return model, nil
}

// loadDataset reads the dataset, generating it first when allowed
func (a *app) loadDataset(ctx context.Context, store storage.DatasetStore, bootstrap bool) (*telemetry.Dataset, error) {
	ds, err := store.Load(ctx)
	var missing *telemetry.MissingDatasetError
	if errors.As(err, &missing) && bootstrap {
		a.logger.Warn("telemetry dataset missing, generating", zap.String("path", store.Path()))
		return a.generateDataset(ctx, store)
	}
	return ds, err
}

// loadModel reads the model, training it first when allowed
func (a *app) loadModel(ctx context.Context, ds *telemetry.Dataset, models storage.ModelStore, bootstrap bool) (*stability.Model, error) {
	model, err := models.Get(ctx, a.cfg.Model.Name)
	var missing *telemetry.MissingModelError
	if errors.As(err, &missing) && bootstrap {
		a.logger.Warn("stability model missing, training", zap.String("name", a.cfg.Model.Name))
		return a.trainModel(ctx, ds, models)
	}
	return model, err
}
