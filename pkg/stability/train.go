package stability

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/vjranagit/detector-stability/pkg/forest"
	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// TrainConfig holds training configuration
type TrainConfig struct {
	Trees          int
	TestFraction   float64
	Seed           uint64
	MaxDepth       int
	MinSamplesLeaf int
	Workers        int
}

// DefaultTrainConfig returns default training configuration
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Trees:          150,
		TestFraction:   0.2,
		Seed:           42,
		MinSamplesLeaf: 1,
	}
}

// TrainReport summarizes one training run
type TrainReport struct {
	ModelID   uuid.UUID
	TrainRows int
	TestRows  int
	R2        float64
	Trees     int
	Duration  time.Duration
}

// Train labels the dataset with the Stability Law, fits a forest on a seeded
// 80/20 split and reports R² on the held-out rows. There is no accuracy gate.
func Train(ctx context.Context, ds *telemetry.Dataset, cfg TrainConfig) (*Model, TrainReport, error) {
	if ds == nil {
		return nil, TrainReport{}, &telemetry.MissingDatasetError{}
	}
	if ds.Len() < 2 {
		return nil, TrainReport{}, fmt.Errorf("training needs at least 2 rows, got %d", ds.Len())
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		return nil, TrainReport{}, fmt.Errorf("test fraction must be in (0,1), got %g", cfg.TestFraction)
	}

	start := time.Now()

	x := ds.Matrix()
	y := Label(ds)
	trainIdx, testIdx := Split(ds.Len(), cfg.TestFraction, cfg.Seed)

	f, err := forest.Fit(ctx, pick(x, trainIdx), pickY(y, trainIdx), forest.Params{
		Trees:          cfg.Trees,
		MaxDepth:       cfg.MaxDepth,
		MinSamplesLeaf: cfg.MinSamplesLeaf,
		Seed:           cfg.Seed,
		Workers:        cfg.Workers,
	})
	if err != nil {
		return nil, TrainReport{}, fmt.Errorf("failed to fit forest: %w", err)
	}

	r2, err := f.Score(pick(x, testIdx), pickY(y, testIdx))
	if err != nil {
		return nil, TrainReport{}, fmt.Errorf("failed to score held-out rows: %w", err)
	}

	model, err := NewModel(f, nil)
	if err != nil {
		return nil, TrainReport{}, err
	}
	model.R2 = r2
	model.TrainRows = len(trainIdx)
	model.TestRows = len(testIdx)

	return model, TrainReport{
		ModelID:   model.ID,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		R2:        r2,
		Trees:     len(f.Trees),
		Duration:  time.Since(start),
	}, nil
}

// Split permutes [0,n) with a seeded stream and returns disjoint, exhaustive
// train and test index sets. The test set holds ceil(n*testFraction) rows,
// clamped so both sides are non-empty.
func Split(n int, testFraction float64, seed uint64) (train, test []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	nTest := int(math.Ceil(float64(n) * testFraction))
	nTest = max(1, min(nTest, n-1))

	return perm[nTest:], perm[:nTest]
}

func pick(x [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func pickY(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
