// Package forest implements a bootstrap-aggregated random forest of CART
// regression trees.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Params holds forest hyper-parameters
type Params struct {
	Trees          int
	MaxDepth       int // 0 grows until leaves are pure
	MinSamplesLeaf int
	Seed           uint64
	Workers        int // 0 uses GOMAXPROCS
}

// DefaultParams returns the default forest parameters
func DefaultParams() Params {
	return Params{
		Trees:          150,
		MaxDepth:       0,
		MinSamplesLeaf: 1,
		Seed:           42,
	}
}

// Forest is a fitted ensemble; the prediction is the mean over trees
type Forest struct {
	NumFeatures int
	Trees       []Tree
}

// ErrEmpty is returned when fitting without samples
var ErrEmpty = errors.New("forest: no training samples")

// Fit grows p.Trees trees concurrently. Each tree draws its bootstrap sample
// from a stream seeded by (p.Seed, tree index), so the result does not depend
// on the number of workers.
func Fit(ctx context.Context, x [][]float64, y []float64, p Params) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("forest: %d feature rows but %d targets", len(x), len(y))
	}
	if p.Trees < 1 {
		return nil, fmt.Errorf("forest: tree count must be at least 1, got %d", p.Trees)
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}

	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("forest: row %d has %d features, want %d", i, len(row), width)
		}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	f := &Forest{
		NumFeatures: width,
		Trees:       make([]Tree, p.Trees),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for t := range f.Trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := &treeBuilder{
				x:              x,
				y:              y,
				numFeatures:    width,
				maxDepth:       p.MaxDepth,
				minSamplesLeaf: p.MinSamplesLeaf,
			}
			f.Trees[t] = b.build(bootstrap(len(x), p.Seed, uint64(t)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return f, nil
}

// bootstrap samples n indices with replacement
func bootstrap(n int, seed, tree uint64) []int {
	rng := rand.New(rand.NewPCG(seed, tree))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// Predict returns the ensemble estimate for one feature vector.
// The output is not clipped.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("forest: got %d features, want %d", len(x), f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, ErrEmpty
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// PredictBatch predicts every row of x
func (f *Forest) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Score returns the coefficient of determination of the forest on (x, y)
func (f *Forest) Score(x [][]float64, y []float64) (float64, error) {
	pred, err := f.PredictBatch(x)
	if err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(pred, y, nil), nil
}
