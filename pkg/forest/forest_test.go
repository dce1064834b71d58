package forest

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
)

// stepData has y = 1 when x0 > 0.5, else 0; x1 is noise
func stepData(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = []float64{rng.Float64(), rng.Float64()}
		if x[i][0] > 0.5 {
			y[i] = 1
		}
	}
	return x, y
}

func TestTreeLearnsStep(t *testing.T) {
	t.Parallel()

	x, y := stepData(200)
	b := &treeBuilder{x: x, y: y, numFeatures: 2, minSamplesLeaf: 1}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	tree := b.build(idx)

	if tree.Nodes[0].Feature != 0 {
		t.Errorf("Root split on feature %d, want 0", tree.Nodes[0].Feature)
	}
	if tree.Depth() != 1 {
		t.Errorf("Depth = %d, want 1 for a single step", tree.Depth())
	}
	if got := tree.Predict([]float64{0.9, 0.1}); got != 1 {
		t.Errorf("Predict(0.9) = %v, want 1", got)
	}
	if got := tree.Predict([]float64{0.1, 0.9}); got != 0 {
		t.Errorf("Predict(0.1) = %v, want 0", got)
	}
}

func TestTreeMaxDepth(t *testing.T) {
	t.Parallel()

	x, y := stepData(200)
	for i := range y {
		y[i] += x[i][1] // add a second signal so the tree wants to go deeper
	}
	b := &treeBuilder{x: x, y: y, numFeatures: 2, maxDepth: 2, minSamplesLeaf: 1}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	tree := b.build(idx)

	if tree.Depth() > 2 {
		t.Errorf("Depth = %d, want <= 2", tree.Depth())
	}
}

func TestFitDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	x, y := stepData(150)
	ctx := context.Background()

	one, err := Fit(ctx, x, y, Params{Trees: 10, MinSamplesLeaf: 1, Seed: 42, Workers: 1})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	many, err := Fit(ctx, x, y, Params{Trees: 10, MinSamplesLeaf: 1, Seed: 42, Workers: 8})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for i := range x {
		a, _ := one.Predict(x[i])
		b, _ := many.Predict(x[i])
		if a != b {
			t.Fatalf("Row %d: %v with 1 worker, %v with 8", i, a, b)
		}
	}
}

func TestFitScore(t *testing.T) {
	t.Parallel()

	x, y := stepData(400)
	f, err := Fit(context.Background(), x[:300], y[:300], DefaultParams())
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	r2, err := f.Score(x[300:], y[300:])
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if r2 < 0.8 {
		t.Errorf("R² = %v, want >= 0.8 on a clean step", r2)
	}
}

func TestPredictWidth(t *testing.T) {
	t.Parallel()

	x, y := stepData(20)
	f, err := Fit(context.Background(), x, y, Params{Trees: 2, Seed: 1})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if _, err := f.Predict([]float64{0.1}); err == nil {
		t.Error("expected error for short feature vector")
	}
	if _, err := f.PredictBatch([][]float64{{0.1, 0.2}, {0.3}}); err == nil {
		t.Error("expected error for ragged batch")
	}
}

func TestFitErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if _, err := Fit(ctx, nil, nil, DefaultParams()); err != ErrEmpty {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
	if _, err := Fit(ctx, [][]float64{{1}}, []float64{1, 2}, DefaultParams()); err == nil {
		t.Error("expected error for length mismatch")
	}
	if _, err := Fit(ctx, [][]float64{{1}}, []float64{1}, Params{Trees: 0}); err == nil {
		t.Error("expected error for zero trees")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Fit(cancelled, [][]float64{{1}, {2}}, []float64{1, 2}, DefaultParams()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestPredictionIsLeafAverage(t *testing.T) {
	t.Parallel()

	// Constant target: every tree is a single leaf
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{0.25, 0.25, 0.25}
	f, err := Fit(context.Background(), x, y, Params{Trees: 5, Seed: 3})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	got, _ := f.Predict([]float64{100})
	if math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Predict = %v, want 0.25", got)
	}
}
