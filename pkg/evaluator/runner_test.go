package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeSleeper records requested pauses without waiting
type fakeSleeper struct {
	slept  []time.Duration
	cancel context.CancelFunc
	after  int
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.cancel != nil && len(s.slept) >= s.after {
		s.cancel()
	}
	return ctx.Err()
}

func uniformScores(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestRunnerTicks(t *testing.T) {
	ds := scoredDataset(uniformScores(23, 0.9)...)
	e, err := New(ds, &fakePredictor{}, WithWindowSize(10))
	require.NoError(t, err)

	var windows [][2]int
	sink := SinkFunc(func(_ context.Context, r WindowResult) {
		windows = append(windows, [2]int{r.Start, r.End})
	})

	sleeper := &fakeSleeper{}
	r := NewRunner(e, 250*time.Millisecond, WithSleeper(sleeper), WithSinks(sink))

	require.NoError(t, r.Run(context.Background(), 5))

	assert.Equal(t, [][2]int{{0, 10}, {10, 20}, {20, 23}, {0, 10}, {10, 20}}, windows)
	assert.Equal(t, 20, r.Cursor().Index)
	assert.Len(t, sleeper.slept, 4)
	assert.Equal(t, 250*time.Millisecond, sleeper.slept[0])
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ds := scoredDataset(uniformScores(30, 0.9)...)
	e, err := New(ds, &fakePredictor{}, WithWindowSize(10))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	published := 0
	sleeper := &fakeSleeper{cancel: cancel, after: 2}
	r := NewRunner(e, time.Second,
		WithSleeper(sleeper),
		WithSinks(SinkFunc(func(context.Context, WindowResult) { published++ })),
	)

	require.NoError(t, r.Run(ctx, 0))
	assert.Equal(t, 2, published)
	assert.Equal(t, 20, r.Cursor().Index)
}

func TestRunnerSkipsFailedTicks(t *testing.T) {
	ds := scoredDataset(uniformScores(4, 0.9)...)
	e, err := New(ds, &fakePredictor{err: errors.New("model unavailable")}, WithWindowSize(2))
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	r := NewRunner(e, time.Second, WithSleeper(&fakeSleeper{}), WithRunnerLogger(zap.New(core)))

	require.NoError(t, r.Run(context.Background(), 3))
	assert.Equal(t, 3, logs.FilterMessage("tick failed").Len())
	assert.Equal(t, 2, r.Cursor().Index)
}

func TestNewRunnerDefaultInterval(t *testing.T) {
	e, err := New(scoredDataset(0.9), &fakePredictor{})
	require.NoError(t, err)

	r := NewRunner(e, 0)
	assert.Equal(t, DefaultRefreshInterval, r.interval)
}

func TestWallClockCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WallClock.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e, err := New(scoredDataset(0.9, 0.5), &fakePredictor{})
	require.NoError(t, err)

	res, err := e.Evaluate(0, 2)
	require.NoError(t, err)

	LogSink(zap.New(core)).Publish(context.Background(), res)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "Degrading", fields["status"])
	assert.InDelta(t, 0.7, fields["stability_index"], 1e-12)
}
