package evaluator

import (
	"context"
	"time"

	"github.com/vjranagit/detector-stability/pkg/telemetry"
	"go.uber.org/zap"
)

// DefaultRefreshInterval is the pause between ticks
const DefaultRefreshInterval = time.Second

// Sink receives each window result, e.g. a dashboard or API
type Sink interface {
	Publish(ctx context.Context, r WindowResult)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, r WindowResult)

// Publish implements Sink
func (f SinkFunc) Publish(ctx context.Context, r WindowResult) {
	f(ctx, r)
}

// Sleeper blocks between ticks. Tests inject a fake to avoid wall-clock waits.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct{}

// WallClock sleeps in real time and wakes early on cancellation
var WallClock Sleeper = wallClock{}

func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Runner drives an Evaluator one window per tick on a fixed cadence.
// It runs on the caller's goroutine; windows are never evaluated in parallel.
type Runner struct {
	eval     *Evaluator
	interval time.Duration
	sleeper  Sleeper
	sinks    []Sink
	logger   *zap.Logger
	cursor   WindowCursor
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithSleeper replaces the wall clock
func WithSleeper(s Sleeper) RunnerOption {
	return func(r *Runner) { r.sleeper = s }
}

// WithSinks adds result consumers
func WithSinks(sinks ...Sink) RunnerOption {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// WithRunnerLogger sets the logger
func WithRunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner starting at the first row
func NewRunner(eval *Evaluator, interval time.Duration, opts ...RunnerOption) *Runner {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	r := &Runner{
		eval:     eval,
		interval: interval,
		sleeper:  WallClock,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cursor returns the position of the next window
func (r *Runner) Cursor() WindowCursor {
	return r.cursor
}

// Step evaluates one window, publishes it and advances the cursor
func (r *Runner) Step(ctx context.Context) (WindowResult, error) {
	res, next, err := r.eval.Tick(ctx, r.cursor)
	r.cursor = next
	if err != nil {
		return WindowResult{}, err
	}

	for _, s := range r.sinks {
		s.Publish(ctx, res)
	}
	return res, nil
}

// Run evaluates windows until ctx is cancelled or maxTicks windows have been
// attempted (0 means no limit). A failed tick is logged and skipped.
// Run returns nil when stopped by ctx.
func (r *Runner) Run(ctx context.Context, maxTicks int) error {
	r.logger.Info("evaluation loop started",
		zap.Int("window_size", r.eval.WindowSize()),
		zap.Duration("interval", r.interval),
		zap.Int("rows", r.eval.Dataset().Len()),
	)

	for tick := 1; ; tick++ {
		if _, err := r.Step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			r.logger.Warn("tick failed", zap.Int("tick", tick), zap.Error(err))
		}

		if maxTicks > 0 && tick >= maxTicks {
			break
		}

		if err := r.sleeper.Sleep(ctx, r.interval); err != nil {
			break
		}
	}

	r.logger.Info("evaluation loop stopped", zap.Int("cursor", r.cursor.Index))
	return nil
}

// LogSink logs every window at info level
func LogSink(l *zap.Logger) Sink {
	return SinkFunc(func(_ context.Context, res WindowResult) {
		l.Info("window evaluated",
			zap.Int("start", res.Start),
			zap.Int("end", res.End),
			zap.Float64("stability_index", res.MeanIndex),
			zap.Stringer("status", res.Status),
			zap.Float64("dose_rate_median", res.Stats[telemetry.DoseRate].Median),
			zap.Float64("temperature_median", res.Stats[telemetry.Temperature].Median),
			zap.Int("anomalies", len(res.Anomalies)),
		)
	})
}
