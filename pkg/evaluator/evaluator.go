// Package evaluator applies the stability model to a dataset as a wrapping
// sequence of fixed-size windows and classifies each window.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vjranagit/detector-stability/pkg/stability"
	"github.com/vjranagit/detector-stability/pkg/telemetry"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindowSize is the number of rows evaluated per tick
const DefaultWindowSize = 10

// Predictor scores telemetry rows
type Predictor interface {
	PredictRows(rows []telemetry.Row) ([]float64, error)
}

// ChannelStats summarizes one channel over a window
type ChannelStats struct {
	Median float64
	Mean   float64
}

// WindowResult is the outcome of one tick. It is derived and never stored.
type WindowResult struct {
	Start       int
	End         int
	Rows        []telemetry.Row
	Scores      []float64
	MeanIndex   float64
	Status      Status
	Stats       map[telemetry.Channel]ChannelStats
	Anomalies   []telemetry.PredictionAnomaly
	EvaluatedAt time.Time
}

// Series returns one channel of the window for charting
func (r WindowResult) Series(c telemetry.Channel) []float64 {
	return telemetry.ColumnOf(r.Rows, c)
}

// Evaluator evaluates windows of a read-only dataset with a read-only model
type Evaluator struct {
	dataset    *telemetry.Dataset
	model      Predictor
	windowSize int
	cache      *ScoreCache
	metrics    *Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithWindowSize sets the rows per window
func WithWindowSize(n int) Option {
	return func(e *Evaluator) { e.windowSize = n }
}

// WithCache enables the score cache
func WithCache(c *ScoreCache) Option {
	return func(e *Evaluator) { e.cache = c }
}

// WithMetrics exports readings to m
func WithMetrics(m *Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// New creates an evaluator. A missing dataset or model is a fatal
// precondition and fails here rather than per tick.
func New(ds *telemetry.Dataset, model Predictor, opts ...Option) (*Evaluator, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, &telemetry.MissingDatasetError{}
	}
	if model == nil {
		return nil, &telemetry.MissingModelError{}
	}
	if m, ok := model.(*stability.Model); ok && m == nil {
		return nil, &telemetry.MissingModelError{}
	}

	e := &Evaluator{
		dataset:    ds,
		model:      model,
		windowSize: DefaultWindowSize,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.windowSize < 1 {
		return nil, fmt.Errorf("window size must be at least 1, got %d", e.windowSize)
	}

	return e, nil
}

// WindowSize returns the rows per window
func (e *Evaluator) WindowSize() int {
	return e.windowSize
}

// Dataset returns the evaluated dataset
func (e *Evaluator) Dataset() *telemetry.Dataset {
	return e.dataset
}

// Tick evaluates the window at cursor. The returned cursor is advanced even
// when evaluation fails so a bad window is skipped rather than retried.
func (e *Evaluator) Tick(ctx context.Context, cursor WindowCursor) (WindowResult, WindowCursor, error) {
	start, end, next := cursor.Advance(e.dataset.Len(), e.windowSize)

	if err := ctx.Err(); err != nil {
		return WindowResult{}, cursor, err
	}

	began := time.Now()
	res, cached, err := e.evaluate(start, end)
	if err != nil {
		return WindowResult{}, next, fmt.Errorf("window [%d,%d): %w", start, end, err)
	}

	for _, a := range res.Anomalies {
		e.logger.Warn("prediction outside [0,1]",
			zap.Int64("time_index", a.TimeIndex),
			zap.Float64("value", a.Value),
		)
	}

	e.metrics.observe(res, time.Since(began).Seconds(), cached)

	return res, next, nil
}

// Evaluate scores rows [start, end) without touching any cursor
func (e *Evaluator) Evaluate(start, end int) (WindowResult, error) {
	res, _, err := e.evaluate(start, end)
	return res, err
}

func (e *Evaluator) evaluate(start, end int) (WindowResult, bool, error) {
	rows := e.dataset.Window(start, end)
	if len(rows) == 0 {
		return WindowResult{}, false, errors.New("empty window")
	}

	scores, cached := e.cache.Get(start, end)
	if !cached {
		var err error
		scores, err = e.model.PredictRows(rows)
		if err != nil {
			return WindowResult{}, false, fmt.Errorf("prediction failed: %w", err)
		}
		if len(scores) != len(rows) {
			return WindowResult{}, false, fmt.Errorf("model returned %d scores for %d rows", len(scores), len(rows))
		}
		e.cache.Put(start, end, scores)
	}

	mean := stat.Mean(scores, nil)

	res := WindowResult{
		Start:       start,
		End:         end,
		Rows:        rows,
		Scores:      scores,
		MeanIndex:   mean,
		Status:      Classify(mean),
		Stats:       channelStats(rows),
		EvaluatedAt: e.now(),
	}

	for i, s := range scores {
		if s < 0 || s > 1 {
			res.Anomalies = append(res.Anomalies, telemetry.PredictionAnomaly{
				TimeIndex: rows[i].TimeIndex,
				Value:     s,
			})
		}
	}

	return res, cached, nil
}

func channelStats(rows []telemetry.Row) map[telemetry.Channel]ChannelStats {
	out := make(map[telemetry.Channel]ChannelStats, telemetry.NumChannels)
	for _, ch := range telemetry.DefaultSchema {
		col := telemetry.ColumnOf(rows, ch)
		out[ch] = ChannelStats{
			Median: Median(col),
			Mean:   stat.Mean(col, nil),
		}
	}
	return out
}

// Median returns the middle value, averaging the two middle values of an
// even-length series. The input is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
