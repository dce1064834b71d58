package generator

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// Config holds generator configuration
type Config struct {
	SampleCount int
	Seed        uint64
}

// DefaultConfig returns default generator configuration
func DefaultConfig() Config {
	return Config{
		SampleCount: 5000,
		Seed:        42,
	}
}

// distribution describes how one channel is drawn
type distribution struct {
	uniform bool
	// mean/stddev for normal, low/high for uniform
	a, b float64
}

// policies follow telemetry.DefaultSchema order
var policies = map[telemetry.Channel]distribution{
	telemetry.Temperature:    {a: 24.5, b: 2.0},
	telemetry.Humidity:       {uniform: true, a: 30, b: 55},
	telemetry.DoseRate:       {a: 0.02, b: 0.01},
	telemetry.MagneticField:  {a: 0.4, b: 0.05},
	telemetry.VibrationLevel: {uniform: true, a: 0, b: 1},
	telemetry.Airflow:        {a: 2.5, b: 0.5},
	telemetry.Particulate:    {a: 12, b: 4},
	telemetry.PSVoltage:      {a: 12.0, b: 0.2},
	telemetry.PSCurrent:      {a: 3.0, b: 0.3},
}

// Generate produces a reproducible synthetic dataset. The same config always
// yields a bit-identical dataset.
func Generate(cfg Config) (*telemetry.Dataset, error) {
	if cfg.SampleCount < 1 {
		return nil, fmt.Errorf("sample count must be at least 1, got %d", cfg.SampleCount)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	rows := make([]telemetry.Row, cfg.SampleCount)
	for i := range rows {
		rows[i].TimeIndex = int64(i)
	}

	// Draw column by column so each channel consumes a contiguous run of the stream
	for j, ch := range telemetry.DefaultSchema {
		dist, ok := policies[ch]
		if !ok {
			return nil, fmt.Errorf("no generation policy for channel %s", ch)
		}
		for i := range rows {
			v := dist.draw(rng)
			if ch.NonNegative() && v < 0 {
				v = 0
			}
			rows[i].Values[j] = v
		}
	}

	return &telemetry.Dataset{Rows: rows, Seed: cfg.Seed}, nil
}

func (d distribution) draw(rng *rand.Rand) float64 {
	if d.uniform {
		return d.a + (d.b-d.a)*rng.Float64()
	}
	return d.a + d.b*rng.NormFloat64()
}

// Saver persists a generated dataset and returns its location
type Saver interface {
	Save(ctx context.Context, ds *telemetry.Dataset) (string, error)
	Path() string
}

// GenerateToStore generates a dataset and writes it to the store.
// Write failures are reported as *telemetry.GenerationError.
func GenerateToStore(ctx context.Context, store Saver, cfg Config) (string, *telemetry.Dataset, error) {
	ds, err := Generate(cfg)
	if err != nil {
		return "", nil, err
	}

	path, err := store.Save(ctx, ds)
	if err != nil {
		return "", nil, &telemetry.GenerationError{Path: store.Path(), Err: err}
	}

	return path, ds, nil
}
