package telemetry

import (
	"fmt"
	"math"
)

// Row represents one time-indexed telemetry observation
type Row struct {
	TimeIndex int64
	Values    [NumChannels]float64
}

// Get returns the value of a channel
func (r Row) Get(c Channel) float64 {
	i := DefaultSchema.Index(c)
	if i < 0 {
		return math.NaN()
	}
	return r.Values[i]
}

// Vector returns the features in schema order
func (r Row) Vector() []float64 {
	v := make([]float64, NumChannels)
	copy(v, r.Values[:])
	return v
}

// Dataset represents an ordered, generate-once sequence of rows
type Dataset struct {
	Rows []Row
	Seed uint64
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Window returns rows [start, end). The slice shares storage with the dataset
// and must not be mutated.
func (d *Dataset) Window(start, end int) []Row {
	if start < 0 {
		start = 0
	}
	if end > len(d.Rows) {
		end = len(d.Rows)
	}
	if start >= end {
		return nil
	}
	return d.Rows[start:end]
}

// Column returns the series of one channel across all rows
func (d *Dataset) Column(c Channel) []float64 {
	return ColumnOf(d.Rows, c)
}

// Matrix returns every row's feature vector
func (d *Dataset) Matrix() [][]float64 {
	return MatrixOf(d.Rows)
}

// ColumnOf extracts one channel from a slice of rows
func ColumnOf(rows []Row, c Channel) []float64 {
	i := DefaultSchema.Index(c)
	out := make([]float64, len(rows))
	for j, r := range rows {
		if i < 0 {
			out[j] = math.NaN()
			continue
		}
		out[j] = r.Values[i]
	}
	return out
}

// MatrixOf returns the feature vectors of rows in schema order
func MatrixOf(rows []Row) [][]float64 {
	m := make([][]float64, len(rows))
	for i, r := range rows {
		m[i] = r.Vector()
	}
	return m
}

// Validate checks the dataset invariants: strictly increasing non-negative
// time indices, finite values and non-negative constrained channels.
func (d *Dataset) Validate() error {
	prev := int64(-1)
	for i, r := range d.Rows {
		if r.TimeIndex <= prev {
			return fmt.Errorf("row %d: time index %d not strictly increasing", i, r.TimeIndex)
		}
		prev = r.TimeIndex
		for j, v := range r.Values {
			ch := DefaultSchema[j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d: %s is not finite", i, ch)
			}
			if ch.NonNegative() && v < 0 {
				return fmt.Errorf("row %d: %s is negative (%g)", i, ch, v)
			}
		}
	}
	return nil
}
