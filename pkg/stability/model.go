package stability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vjranagit/detector-stability/pkg/forest"
	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// Model is a fitted regressor mapping the 9 channels to a Stability Index.
// Predictions are not clipped: inputs far from the training distribution may
// yield values outside [0,1].
type Model struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Features  []string
	R2        float64
	TrainRows int
	TestRows  int

	forest *forest.Forest
}

// NewModel wraps a fitted forest. The forest width and feature names must match
// the schema.
func NewModel(f *forest.Forest, features []string) (*Model, error) {
	if f == nil {
		return nil, &telemetry.MissingModelError{}
	}
	if features == nil {
		features = telemetry.DefaultSchema.Features()
	}
	if err := telemetry.DefaultSchema.ValidateFeatures(features); err != nil {
		return nil, err
	}
	if err := telemetry.DefaultSchema.ValidateWidth(f.NumFeatures); err != nil {
		return nil, err
	}
	return &Model{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Features:  features,
		forest:    f,
	}, nil
}

// Forest returns the underlying estimator
func (m *Model) Forest() *forest.Forest {
	return m.forest
}

// Trees returns the ensemble size
func (m *Model) Trees() int {
	return len(m.forest.Trees)
}

// Predict returns one estimate per feature vector. Vectors must be in schema
// order; a wrong width fails with *telemetry.FeatureContractError.
func (m *Model) Predict(vectors [][]float64) ([]float64, error) {
	out := make([]float64, len(vectors))
	for i, v := range vectors {
		if err := telemetry.DefaultSchema.ValidateWidth(len(v)); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		p, err := m.forest.Predict(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// PredictRows predicts telemetry rows directly
func (m *Model) PredictRows(rows []telemetry.Row) ([]float64, error) {
	return m.Predict(telemetry.MatrixOf(rows))
}
