package telemetry

import (
	"fmt"
	"strings"
)

// GenerationError reports a dataset that could not be written to its store
type GenerationError struct {
	Path string
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate dataset %s: %v", e.Path, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// MissingDatasetError reports a telemetry dataset absent from its store
type MissingDatasetError struct {
	Path string
}

func (e *MissingDatasetError) Error() string {
	if e.Path == "" {
		return "telemetry dataset missing; run: stabilityd generate"
	}
	return fmt.Sprintf("telemetry dataset %s missing; run: stabilityd generate", e.Path)
}

// MissingModelError reports a stability model absent from its store
type MissingModelError struct {
	Name string
}

func (e *MissingModelError) Error() string {
	if e.Name == "" {
		return "stability model missing; run: stabilityd train"
	}
	return fmt.Sprintf("stability model %q missing; run: stabilityd train", e.Name)
}

// FeatureContractError reports a row or header that does not match the schema
type FeatureContractError struct {
	Expected []string
	Got      []string
	Reason   string
}

func (e *FeatureContractError) Error() string {
	var b strings.Builder
	b.WriteString("feature contract violated: ")
	b.WriteString(e.Reason)
	if len(e.Got) > 0 {
		fmt.Fprintf(&b, " (got [%s], want [%s])",
			strings.Join(e.Got, ","), strings.Join(e.Expected, ","))
	}
	return b.String()
}

// PredictionAnomaly describes a model output outside [0,1].
// It is surfaced as-is and never treated as a failure.
type PredictionAnomaly struct {
	TimeIndex int64
	Value     float64
}

func (a PredictionAnomaly) String() string {
	return fmt.Sprintf("prediction %.4f at t=%d outside [0,1]", a.Value, a.TimeIndex)
}
