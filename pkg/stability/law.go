// Package stability holds the analytic Stability Law used to label training
// data and the learned model that approximates it at serving time.
package stability

import (
	"math"

	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// Penalty weights and operating points of the law
const (
	doseWeight      = 0.6
	doseScale       = 0.05 + 1e-9
	tempWeight      = 0.01
	tempLimit       = 24.0
	humidityWeight  = 0.005
	humidityLimit   = 40.0
	vibrationWeight = 0.25
	particleWeight  = 0.04
	particleScale   = 25.0
	fieldWeight     = 0.05
	fieldNominal    = 0.4
	fieldTolerance  = 0.2
	voltageWeight   = 0.05
	voltageNominal  = 12.0
	voltageTol      = 0.5
	currentWeight   = 0.03
	currentNominal  = 3.0
	currentTol      = 1.0
	airflowWeight   = 0.03
	airflowMin      = 2.2
)

// Score maps a row to a Stability Index in [0,1]. It is pure and used only
// for labelling; serving goes through the Model.
func Score(r telemetry.Row) float64 {
	return scoreValues(r.Values[:])
}

// ScoreVector scores a raw feature vector in schema order
func ScoreVector(v []float64) (float64, error) {
	if err := telemetry.DefaultSchema.ValidateWidth(len(v)); err != nil {
		return 0, err
	}
	return scoreValues(v), nil
}

// Label scores every row of a dataset
func Label(ds *telemetry.Dataset) []float64 {
	labels := make([]float64, ds.Len())
	for i, r := range ds.Rows {
		labels[i] = Score(r)
	}
	return labels
}

func scoreValues(v []float64) float64 {
	s := telemetry.DefaultSchema
	get := func(c telemetry.Channel) float64 { return v[s.Index(c)] }

	// dose is non-negative by construction; guard the root anyway
	dose := math.Max(0, get(telemetry.DoseRate))

	score := 1.0 -
		doseWeight*math.Sqrt(dose/doseScale) -
		tempWeight*math.Max(0, get(telemetry.Temperature)-tempLimit) -
		humidityWeight*math.Max(0, get(telemetry.Humidity)-humidityLimit) -
		vibrationWeight*get(telemetry.VibrationLevel) -
		particleWeight*(get(telemetry.Particulate)/particleScale) -
		fieldWeight*(math.Abs(get(telemetry.MagneticField)-fieldNominal)/fieldTolerance) -
		voltageWeight*(math.Abs(get(telemetry.PSVoltage)-voltageNominal)/voltageTol) -
		currentWeight*(math.Abs(get(telemetry.PSCurrent)-currentNominal)/currentTol) -
		airflowWeight*math.Max(0, airflowMin-get(telemetry.Airflow))

	return clip(score, 0, 1)
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
