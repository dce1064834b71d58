package api

import (
	"time"

	"github.com/vjranagit/detector-stability/pkg/evaluator"
	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// windowView is the JSON shape of a window for the dashboard
type windowView struct {
	Start          int                         `json:"start"`
	End            int                         `json:"end"`
	StabilityIndex float64                     `json:"stability_index"`
	Status         evaluator.Status            `json:"status"`
	Stats          map[string]channelStatsView `json:"stats"`
	Series         map[string][]float64        `json:"series"`
	Scores         []float64                   `json:"stability_scores"`
	Anomalies      []anomalyView               `json:"anomalies,omitempty"`
	Rows           []map[string]float64        `json:"rows"`
	EvaluatedAt    time.Time                   `json:"evaluated_at"`
}

type channelStatsView struct {
	Median float64 `json:"median"`
	Mean   float64 `json:"mean"`
}

type anomalyView struct {
	TimeIndex int64   `json:"time_index"`
	Value     float64 `json:"value"`
}

// newWindowView keys channels by their tabular column names
func newWindowView(res evaluator.WindowResult) windowView {
	v := windowView{
		Start:          res.Start,
		End:            res.End,
		StabilityIndex: res.MeanIndex,
		Status:         res.Status,
		Stats:          make(map[string]channelStatsView, telemetry.NumChannels),
		Series:         make(map[string][]float64, telemetry.NumChannels),
		Scores:         res.Scores,
		Rows:           make([]map[string]float64, len(res.Rows)),
		EvaluatedAt:    res.EvaluatedAt,
	}

	for _, ch := range telemetry.DefaultSchema {
		st := res.Stats[ch]
		v.Stats[ch.Column()] = channelStatsView{Median: st.Median, Mean: st.Mean}
		v.Series[ch.Column()] = res.Series(ch)
	}

	for i, r := range res.Rows {
		row := make(map[string]float64, telemetry.NumChannels+2)
		row[telemetry.TimeColumn] = float64(r.TimeIndex)
		for j, ch := range telemetry.DefaultSchema {
			row[ch.Column()] = r.Values[j]
		}
		if i < len(res.Scores) {
			row["stability_index"] = res.Scores[i]
		}
		v.Rows[i] = row
	}

	for _, a := range res.Anomalies {
		v.Anomalies = append(v.Anomalies, anomalyView{TimeIndex: a.TimeIndex, Value: a.Value})
	}

	return v
}
