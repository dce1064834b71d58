package evaluator

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		mean float64
		want Status
	}{
		{1.0, Stable},
		{0.8, Stable},
		{0.79999, Degrading},
		{0.6, Degrading},
		{0.599999, Critical},
		{0.0, Critical},
		{1.2, Stable},
		{-0.3, Critical},
		{math.NaN(), Critical},
		{math.Inf(1), Stable},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.mean), "mean %v", tc.mean)
	}
}

func TestStatusText(t *testing.T) {
	for _, s := range Statuses {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("Unknown")))
	assert.Equal(t, "Status(7)", Status(7).String())

	data, err := json.Marshal(map[string]Status{"status": Degrading})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Degrading"}`, string(data))
}
