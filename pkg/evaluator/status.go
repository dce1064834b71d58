package evaluator

import (
	"fmt"
	"math"
)

// Status is the tri-state classification of a window
type Status int

const (
	Critical Status = iota
	Degrading
	Stable
)

// Status thresholds on the window mean; lower bounds are inclusive
const (
	StableThreshold    = 0.8
	DegradingThreshold = 0.6
)

// Statuses lists every status from worst to best
var Statuses = []Status{Critical, Degrading, Stable}

// Classify maps a window's mean Stability Index to a status. It holds no
// history. Out-of-range means, including NaN, fall into the nearest category
// and NaN is treated as Critical.
func Classify(mean float64) Status {
	switch {
	case math.IsNaN(mean):
		return Critical
	case mean >= StableThreshold:
		return Stable
	case mean >= DegradingThreshold:
		return Degrading
	default:
		return Critical
	}
}

func (s Status) String() string {
	switch s {
	case Stable:
		return "Stable"
	case Degrading:
		return "Degrading"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range Statuses {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
