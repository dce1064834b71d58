package telemetry

import "fmt"

// Channel identifies one telemetry feature
type Channel string

// Telemetry channels in feature order
const (
	Temperature    Channel = "temperature"
	Humidity       Channel = "humidity"
	DoseRate       Channel = "dose_rate"
	MagneticField  Channel = "magnetic_field"
	VibrationLevel Channel = "vibration_level"
	Airflow        Channel = "airflow"
	Particulate    Channel = "particulate"
	PSVoltage      Channel = "ps_voltage"
	PSCurrent      Channel = "ps_current"
)

// NumChannels is the width of a feature vector
const NumChannels = 9

// TimeColumn is the name of the time index column in tabular form
const TimeColumn = "time_s"

// Schema is the ordered channel contract shared by the generator,
// the stability law, the model and the stores.
type Schema [NumChannels]Channel

// DefaultSchema is the one and only feature order
var DefaultSchema = Schema{
	Temperature,
	Humidity,
	DoseRate,
	MagneticField,
	VibrationLevel,
	Airflow,
	Particulate,
	PSVoltage,
	PSCurrent,
}

var columnNames = map[Channel]string{
	Temperature:    "temperature_C",
	Humidity:       "humidity_%",
	DoseRate:       "dose_rate_Gy_s",
	MagneticField:  "magnetic_field_T",
	VibrationLevel: "vibration_level",
	Airflow:        "airflow_m_s",
	Particulate:    "particulate_ppm",
	PSVoltage:      "ps_voltage_V",
	PSCurrent:      "ps_current_A",
}

var nonNegative = map[Channel]bool{
	DoseRate:      true,
	MagneticField: true,
	Airflow:       true,
	Particulate:   true,
	PSCurrent:     true,
}

// Column returns the tabular column name (with unit suffix) of a channel
func (c Channel) Column() string {
	if name, ok := columnNames[c]; ok {
		return name
	}
	return string(c)
}

// NonNegative reports whether the channel is physically bounded below by zero
func (c Channel) NonNegative() bool {
	return nonNegative[c]
}

// Index returns the position of a channel in the schema, or -1
func (s Schema) Index(c Channel) int {
	for i, ch := range s {
		if ch == c {
			return i
		}
	}
	return -1
}

// Features returns the feature column names in schema order
func (s Schema) Features() []string {
	names := make([]string, len(s))
	for i, ch := range s {
		names[i] = ch.Column()
	}
	return names
}

// Columns returns the full tabular header: time index followed by features
func (s Schema) Columns() []string {
	return append([]string{TimeColumn}, s.Features()...)
}

// ValidateFeatures checks that names match the feature columns exactly,
// including order. Nothing is reordered or dropped.
func (s Schema) ValidateFeatures(names []string) error {
	return matchColumns(s.Features(), names)
}

// ValidateColumns checks a full tabular header against the schema
func (s Schema) ValidateColumns(names []string) error {
	return matchColumns(s.Columns(), names)
}

// ValidateWidth checks a raw feature vector width
func (s Schema) ValidateWidth(width int) error {
	if width != len(s) {
		return &FeatureContractError{
			Expected: s.Features(),
			Reason:   fmt.Sprintf("feature vector has %d values, want %d", width, len(s)),
		}
	}
	return nil
}

func matchColumns(want, got []string) error {
	if len(want) != len(got) {
		return &FeatureContractError{
			Expected: want,
			Got:      got,
			Reason:   fmt.Sprintf("got %d columns, want %d", len(got), len(want)),
		}
	}
	for i := range want {
		if want[i] != got[i] {
			return &FeatureContractError{
				Expected: want,
				Got:      got,
				Reason:   fmt.Sprintf("column %d is %q, want %q", i, got[i], want[i]),
			}
		}
	}
	return nil
}
