package diag

import "fmt"

// Thresholds is one normal/attention/warning triple for a continuous
// parameter. Banding requires Normal < Attention < Warning.
type Thresholds struct {
	Normal    float64
	Attention float64
	Warning   float64
}

// Validate rejects triples that break monotonic banding.
func (t Thresholds) Validate() error {
	if !(t.Normal < t.Attention && t.Attention < t.Warning) {
		return fmt.Errorf("thresholds not strictly increasing: %g/%g/%g",
			t.Normal, t.Attention, t.Warning)
	}
	return nil
}

// ThresholdSet holds the triples for the five banded parameters.
type ThresholdSet struct {
	MotorThermal     Thresholds
	HeatsinkTemp     Thresholds
	InverterThermal  Thresholds
	CurrentRatio     Thresholds
	CurrentImbalance Thresholds
}

// Validate checks every triple in the set.
func (ts ThresholdSet) Validate() error {
	checks := []struct {
		name string
		t    Thresholds
	}{
		{"motor_thermal", ts.MotorThermal},
		{"heatsink_temp", ts.HeatsinkTemp},
		{"inverter_thermal", ts.InverterThermal},
		{"motor_current_ratio", ts.CurrentRatio},
		{"current_imbalance", ts.CurrentImbalance},
	}
	for _, c := range checks {
		if err := c.t.Validate(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// Band maps one measurement onto a 0-3 severity band. The comparison is a
// strict less-than throughout, so a value equal to a threshold falls into
// the next, more severe band.
func Band(value float64, t Thresholds) int {
	switch {
	case value < t.Normal:
		return 0
	case value < t.Attention:
		return 1
	case value < t.Warning:
		return 2
	default:
		return 3
	}
}
