package diag

import "github.com/marinedge/vfd-sentinel/internal/domain"

// Per-parameter advice, emitted when a parameter scores 2 or higher.
// Order follows the parameter order in the health record so the output
// is deterministic.
var parameterAdvice = map[string]string{
	ParamMotorThermal:     "Check motor cooling and mechanical load",
	ParamHeatsinkTemp:     "Clean heatsink and inspect cooling fan",
	ParamInverterThermal:  "Inspect inverter ventilation and ambient temperature",
	ParamCurrentRatio:     "Motor drawing above rated current, check for overload",
	ParamCurrentImbalance: "Inspect motor windings and supply phases",
	ParamOverTempCount:    "Repeated over-temperature trips, verify cooling circuit",
}

// recommendations builds the ordered advice list for a diagnosed sample:
// one line per parameter scoring >=2, then a severity-specific closing line.
func recommendations(level int, params []domain.ParameterScore) []string {
	var recs []string
	for _, p := range params {
		if p.Score < 2 {
			continue
		}
		if advice, ok := parameterAdvice[p.Name]; ok {
			recs = append(recs, advice)
		}
	}
	switch level {
	case 1:
		recs = append(recs, "Increase monitoring cadence")
	case 2:
		recs = append(recs, "Schedule maintenance inspection")
	case 3:
		recs = append(recs, "Inspect immediately and consider controlled shutdown")
	}
	return recs
}
