package diag

import (
	"math"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// Parameter names used in health record details and episode snapshots.
const (
	ParamMotorThermal     = "motor_thermal"
	ParamHeatsinkTemp     = "heatsink_temp"
	ParamInverterThermal  = "inverter_thermal"
	ParamCurrentRatio     = "motor_current_ratio"
	ParamCurrentImbalance = "current_imbalance"
	ParamWarningWord      = "warning_word"
	ParamOverTempCount    = "over_temp_count"
)

// Severity level boundaries on the 0-21 total score.
const (
	totalNormalMax  = 2
	totalCautionMax = 5
	totalWarningMax = 8
	maxTotalScore   = 21
)

// Scorer aggregates seven weighted parameter bands into a health score,
// severity level and recommendation text. It is deterministic: the same
// sample and thresholds always produce the same record.
type Scorer struct {
	thresholds ThresholdSet
}

func NewScorer(ts ThresholdSet) *Scorer {
	return &Scorer{thresholds: ts}
}

// Score diagnoses one telemetry sample against the unit's rated current.
func (s *Scorer) Score(sample domain.TelemetrySample, ratedCurrentA float64) domain.HealthRecord {
	currentRatio := 0.0
	if ratedCurrentA > 0 {
		currentRatio = sample.MotorCurrentA / ratedCurrentA * 100
	}
	imbalance := phaseImbalance(sample.PhaseUCurrentA, sample.PhaseVCurrentA, sample.PhaseWCurrentA)

	params := []domain.ParameterScore{
		{Name: ParamMotorThermal, Value: sample.MotorThermalPct, Score: Band(sample.MotorThermalPct, s.thresholds.MotorThermal)},
		{Name: ParamHeatsinkTemp, Value: sample.HeatsinkTempC, Score: Band(sample.HeatsinkTempC, s.thresholds.HeatsinkTemp)},
		{Name: ParamInverterThermal, Value: sample.InverterThermalPct, Score: Band(sample.InverterThermalPct, s.thresholds.InverterThermal)},
		{Name: ParamCurrentRatio, Value: currentRatio, Score: Band(currentRatio, s.thresholds.CurrentRatio)},
		{Name: ParamCurrentImbalance, Value: imbalance, Score: Band(imbalance, s.thresholds.CurrentImbalance)},
		{Name: ParamWarningWord, Value: float64(sample.WarningWord), Score: warningWordScore(sample.WarningWord)},
		{Name: ParamOverTempCount, Value: float64(sample.OverTempCount), Score: overTempScore(sample.OverTempCount)},
	}

	total := 0
	for _, p := range params {
		total += p.Score
	}

	level := severityLevel(total)
	health := healthScore(total)

	// The drive's own abnormal flag forces at least a Warning grade no
	// matter what the banded parameters say.
	if sample.Abnormal {
		if health > 50 {
			health = 50
		}
		if level < 2 {
			level = 2
		}
	}

	return domain.HealthRecord{
		Unit:               sample.Name,
		Timestamp:          sample.Timestamp,
		HealthScore:        health,
		SeverityLevel:      level,
		SeverityName:       domain.SeverityName(level),
		TotalSeverityScore: total,
		Parameters:         params,
		Recommendations:    recommendations(level, params),
		DataComplete:       sample.Complete,
	}
}

// phaseImbalance is the largest deviation from the three-phase average,
// as a percentage of that average. A zero average means no current is
// flowing and imbalance is reported as 0.
func phaseImbalance(u, v, w float64) float64 {
	avg := (u + v + w) / 3
	if avg == 0 {
		return 0
	}
	dev := math.Max(math.Abs(u-avg), math.Max(math.Abs(v-avg), math.Abs(w-avg)))
	return dev / avg * 100
}

// warningWordScore is binary: any warning bit set scores 1.
func warningWordScore(word int) int {
	if word != 0 {
		return 1
	}
	return 0
}

// overTempScore is asymmetric: repeated over-temperature events are
// disproportionately dangerous.
func overTempScore(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= 2:
		return 2
	default:
		return 3
	}
}

func severityLevel(total int) int {
	switch {
	case total <= totalNormalMax:
		return 0
	case total <= totalCautionMax:
		return 1
	case total <= totalWarningMax:
		return 2
	default:
		return 3
	}
}

func healthScore(total int) int {
	h := int(math.Round(100 - float64(total)/maxTotalScore*100))
	if h < 0 {
		h = 0
	}
	if h > 100 {
		h = 100
	}
	return h
}
