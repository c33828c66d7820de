package energy

import (
	"math"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

const baseFrequencyHz = 60.0

// cubicPowerKW applies the fan/pump affinity law: power scales with the
// cube of speed. This is an explicit load model, never a measured value.
func cubicPowerKW(ratedKW, frequencyHz float64) float64 {
	if frequencyHz <= 0 {
		return 0
	}
	return ratedKW * math.Pow(frequencyHz/baseFrequencyHz, 3)
}

func groupSavings(power60Hz, powerVFD float64) domain.GroupSavings {
	g := domain.GroupSavings{
		Power60Hz: power60Hz,
		PowerVFD:  powerVFD,
		SavingsKW: power60Hz - powerVFD,
	}
	if power60Hz > 0 {
		g.SavingsRate = g.SavingsKW / power60Hz * 100
	}
	return g
}

// ComputeRealtime derives the instantaneous savings per scope from the
// latest sample of each unit. Stopped units contribute 0 to both the fixed
// baseline and the VFD side.
func ComputeRealtime(units []domain.Unit, samples map[string]domain.TelemetrySample) domain.RealtimeSavings {
	var p60, pvfd [3]float64 // indexed by scope: swp, fwp, fan

	for _, u := range units {
		s, ok := samples[u.Name]
		if !ok || !s.IsRunning() {
			continue
		}
		idx := scopeIndex(u.Type)
		p60[idx] += u.RatedPowerKW
		pvfd[idx] += cubicPowerKW(u.RatedPowerKW, s.FrequencyHz)
	}

	return domain.RealtimeSavings{
		Total: groupSavings(p60[0]+p60[1]+p60[2], pvfd[0]+pvfd[1]+pvfd[2]),
		SWP:   groupSavings(p60[0], pvfd[0]),
		FWP:   groupSavings(p60[1], pvfd[1]),
		Fan:   groupSavings(p60[2], pvfd[2]),
	}
}

// UnitDetail builds the per-unit savings rows for presentation consumers.
func UnitDetail(units []domain.Unit, samples map[string]domain.TelemetrySample) []domain.UnitSavings {
	out := make([]domain.UnitSavings, 0, len(units))
	for _, u := range units {
		row := domain.UnitSavings{Name: u.Name, RatedKW: u.RatedPowerKW}
		if s, ok := samples[u.Name]; ok && s.IsRunning() {
			row.FrequencyHz = s.FrequencyHz
			row.PowerVFDKW = cubicPowerKW(u.RatedPowerKW, s.FrequencyHz)
			row.SavedKW = u.RatedPowerKW - row.PowerVFDKW
			row.SavedRatio = row.SavedKW / u.RatedPowerKW * 100
		}
		out = append(out, row)
	}
	return out
}

func scopeIndex(t domain.UnitType) int {
	switch t {
	case domain.SeaWaterPump:
		return 0
	case domain.FreshWaterPump:
		return 1
	default:
		return 2
	}
}
