package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// wireSample mirrors the JSON the register I/O collaborator publishes.
// Diagnostic fields are pointers so an absent field is distinguishable
// from a genuine zero: absence substitutes the safe default and marks the
// sample incomplete rather than failing the cycle.
type wireSample struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	FrequencyHz        *float64 `json:"frequency_hz"`
	Running            bool     `json:"running"`
	RunningFwd         bool     `json:"running_fwd"`
	RunningBwd         bool     `json:"running_bwd"`
	MotorThermalPct    *float64 `json:"motor_thermal_pct"`
	HeatsinkTempC      *float64 `json:"heatsink_temp_c"`
	InverterThermalPct *float64 `json:"inverter_thermal_pct"`
	MotorCurrentA      *float64 `json:"motor_current_a"`
	PhaseUCurrentA     *float64 `json:"phase_u_current_a"`
	PhaseVCurrentA     *float64 `json:"phase_v_current_a"`
	PhaseWCurrentA     *float64 `json:"phase_w_current_a"`
	WarningWord        *int     `json:"warning_word"`
	OverTempCount      *int     `json:"over_temp_count"`
	Abnormal           bool     `json:"abnormal"`
}

type wireBatch struct {
	Timestamp time.Time    `json:"timestamp"`
	Units     []wireSample `json:"units"`
}

// FromMQTT decodes one per-cycle telemetry batch and runs the cycle.
func (e *Engine) FromMQTT(topic string, payload []byte) error {
	var batch wireBatch
	if err := json.Unmarshal(payload, &batch); err != nil {
		return fmt.Errorf("decode telemetry on %s: %w", topic, err)
	}
	now := batch.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	samples := make([]domain.TelemetrySample, 0, len(batch.Units))
	for _, w := range batch.Units {
		samples = append(samples, w.toSample(now))
	}
	return e.ProcessCycle(samples, now)
}

func (w wireSample) toSample(ts time.Time) domain.TelemetrySample {
	s := domain.TelemetrySample{
		Name:       w.Name,
		Type:       domain.UnitType(w.Type),
		Running:    w.Running,
		RunningFwd: w.RunningFwd,
		RunningBwd: w.RunningBwd,
		Abnormal:   w.Abnormal,
		Timestamp:  ts,
		Complete:   true,
	}
	fillFloat := func(dst *float64, src *float64) {
		if src == nil {
			s.Complete = false
			return
		}
		*dst = *src
	}
	fillFloat(&s.FrequencyHz, w.FrequencyHz)
	fillFloat(&s.MotorThermalPct, w.MotorThermalPct)
	fillFloat(&s.HeatsinkTempC, w.HeatsinkTempC)
	fillFloat(&s.InverterThermalPct, w.InverterThermalPct)
	fillFloat(&s.MotorCurrentA, w.MotorCurrentA)
	fillFloat(&s.PhaseUCurrentA, w.PhaseUCurrentA)
	fillFloat(&s.PhaseVCurrentA, w.PhaseVCurrentA)
	fillFloat(&s.PhaseWCurrentA, w.PhaseWCurrentA)
	if w.WarningWord != nil {
		s.WarningWord = *w.WarningWord
	} else {
		s.Complete = false
	}
	if w.OverTempCount != nil {
		s.OverTempCount = *w.OverTempCount
	} else {
		s.Complete = false
	}
	return s
}
