package domain

import "time"

type UnitType string

const (
	SeaWaterPump   UnitType = "sw_pump"
	FreshWaterPump UnitType = "fw_pump"
	EngineRoomFan  UnitType = "er_fan"
)

// Unit is immutable reference data for one VFD-controlled machine.
type Unit struct {
	Name          string   `json:"name"`
	Type          UnitType `json:"type"`
	RatedPowerKW  float64  `json:"rated_power_kw"`
	RatedCurrentA float64  `json:"rated_current_a"`
}

// TelemetrySample is one per-cycle snapshot for one unit, as delivered by
// the register I/O collaborator. Complete is false when any field was
// substituted with its zero value during decode.
type TelemetrySample struct {
	Name               string    `json:"name"`
	Type               UnitType  `json:"type"`
	FrequencyHz        float64   `json:"frequency_hz"`
	Running            bool      `json:"running"`
	RunningFwd         bool      `json:"running_fwd"`
	RunningBwd         bool      `json:"running_bwd"`
	MotorThermalPct    float64   `json:"motor_thermal_pct"`
	HeatsinkTempC      float64   `json:"heatsink_temp_c"`
	InverterThermalPct float64   `json:"inverter_thermal_pct"`
	MotorCurrentA      float64   `json:"motor_current_a"`
	PhaseUCurrentA     float64   `json:"phase_u_current_a"`
	PhaseVCurrentA     float64   `json:"phase_v_current_a"`
	PhaseWCurrentA     float64   `json:"phase_w_current_a"`
	WarningWord        int       `json:"warning_word"`
	OverTempCount      int       `json:"over_temp_count"`
	Abnormal           bool      `json:"abnormal"`
	Timestamp          time.Time `json:"timestamp"`
	Complete           bool      `json:"complete"`
}

// IsRunning reports whether the unit is running in any direction.
func (s TelemetrySample) IsRunning() bool {
	return s.Running || s.RunningFwd || s.RunningBwd
}

// ParameterScore is the banded severity of one diagnostic parameter.
type ParameterScore struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Score int     `json:"score"`
}

// HealthRecord is the per-cycle diagnostic result for one unit. The most
// recent record is authoritative; older ones feed trend detection only.
type HealthRecord struct {
	Unit               string           `json:"unit"`
	Timestamp          time.Time        `json:"timestamp"`
	HealthScore        int              `json:"health_score"`
	SeverityLevel      int              `json:"severity_level"`
	SeverityName       string           `json:"severity_name"`
	TotalSeverityScore int              `json:"total_severity_score"`
	Parameters         []ParameterScore `json:"parameters"`
	Recommendations    []string         `json:"recommendations"`
	DataComplete       bool             `json:"data_complete"`
}

// SeverityName maps a 0-3 severity level to its grade name.
func SeverityName(level int) string {
	switch level {
	case 0:
		return "Normal"
	case 1:
		return "Caution"
	case 2:
		return "Warning"
	default:
		return "Critical"
	}
}

type EpisodeStatus string

const (
	EpisodeActive       EpisodeStatus = "ACTIVE"
	EpisodeAcknowledged EpisodeStatus = "ACKNOWLEDGED"
	EpisodeCleared      EpisodeStatus = "CLEARED"
	EpisodeAutoCleared  EpisodeStatus = "AUTO_CLEARED"
)

// AnomalyEpisode is one continuous non-Normal occurrence on one unit, from
// onset to clearance. At most one non-terminal episode exists per unit.
type AnomalyEpisode struct {
	EpisodeID         string           `json:"episode_id"`
	Unit              string           `json:"unit"`
	OpenedAt          time.Time        `json:"opened_at"`
	SeverityLevel     int              `json:"severity_level"`
	SeverityName      string           `json:"severity_name"`
	HealthScoreAtOpen int              `json:"health_score_at_open"`
	Parameters        []ParameterScore `json:"parameters"`
	Recommendations   []string         `json:"recommendations"`
	Tags              []string         `json:"tags,omitempty"`
	Status            EpisodeStatus    `json:"status"`
	AcknowledgedAt    *time.Time       `json:"acknowledged_at,omitempty"`
	AcknowledgedBy    string           `json:"acknowledged_by,omitempty"`
	ClearedAt         *time.Time       `json:"cleared_at,omitempty"`
	ClearedBy         string           `json:"cleared_by,omitempty"`
	DurationMinutes   int              `json:"duration_minutes"`
}

// GroupSavings compares fixed 60 Hz operation against VFD operation for one
// equipment scope at the current instant.
type GroupSavings struct {
	Power60Hz   float64 `json:"power_60hz"`
	PowerVFD    float64 `json:"power_vfd"`
	SavingsKW   float64 `json:"savings_kw"`
	SavingsRate float64 `json:"savings_rate"`
}

// RealtimeSavings holds the instantaneous savings per scope.
type RealtimeSavings struct {
	Total GroupSavings `json:"total"`
	SWP   GroupSavings `json:"swp"`
	FWP   GroupSavings `json:"fwp"`
	Fan   GroupSavings `json:"fan"`
}

// PeriodSavings is a calendar-anchored accumulator snapshot.
type PeriodSavings struct {
	KWhSaved       float64   `json:"kwh_saved"`
	AvgSavingsRate float64   `json:"avg_savings_rate"`
	PeriodStart    time.Time `json:"period_start"`
	Samples        int       `json:"samples"`
}

// EnergySummary is the per-cycle energy output for downstream consumers.
type EnergySummary struct {
	Realtime RealtimeSavings `json:"realtime"`
	Today    PeriodSavings   `json:"today"`
	Month    PeriodSavings   `json:"month"`
}

// UnitSavings is the per-unit savings detail row.
type UnitSavings struct {
	Name        string  `json:"name"`
	RatedKW     float64 `json:"rated_kw"`
	FrequencyHz float64 `json:"frequency_hz"`
	PowerVFDKW  float64 `json:"power_vfd_kw"`
	SavedKW     float64 `json:"saved_kw"`
	SavedRatio  float64 `json:"saved_ratio"`
}

// FleetSummary counts units per severity grade.
type FleetSummary struct {
	TotalUnits    int      `json:"total_units"`
	Normal        int      `json:"normal"`
	Caution       int      `json:"caution"`
	Warning       int      `json:"warning"`
	Critical      int      `json:"critical"`
	CriticalUnits []string `json:"critical_units"`
}
