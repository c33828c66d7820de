package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marinedge/vfd-sentinel/internal/anomaly"
	"github.com/marinedge/vfd-sentinel/internal/diag"
	"github.com/marinedge/vfd-sentinel/internal/domain"
	"github.com/marinedge/vfd-sentinel/internal/energy"
)

// TransitionSink receives lifecycle transitions for durable projection.
// The ledger bridge implements it.
type TransitionSink interface {
	Enqueue(tr anomaly.Transition)
}

// Options configure a new Engine.
type Options struct {
	AutoClearDelay   time.Duration
	TrendWindow      int
	HistoryRetention int
	StartedAt        time.Time
	Logger           zerolog.Logger
}

// Engine owns all per-unit diagnostic state. One engine instance per
// process; callers hold it by handle, so independent test instances carry
// no hidden shared state. The engine is the single writer for every unit;
// queries return snapshot copies under the same mutex, never live state.
type Engine struct {
	mu      sync.Mutex
	units   []domain.Unit
	byName  map[string]domain.Unit
	scorer  *diag.Scorer
	acc     *energy.Accumulator
	tracker *anomaly.Tracker
	sink    TransitionSink
	latest  map[string]domain.HealthRecord
	samples map[string]domain.TelemetrySample
	energy  domain.EnergySummary
	log     zerolog.Logger
}

func NewEngine(units []domain.Unit, thresholds diag.ThresholdSet, sink TransitionSink, opts Options) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	byName := make(map[string]domain.Unit, len(units))
	for _, u := range units {
		byName[u.Name] = u
	}
	return &Engine{
		units:   units,
		byName:  byName,
		scorer:  diag.NewScorer(thresholds),
		acc:     energy.NewAccumulator(opts.StartedAt),
		tracker: anomaly.NewTracker(opts.AutoClearDelay, opts.TrendWindow, opts.HistoryRetention),
		sink:    sink,
		latest:  make(map[string]domain.HealthRecord),
		samples: make(map[string]domain.TelemetrySample),
		log:     opts.Logger,
	}, nil
}

// ProcessCycle ingests one control cycle: one telemetry sample per unit.
// It refreshes every unit's health record, advances the anomaly lifecycle
// and folds the cycle into the energy accumulators.
func (e *Engine) ProcessCycle(samples []domain.TelemetrySample, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range samples {
		unit, ok := e.byName[s.Name]
		if !ok {
			e.log.Warn().Str("unit", s.Name).Msg("telemetry for unknown unit, skipped")
			continue
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = now
		}
		rec := e.scorer.Score(s, unit.RatedCurrentA)
		if !rec.DataComplete {
			e.log.Warn().Str("unit", s.Name).Msg("health record built from substituted telemetry defaults")
		}
		e.latest[s.Name] = rec
		e.samples[s.Name] = s

		tr, err := e.tracker.Observe(rec, s, now)
		if err != nil {
			return fmt.Errorf("anomaly lifecycle for %s: %w", s.Name, err)
		}
		e.emit(tr)
	}

	rt := energy.ComputeRealtime(e.units, e.samples)
	e.energy = e.acc.Apply(now, rt)
	return nil
}

// Acknowledge marks the unit's open episode as seen by an operator.
func (e *Engine) Acknowledge(unit, by string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tr, err := e.tracker.Acknowledge(unit, by, time.Now())
	if err != nil {
		return err
	}
	e.emit(tr)
	return nil
}

// Clear closes the unit's open episode by explicit operator action.
func (e *Engine) Clear(unit, by string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tr, err := e.tracker.Clear(unit, by, time.Now())
	if err != nil {
		return err
	}
	e.emit(tr)
	return nil
}

func (e *Engine) emit(tr *anomaly.Transition) {
	if tr == nil || e.sink == nil {
		return
	}
	e.log.Info().
		Str("unit", tr.Episode.Unit).
		Str("episode_id", tr.Episode.EpisodeID).
		Str("transition", tr.Kind.String()).
		Int("severity", tr.Episode.SeverityLevel).
		Msg("anomaly transition")
	e.sink.Enqueue(*tr)
}

// Units returns the fleet reference data.
func (e *Engine) Units() []domain.Unit {
	out := make([]domain.Unit, len(e.units))
	copy(out, e.units)
	return out
}

// HealthRecords returns the latest record per unit, in fleet order.
func (e *Engine) HealthRecords() []domain.HealthRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.HealthRecord, 0, len(e.units))
	for _, u := range e.units {
		if rec, ok := e.latest[u.Name]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// HealthRecord returns the latest record for one unit.
func (e *Engine) HealthRecord(unit string) (domain.HealthRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.latest[unit]
	return rec, ok
}

// EnergySummary returns the most recent cycle's energy output.
func (e *Engine) EnergySummary() domain.EnergySummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.energy
}

// UnitSavings returns the per-unit savings detail rows.
func (e *Engine) UnitSavings() []domain.UnitSavings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return energy.UnitDetail(e.units, e.samples)
}

// ActiveAnomalies returns snapshot copies of every open episode.
func (e *Engine) ActiveAnomalies() []domain.AnomalyEpisode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.ActiveEpisodes()
}

// FleetSummary counts the fleet per severity grade.
func (e *Engine) FleetSummary() domain.FleetSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	sum := domain.FleetSummary{TotalUnits: len(e.units)}
	for _, u := range e.units {
		rec, ok := e.latest[u.Name]
		if !ok {
			continue
		}
		switch rec.SeverityLevel {
		case 0:
			sum.Normal++
		case 1:
			sum.Caution++
		case 2:
			sum.Warning++
		default:
			sum.Critical++
			sum.CriticalUnits = append(sum.CriticalUnits, u.Name)
		}
	}
	return sum
}
