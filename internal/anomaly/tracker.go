package anomaly

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// Advisory tags attached to an episode at open time. They never feed back
// into severity scoring.
const (
	TagRisingTrend      = "TEMP_RISING_TREND"
	TagFrequentWarnings = "FREQUENT_WARNINGS"
)

// risingSlopeThreshold is the least-squares slope (motor thermal % per
// sample) above which the rising-trend tag fires.
const risingSlopeThreshold = 0.5

// warningRateThreshold is the fraction of windowed samples with a warning
// word set above which the frequent-warnings tag fires.
const warningRateThreshold = 0.3

var (
	ErrNoOpenEpisode      = errors.New("no open episode for unit")
	ErrDuplicateEpisodeID = errors.New("duplicate episode id")
)

// TransitionKind names a lifecycle transition that must be projected into
// the durable ledger.
type TransitionKind int

const (
	TransitionOpened TransitionKind = iota
	TransitionAcknowledged
	TransitionCleared
	TransitionAutoCleared
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionOpened:
		return "opened"
	case TransitionAcknowledged:
		return "acknowledged"
	case TransitionCleared:
		return "cleared"
	default:
		return "auto_cleared"
	}
}

// Transition carries a copy of the episode as it looked when the transition
// happened.
type Transition struct {
	Kind    TransitionKind
	Episode domain.AnomalyEpisode
}

type unitState struct {
	history *ring
	open    *domain.AnomalyEpisode
}

// Tracker is the per-unit anomaly state machine. Each unit moves through
// Normal -> Active -> Acknowledged -> Cleared/AutoCleared; the terminal
// states end an episode and a later sample may open a new one.
//
// The tracker is single-owner: the engine serializes all calls. Queries
// return copies.
type Tracker struct {
	autoClearDelay time.Duration
	trendWindow    int
	units          map[string]*unitState
	retention      int
	usedIDs        map[string]struct{}
	newSuffix      func() string
}

func NewTracker(autoClearDelay time.Duration, trendWindow, retention int) *Tracker {
	if trendWindow <= 0 {
		trendWindow = 30
	}
	if retention <= 0 {
		retention = 1000
	}
	return &Tracker{
		autoClearDelay: autoClearDelay,
		trendWindow:    trendWindow,
		retention:      retention,
		units:          make(map[string]*unitState),
		usedIDs:        make(map[string]struct{}),
		newSuffix:      func() string { return uuid.NewString()[:8] },
	}
}

// Observe feeds one cycle's health record into the state machine and
// returns the resulting transition, if any. Severity staying non-zero while
// an episode is open is a no-op: the lifecycle state and the open-time
// snapshot do not change, and acknowledgment is never silently reverted.
func (t *Tracker) Observe(rec domain.HealthRecord, sample domain.TelemetrySample, now time.Time) (*Transition, error) {
	st := t.unit(rec.Unit)
	st.history.push(histEntry{
		motorThermal: sample.MotorThermalPct,
		warning:      sample.WarningWord != 0,
	})

	if rec.SeverityLevel > 0 {
		if st.open != nil {
			return nil, nil
		}
		ep, err := t.openEpisode(rec, now, st)
		if err != nil {
			return nil, err
		}
		st.open = ep
		return &Transition{Kind: TransitionOpened, Episode: *ep}, nil
	}

	// Severity back to Normal.
	if st.open == nil {
		return nil, nil
	}
	if st.open.Status == domain.EpisodeAcknowledged {
		// Debounce: an operator engaged with this episode, so hold it
		// open until the configured delay has passed since acknowledgment.
		if st.open.AcknowledgedAt == nil || now.Sub(*st.open.AcknowledgedAt) < t.autoClearDelay {
			return nil, nil
		}
	}
	return t.closeLocked(st, domain.EpisodeAutoCleared, "system", now), nil
}

// Acknowledge marks the unit's open episode as seen by an operator. The
// acknowledgment persists across subsequent non-Normal samples.
func (t *Tracker) Acknowledge(unit, by string, now time.Time) (*Transition, error) {
	st := t.unit(unit)
	if st.open == nil {
		return nil, ErrNoOpenEpisode
	}
	if st.open.Status == domain.EpisodeAcknowledged {
		return nil, nil // already acknowledged, idempotent
	}
	ack := now
	st.open.Status = domain.EpisodeAcknowledged
	st.open.AcknowledgedAt = &ack
	st.open.AcknowledgedBy = by
	return &Transition{Kind: TransitionAcknowledged, Episode: *st.open}, nil
}

// Clear closes the unit's open episode by explicit operator action.
func (t *Tracker) Clear(unit, by string, now time.Time) (*Transition, error) {
	st := t.unit(unit)
	if st.open == nil {
		return nil, ErrNoOpenEpisode
	}
	return t.closeLocked(st, domain.EpisodeCleared, by, now), nil
}

// OpenEpisode returns a copy of the unit's open episode, or nil.
func (t *Tracker) OpenEpisode(unit string) *domain.AnomalyEpisode {
	st, ok := t.units[unit]
	if !ok || st.open == nil {
		return nil
	}
	cp := *st.open
	return &cp
}

// ActiveEpisodes returns snapshot copies of every open episode.
func (t *Tracker) ActiveEpisodes() []domain.AnomalyEpisode {
	var out []domain.AnomalyEpisode
	for _, st := range t.units {
		if st.open != nil {
			out = append(out, *st.open)
		}
	}
	return out
}

func (t *Tracker) unit(name string) *unitState {
	st, ok := t.units[name]
	if !ok {
		st = &unitState{history: newRing(t.retention)}
		t.units[name] = st
	}
	return st
}

func (t *Tracker) openEpisode(rec domain.HealthRecord, now time.Time, st *unitState) (*domain.AnomalyEpisode, error) {
	id, err := t.newEpisodeID(rec.Unit, now)
	if err != nil {
		return nil, err
	}
	params := make([]domain.ParameterScore, len(rec.Parameters))
	copy(params, rec.Parameters)
	recs := make([]string, len(rec.Recommendations))
	copy(recs, rec.Recommendations)

	return &domain.AnomalyEpisode{
		EpisodeID:         id,
		Unit:              rec.Unit,
		OpenedAt:          now,
		SeverityLevel:     rec.SeverityLevel,
		SeverityName:      rec.SeverityName,
		HealthScoreAtOpen: rec.HealthScore,
		Parameters:        params,
		Recommendations:   recs,
		Tags:              t.trendTags(st),
		Status:            domain.EpisodeActive,
	}, nil
}

// newEpisodeID builds a globally unique id from the unit name, a
// millisecond timestamp and a random suffix, so sub-second repeats on the
// same unit cannot collide. A duplicate is regenerated once; a second
// collision is statistically unreachable and treated as fatal.
func (t *Tracker) newEpisodeID(unit string, now time.Time) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id := fmt.Sprintf("%s-%d-%s", unit, now.UnixMilli(), t.newSuffix())
		if _, dup := t.usedIDs[id]; !dup {
			t.usedIDs[id] = struct{}{}
			return id, nil
		}
	}
	return "", ErrDuplicateEpisodeID
}

func (t *Tracker) closeLocked(st *unitState, status domain.EpisodeStatus, by string, now time.Time) *Transition {
	cleared := now
	st.open.Status = status
	st.open.ClearedAt = &cleared
	st.open.ClearedBy = by
	st.open.DurationMinutes = int(now.Sub(st.open.OpenedAt).Minutes())
	tr := &Transition{Episode: *st.open}
	if status == domain.EpisodeAutoCleared {
		tr.Kind = TransitionAutoCleared
	} else {
		tr.Kind = TransitionCleared
	}
	st.open = nil
	return tr
}

// trendTags inspects the most recent trendWindow samples. Tags are
// advisory: they annotate the episode for operators and never influence
// the severity that produced the window.
func (t *Tracker) trendTags(st *unitState) []string {
	recent := st.history.lastN(t.trendWindow)
	if len(recent) < t.trendWindow {
		return nil
	}
	var tags []string
	if slope(recent) > risingSlopeThreshold {
		tags = append(tags, TagRisingTrend)
	}
	warnings := 0
	for _, e := range recent {
		if e.warning {
			warnings++
		}
	}
	if float64(warnings)/float64(len(recent)) > warningRateThreshold {
		tags = append(tags, TagFrequentWarnings)
	}
	return tags
}

// slope is the least-squares slope of motor thermal over sample index.
func slope(entries []histEntry) float64 {
	n := float64(len(entries))
	var sumX, sumY, sumXY, sumXX float64
	for i, e := range entries {
		x := float64(i)
		sumX += x
		sumY += e.motorThermal
		sumXY += x * e.motorThermal
		sumXX += x * x
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}
