package energy

import (
	"sync"
	"time"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// Scope selects one accumulator column.
type Scope int

const (
	ScopeTotal Scope = iota
	ScopeSWP
	ScopeFWP
	ScopeFan
	scopeCount
)

type periodState struct {
	start   time.Time
	kwh     float64
	samples int
}

// Accumulator converts instantaneous saved power into calendar-bucketed kWh
// totals. Totals grow monotonically within a period and reset when the wall
// clock crosses midnight (today) or the first of the month (month).
//
// The boundary check and the increment are one critical section: a reset
// re-stamps the period start and zeroes the totals before the triggering
// cycle's increment is applied, so that increment lands in the new period.
type Accumulator struct {
	mu         sync.Mutex
	lastUpdate time.Time
	lastRate   float64
	today      [scopeCount]periodState
	month      [scopeCount]periodState
}

func NewAccumulator(now time.Time) *Accumulator {
	a := &Accumulator{lastUpdate: now}
	for i := range a.today {
		a.today[i].start = dayStart(now)
		a.month[i].start = monthStart(now)
	}
	return a
}

// Apply folds one cycle's realtime savings into the calendar totals and
// returns the energy summary for the cycle. A non-positive wall-clock delta
// (clock skew) skips the increment for this cycle only.
func (a *Accumulator) Apply(now time.Time, rt domain.RealtimeSavings) domain.EnergySummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	day := dayStart(now)
	mon := monthStart(now)
	for i := range a.today {
		if day.After(a.today[i].start) {
			a.today[i] = periodState{start: day}
		}
		if mon.After(a.month[i].start) {
			a.month[i] = periodState{start: mon}
		}
	}

	dt := now.Sub(a.lastUpdate).Seconds()
	if dt > 0 {
		rates := [scopeCount]float64{rt.Total.SavingsKW, rt.SWP.SavingsKW, rt.FWP.SavingsKW, rt.Fan.SavingsKW}
		for i, kw := range rates {
			inc := kw * dt / 3600
			a.today[i].kwh += inc
			a.today[i].samples++
			a.month[i].kwh += inc
			a.month[i].samples++
		}
	}
	// Re-stamp even on skew so a backwards clock step recovers next cycle.
	a.lastUpdate = now
	a.lastRate = rt.Total.SavingsRate

	return domain.EnergySummary{
		Realtime: rt,
		Today:    a.snapshotLocked(a.today[ScopeTotal]),
		Month:    a.snapshotLocked(a.month[ScopeTotal]),
	}
}

// Period returns the current state of one scope/period column. When daily
// is false the month column is returned.
func (a *Accumulator) Period(scope Scope, daily bool) domain.PeriodSavings {
	a.mu.Lock()
	defer a.mu.Unlock()
	if daily {
		return a.snapshotLocked(a.today[scope])
	}
	return a.snapshotLocked(a.month[scope])
}

func (a *Accumulator) snapshotLocked(st periodState) domain.PeriodSavings {
	return domain.PeriodSavings{
		KWhSaved:       st.kwh,
		AvgSavingsRate: a.lastRate,
		PeriodStart:    st.start,
		Samples:        st.samples,
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
