package energy

import (
	"testing"
	"time"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

func savings(totalKW float64) domain.RealtimeSavings {
	return domain.RealtimeSavings{
		Total: domain.GroupSavings{SavingsKW: totalKW, SavingsRate: 20},
	}
}

func TestAccumulator_Increment(t *testing.T) {
	t0 := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	acc := NewAccumulator(t0)

	// 180 kW saved over 20 s = 1 kWh.
	sum := acc.Apply(t0.Add(20*time.Second), savings(180))
	if !approx(sum.Today.KWhSaved, 1.0, 1e-9) {
		t.Errorf("today kwh = %v, want 1.0", sum.Today.KWhSaved)
	}
	if !approx(sum.Month.KWhSaved, 1.0, 1e-9) {
		t.Errorf("month kwh = %v, want 1.0", sum.Month.KWhSaved)
	}
	if sum.Today.Samples != 1 {
		t.Errorf("samples = %d, want 1", sum.Today.Samples)
	}

	sum = acc.Apply(t0.Add(40*time.Second), savings(180))
	if !approx(sum.Today.KWhSaved, 2.0, 1e-9) {
		t.Errorf("today kwh after 2 cycles = %v, want 2.0", sum.Today.KWhSaved)
	}
}

// After a midnight reset the today total equals exactly the triggering
// cycle's increment; the month total keeps accumulating.
func TestAccumulator_MidnightReset(t *testing.T) {
	t0 := time.Date(2026, 8, 23, 23, 59, 30, 0, time.UTC)
	acc := NewAccumulator(t0)

	acc.Apply(t0.Add(20*time.Second), savings(180)) // 23:59:50, 1 kWh

	crossing := t0.Add(40 * time.Second) // 00:00:10 next day
	sum := acc.Apply(crossing, savings(180))

	if !approx(sum.Today.KWhSaved, 1.0, 1e-9) {
		t.Errorf("today kwh after reset = %v, want exactly the triggering increment 1.0", sum.Today.KWhSaved)
	}
	if sum.Today.Samples != 1 {
		t.Errorf("today samples after reset = %d, want 1", sum.Today.Samples)
	}
	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !sum.Today.PeriodStart.Equal(wantStart) {
		t.Errorf("today period start = %v, want %v", sum.Today.PeriodStart, wantStart)
	}
	if !approx(sum.Month.KWhSaved, 2.0, 1e-9) {
		t.Errorf("month kwh = %v, want 2.0 (day rollover must not touch month)", sum.Month.KWhSaved)
	}
}

func TestAccumulator_MonthReset(t *testing.T) {
	t0 := time.Date(2026, 8, 31, 23, 59, 50, 0, time.UTC)
	acc := NewAccumulator(t0)

	acc.Apply(t0.Add(5*time.Second), savings(180))

	crossing := t0.Add(20 * time.Second) // Sep 1st 00:00:10
	sum := acc.Apply(crossing, savings(240))

	// 240 kW over 15 s = 1 kWh, the only contribution in the new month.
	if !approx(sum.Month.KWhSaved, 1.0, 1e-9) {
		t.Errorf("month kwh after rollover = %v, want 1.0", sum.Month.KWhSaved)
	}
	wantStart := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !sum.Month.PeriodStart.Equal(wantStart) {
		t.Errorf("month period start = %v, want %v", sum.Month.PeriodStart, wantStart)
	}
	if !sum.Today.PeriodStart.Equal(wantStart) {
		t.Errorf("today also rolls over at the same instant, got %v", sum.Today.PeriodStart)
	}
}

// A non-positive wall-clock delta skips the increment for that cycle only.
func TestAccumulator_ClockSkew(t *testing.T) {
	t0 := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	acc := NewAccumulator(t0)

	acc.Apply(t0.Add(10*time.Second), savings(360)) // 1 kWh

	sum := acc.Apply(t0.Add(5*time.Second), savings(360)) // clock stepped back
	if !approx(sum.Today.KWhSaved, 1.0, 1e-9) {
		t.Errorf("today kwh after skew = %v, want unchanged 1.0", sum.Today.KWhSaved)
	}
	if sum.Today.Samples != 1 {
		t.Errorf("samples after skew = %d, want 1", sum.Today.Samples)
	}

	// Recovery: the next forward cycle accumulates from the re-stamped clock.
	sum = acc.Apply(t0.Add(15*time.Second), savings(360)) // +1 kWh over 10 s
	if !approx(sum.Today.KWhSaved, 2.0, 1e-9) {
		t.Errorf("today kwh after recovery = %v, want 2.0", sum.Today.KWhSaved)
	}
}

func TestAccumulator_PerScopeTotals(t *testing.T) {
	t0 := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	acc := NewAccumulator(t0)

	rt := domain.RealtimeSavings{
		Total: domain.GroupSavings{SavingsKW: 360},
		SWP:   domain.GroupSavings{SavingsKW: 180},
		FWP:   domain.GroupSavings{SavingsKW: 120},
		Fan:   domain.GroupSavings{SavingsKW: 60},
	}
	acc.Apply(t0.Add(10*time.Second), rt)

	if got := acc.Period(ScopeSWP, true).KWhSaved; !approx(got, 0.5, 1e-9) {
		t.Errorf("swp today kwh = %v, want 0.5", got)
	}
	if got := acc.Period(ScopeFan, false).KWhSaved; !approx(got, 60.0/360.0, 1e-9) {
		t.Errorf("fan month kwh = %v, want %v", got, 60.0/360.0)
	}
}
