package anomaly

import (
	"testing"
	"time"
)

func TestRing_WrapAround(t *testing.T) {
	r := newRing(5)
	for i := 0; i < 8; i++ {
		r.push(histEntry{motorThermal: float64(i)})
	}
	if r.len() != 5 {
		t.Fatalf("len = %d, want 5", r.len())
	}
	got := r.lastN(3)
	want := []float64{5, 6, 7}
	for i, e := range got {
		if e.motorThermal != want[i] {
			t.Errorf("lastN[%d] = %v, want %v", i, e.motorThermal, want[i])
		}
	}
}

func TestRing_LastNBeforeFull(t *testing.T) {
	r := newRing(10)
	r.push(histEntry{motorThermal: 1})
	r.push(histEntry{motorThermal: 2})
	got := r.lastN(5)
	if len(got) != 2 {
		t.Fatalf("lastN returned %d entries, want 2", len(got))
	}
	if got[0].motorThermal != 1 || got[1].motorThermal != 2 {
		t.Errorf("order wrong: %v", got)
	}
}

func TestSlope(t *testing.T) {
	entries := make([]histEntry, 30)
	for i := range entries {
		entries[i].motorThermal = 50 + float64(i) // exactly +1 per sample
	}
	if got := slope(entries); !almostEqual(got, 1.0) {
		t.Errorf("slope = %v, want 1.0", got)
	}

	flat := make([]histEntry, 30)
	for i := range flat {
		flat[i].motorThermal = 60
	}
	if got := slope(flat); !almostEqual(got, 0) {
		t.Errorf("flat slope = %v, want 0", got)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

// With a full window showing a rising thermal trend and frequent warnings,
// a newly opened episode carries both advisory tags.
func TestTracker_TrendTags(t *testing.T) {
	tr := newTestTracker()
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 30; i++ {
		s := sample("FWP1", 40+float64(i), i%2 == 0) // slope 1.0, 50% warnings
		if _, err := tr.Observe(record("FWP1", 0), s, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := tr.Observe(record("FWP1", 2), sample("FWP1", 71, true), now.Add(31*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	tags := got.Episode.Tags
	if !contains(tags, TagRisingTrend) {
		t.Errorf("tags %v missing %s", tags, TagRisingTrend)
	}
	if !contains(tags, TagFrequentWarnings) {
		t.Errorf("tags %v missing %s", tags, TagFrequentWarnings)
	}
}

// Tags stay advisory: a stable unit opening an episode carries none.
func TestTracker_NoTagsOnStableWindow(t *testing.T) {
	tr := newTestTracker()
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 30; i++ {
		if _, err := tr.Observe(record("FWP1", 0), sample("FWP1", 60, false), now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := tr.Observe(record("FWP1", 2), sample("FWP1", 61, false), now.Add(31*time.Second))
	if len(got.Episode.Tags) != 0 {
		t.Errorf("stable window produced tags %v", got.Episode.Tags)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

// Tags never feed back into scoring: the record passed in is what the
// episode reports, regardless of window contents.
func TestTracker_TagsDoNotAlterSeverity(t *testing.T) {
	tr := newTestTracker()
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 30; i++ {
		tr.Observe(record("FWP1", 0), sample("FWP1", 40+float64(i)*2, true), now.Add(time.Duration(i)*time.Second))
	}
	rec := record("FWP1", 1)
	got, _ := tr.Observe(rec, sample("FWP1", 100, true), now.Add(31*time.Second))
	if got.Episode.SeverityLevel != rec.SeverityLevel {
		t.Errorf("episode severity %d != record severity %d", got.Episode.SeverityLevel, rec.SeverityLevel)
	}
}
