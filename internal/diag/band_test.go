package diag

import "testing"

func TestBand(t *testing.T) {
	thr := Thresholds{Normal: 80, Attention: 90, Warning: 100}

	tests := []struct {
		name  string
		value float64
		want  int
	}{
		{"well below normal", 0, 0},
		{"just below normal", 79.9, 0},
		{"equal to normal escalates", 80, 1},
		{"inside attention band", 85, 1},
		{"equal to attention escalates", 90, 2},
		{"inside warning band", 95, 2},
		{"equal to warning escalates", 100, 3},
		{"far above warning", 150, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Band(tc.value, thr); got != tc.want {
				t.Errorf("Band(%v) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestBand_MonotonicSweep(t *testing.T) {
	thr := Thresholds{Normal: 10, Attention: 20, Warning: 30}
	prev := 0
	for v := 0.0; v <= 40; v += 0.5 {
		got := Band(v, thr)
		if got < 0 || got > 3 {
			t.Fatalf("Band(%v) = %d outside 0-3", v, got)
		}
		if got < prev {
			t.Fatalf("Band(%v) = %d decreased from %d", v, got, prev)
		}
		prev = got
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		t       Thresholds
		wantErr bool
	}{
		{"strictly increasing", Thresholds{80, 90, 100}, false},
		{"equal normal and attention", Thresholds{90, 90, 100}, true},
		{"decreasing", Thresholds{100, 90, 80}, true},
		{"equal attention and warning", Thresholds{80, 100, 100}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.t.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
