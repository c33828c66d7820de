package anomaly

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// fakeLedger records calls and can fail a configured number of times.
type fakeLedger struct {
	mu       sync.Mutex
	failures int
	calls    []string
}

func (f *fakeLedger) step(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.failures > 0 {
		f.failures--
		return errors.New("ledger unavailable")
	}
	return nil
}

func (f *fakeLedger) CreateEpisode(_ context.Context, _ domain.AnomalyEpisode) error {
	return f.step("create")
}
func (f *fakeLedger) AcknowledgeEpisode(_ context.Context, _, _ string, _ time.Time) error {
	return f.step("acknowledge")
}
func (f *fakeLedger) ClearEpisode(_ context.Context, _, _ string, _ time.Time, _ int, auto bool) error {
	if auto {
		return f.step("auto_clear")
	}
	return f.step("clear")
}

func (f *fakeLedger) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func testBridge(ledger Ledger) *Bridge {
	return NewBridge(ledger, BridgeOptions{
		QueueSize:    8,
		Retries:      2,
		RetryBackoff: time.Millisecond,
		WriteTimeout: time.Second,
	}, zerolog.Nop())
}

func openedTransition(id string) Transition {
	return Transition{
		Kind: TransitionOpened,
		Episode: domain.AnomalyEpisode{
			EpisodeID: id,
			Unit:      "SWP1",
			OpenedAt:  time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
			Status:    domain.EpisodeActive,
		},
	}
}

func TestBridge_WritesTransitions(t *testing.T) {
	ledger := &fakeLedger{}
	b := testBridge(ledger)

	now := time.Date(2026, 8, 23, 12, 5, 0, 0, time.UTC)
	b.Enqueue(openedTransition("ep-1"))
	b.Enqueue(Transition{
		Kind: TransitionAcknowledged,
		Episode: domain.AnomalyEpisode{
			EpisodeID: "ep-1", AcknowledgedAt: &now, AcknowledgedBy: "operator",
			Status: domain.EpisodeAcknowledged,
		},
	})
	b.Enqueue(Transition{
		Kind: TransitionAutoCleared,
		Episode: domain.AnomalyEpisode{
			EpisodeID: "ep-1", ClearedAt: &now, ClearedBy: "system",
			Status: domain.EpisodeAutoCleared, DurationMinutes: 5,
		},
	})
	b.Close()

	want := []string{"create", "acknowledge", "auto_clear"}
	got := ledger.callLog()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, got[i], want[i])
		}
	}
}

// A transient failure is retried with backoff until the write lands.
func TestBridge_RetriesTransientFailure(t *testing.T) {
	ledger := &fakeLedger{failures: 2}
	b := testBridge(ledger)

	b.Enqueue(openedTransition("ep-retry"))
	b.Close()

	if got := len(ledger.callLog()); got != 3 {
		t.Errorf("attempts = %d, want 3 (two failures then success)", got)
	}
}

// Exhausted retries drop the write; the bridge keeps serving later ones.
func TestBridge_GivesUpAfterRetries(t *testing.T) {
	ledger := &fakeLedger{failures: 10}
	b := testBridge(ledger)

	b.Enqueue(openedTransition("ep-lost"))
	b.Enqueue(openedTransition("ep-next"))
	b.Close()

	calls := ledger.callLog()
	// 3 attempts for the lost write (1 + 2 retries), then the next write
	// consumes the remaining forced failures and keeps retrying.
	if len(calls) < 4 {
		t.Errorf("bridge stopped serving after a dropped write: %v", calls)
	}
}
