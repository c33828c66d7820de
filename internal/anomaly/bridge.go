package anomaly

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// Ledger is the narrow persistence contract for anomaly episodes. Every
// call must be idempotent on episode id.
type Ledger interface {
	CreateEpisode(ctx context.Context, ep domain.AnomalyEpisode) error
	AcknowledgeEpisode(ctx context.Context, episodeID, by string, at time.Time) error
	ClearEpisode(ctx context.Context, episodeID, by string, at time.Time, durationMinutes int, auto bool) error
}

// BridgeOptions tune the asynchronous writer.
type BridgeOptions struct {
	QueueSize    int
	Retries      int
	RetryBackoff time.Duration
	WriteTimeout time.Duration
}

func (o *BridgeOptions) defaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 500 * time.Millisecond
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 2 * time.Second
	}
}

// Bridge projects lifecycle transitions into the durable ledger without
// ever blocking the sampling cycle. Writes go through a bounded queue and
// are retried with backoff; a write that still fails is dropped with an
// error log. The in-memory lifecycle is the source of truth for the
// current cycle; the ledger is a durable projection of its events.
type Bridge struct {
	ledger Ledger
	queue  chan Transition
	opts   BridgeOptions
	log    zerolog.Logger
	done   chan struct{}
}

func NewBridge(ledger Ledger, opts BridgeOptions, log zerolog.Logger) *Bridge {
	opts.defaults()
	b := &Bridge{
		ledger: ledger,
		queue:  make(chan Transition, opts.QueueSize),
		opts:   opts,
		log:    log,
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

// Enqueue hands a transition to the writer. When the queue is full the
// transition is dropped and logged rather than stalling the caller.
func (b *Bridge) Enqueue(tr Transition) {
	select {
	case b.queue <- tr:
	default:
		b.log.Error().
			Str("episode_id", tr.Episode.EpisodeID).
			Str("transition", tr.Kind.String()).
			Msg("ledger queue full, transition dropped")
	}
}

// Close drains pending transitions and stops the writer.
func (b *Bridge) Close() {
	close(b.queue)
	<-b.done
}

func (b *Bridge) run() {
	defer close(b.done)
	for tr := range b.queue {
		b.write(tr)
	}
}

func (b *Bridge) write(tr Transition) {
	var err error
	for attempt := 0; attempt <= b.opts.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(b.opts.RetryBackoff * time.Duration(attempt))
		}
		err = b.writeOnce(tr)
		if err == nil {
			return
		}
	}
	b.log.Error().Err(err).
		Str("episode_id", tr.Episode.EpisodeID).
		Str("transition", tr.Kind.String()).
		Int("retries", b.opts.Retries).
		Msg("ledger write failed, giving up")
}

func (b *Bridge) writeOnce(tr Transition) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.opts.WriteTimeout)
	defer cancel()

	ep := tr.Episode
	switch tr.Kind {
	case TransitionOpened:
		return b.ledger.CreateEpisode(ctx, ep)
	case TransitionAcknowledged:
		at := time.Now()
		if ep.AcknowledgedAt != nil {
			at = *ep.AcknowledgedAt
		}
		return b.ledger.AcknowledgeEpisode(ctx, ep.EpisodeID, ep.AcknowledgedBy, at)
	default:
		at := time.Now()
		if ep.ClearedAt != nil {
			at = *ep.ClearedAt
		}
		auto := tr.Kind == TransitionAutoCleared
		return b.ledger.ClearEpisode(ctx, ep.EpisodeID, ep.ClearedBy, at, ep.DurationMinutes, auto)
	}
}
