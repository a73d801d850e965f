// Package chatpoll keeps a client-side view of one conversation fresh by
// polling the message log.
package chatpoll

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/fall-in/internal/service/view"
)

const (
	DefaultInterval = time.Second
	DefaultBackoff  = 5 * time.Second
)

// FetchFunc returns the messages newer than since, oldest first.
type FetchFunc func(ctx context.Context, since time.Time) ([]view.Message, error)

// Poller repeatedly fetches new messages and hands each non-empty batch to OnBatch.
type Poller struct {
	Fetch    FetchFunc
	OnBatch  func([]view.Message)
	Interval time.Duration
	// Backoff is the pause after a failed fetch.
	Backoff time.Duration
	Logger  *slog.Logger

	since time.Time
}

func New(fetch FetchFunc, onBatch func([]view.Message), since time.Time) *Poller {
	return &Poller{
		Fetch:    fetch,
		OnBatch:  onBatch,
		Interval: DefaultInterval,
		Backoff:  DefaultBackoff,
		Logger:   slog.Default(),
		since:    since,
	}
}

// Since returns the timestamp of the newest message seen so far.
// Not safe to call concurrently with Run.
func (p *Poller) Since() time.Time { return p.since }

// Run polls until ctx is done and returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	interval, backoff := p.Interval, p.Backoff
	if interval <= 0 {
		interval = DefaultInterval
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	wait := time.Duration(0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		msgs, err := p.Fetch(ctx, p.since)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("message poll failed", "since", p.since, "retry_in", backoff, "err", err)
			wait = backoff
			continue
		}
		wait = interval

		if len(msgs) == 0 {
			continue
		}
		for _, m := range msgs {
			if m.SentAt.After(p.since) {
				p.since = m.SentAt
			}
		}
		if p.OnBatch != nil {
			p.OnBatch(msgs)
		}
	}
}
