// Package poller drives the alert engine on a fixed interval.
package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linnemanlabs/go-core/log"
)

// Job is one unit of polling work. Ticks run sequentially; a slow tick
// delays the next one rather than overlapping it.
type Job interface {
	Run(ctx context.Context)
}

// Poller runs a Job once immediately and then once per interval until the
// context is cancelled.
type Poller struct {
	job      Job
	interval time.Duration
	logger   log.Logger
	clock    clockwork.Clock
	ticked   atomic.Bool
}

// New creates a poller. A nil clock defaults to the real clock.
func New(job Job, interval time.Duration, logger log.Logger, clock clockwork.Clock) *Poller {
	if logger == nil {
		logger = log.Nop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		job:      job,
		interval: interval,
		logger:   logger,
		clock:    clock,
	}
}

// CheckReadiness returns nil once at least one tick has completed.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ticked.Load() {
		return errNotReady
	}
	return nil
}

// Run blocks until ctx is cancelled. The first tick fires immediately so a
// fresh deploy does not wait a full interval before looking at the feed.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info(ctx, "poller started", "interval", p.interval.String())

	p.runOnce(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info(ctx, "poller stopping", "reason", ctx.Err().Error())
			return
		case <-ticker.Chan():
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	p.job.Run(ctx)
	p.ticked.Store(true)
}

var errNotReady = errors.New("poller has not completed a tick yet")
