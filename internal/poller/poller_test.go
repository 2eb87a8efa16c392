package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type countingJob struct {
	mu    sync.Mutex
	runs  int
	runCh chan struct{}
}

func newCountingJob() *countingJob {
	return &countingJob{runCh: make(chan struct{}, 16)}
}

func (j *countingJob) Run(_ context.Context) {
	j.mu.Lock()
	j.runs++
	j.mu.Unlock()
	j.runCh <- struct{}{}
}

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func waitForRun(t *testing.T, j *countingJob) {
	t.Helper()
	select {
	case <-j.runCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a tick")
	}
}

func TestRun_FirstTickIsImmediate(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	job := newCountingJob()
	p := New(job, time.Minute, nil, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	waitForRun(t, job)
	if got := job.count(); got != 1 {
		t.Errorf("runs = %d, want 1 before any interval elapses", got)
	}

	cancel()
	<-done
}

func TestRun_TicksOnInterval(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	job := newCountingJob()
	p := New(job, time.Minute, nil, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	waitForRun(t, job)

	clock.BlockUntilContext(ctx, 1)
	clock.Advance(time.Minute)
	waitForRun(t, job)

	clock.BlockUntilContext(ctx, 1)
	clock.Advance(time.Minute)
	waitForRun(t, job)

	if got := job.count(); got != 3 {
		t.Errorf("runs = %d, want 3", got)
	}

	cancel()
	<-done
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	job := newCountingJob()
	p := New(job, time.Minute, nil, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	waitForRun(t, job)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := job.count(); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	job := newCountingJob()
	p := New(job, time.Minute, nil, clock)

	if err := p.CheckReadiness(context.Background()); err == nil {
		t.Fatal("expected not-ready before the first tick")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	waitForRun(t, job)
	if err := p.CheckReadiness(context.Background()); err != nil {
		t.Errorf("CheckReadiness after first tick: %v", err)
	}

	cancel()
	<-done
}
