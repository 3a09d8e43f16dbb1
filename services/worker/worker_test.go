package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sjsage522/gpuwatcher/internal/scraper"
)

type fakeRunner struct {
	mu     sync.Mutex
	runs   []string
	errFor map[string]error
	delay  time.Duration
}

func (r *fakeRunner) Run(ctx context.Context, target scraper.SearchTarget) (int, error) {
	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(r.delay):
		}
	}
	r.mu.Lock()
	r.runs = append(r.runs, target.SKU)
	r.mu.Unlock()
	if err := r.errFor[target.SKU]; err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *fakeRunner) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.runs...)
}

var testTargets = []scraper.SearchTarget{
	{SKU: "RTX 4060", MaxPrice: 2500},
	{SKU: "RTX 4070", MaxPrice: 3000},
	{SKU: "RX 6600", MaxPrice: 1300},
}

func TestRunOnceSerializedOrder(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(runner, testTargets, time.Hour, 0, 1)

	w.RunOnce(context.Background())

	assert.Equal(t, []string{"RTX 4060", "RTX 4070", "RX 6600"}, runner.seen())
}

func TestRunOnceErrorDoesNotAbortRound(t *testing.T) {
	runner := &fakeRunner{errFor: map[string]error{"RTX 4070": errors.New("rate limited")}}
	w := NewWorker(runner, testTargets, time.Hour, 0, 1)

	w.RunOnce(context.Background())

	assert.Equal(t, []string{"RTX 4060", "RTX 4070", "RX 6600"}, runner.seen(),
		"a failing target must not stop the rest of the round")
}

func TestRunOncePooledCoversAllTargets(t *testing.T) {
	runner := &fakeRunner{delay: 5 * time.Millisecond}
	w := NewWorker(runner, testTargets, time.Hour, 0, 2)

	start := time.Now()
	w.RunOnce(context.Background())
	elapsed := time.Since(start)

	assert.ElementsMatch(t, []string{"RTX 4060", "RTX 4070", "RX 6600"}, runner.seen())
	assert.Less(t, elapsed, time.Second)
}

func TestRunOnceHonorsCancellation(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(runner, testTargets, time.Hour, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunOnce(ctx)
		close(done)
	}()

	// Let the first target finish, then cancel during the inter-target delay
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("round did not stop on cancellation")
	}
	assert.Equal(t, []string{"RTX 4060"}, runner.seen())
}

func TestStartStopsWhenCancelled(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(runner, testTargets[:1], 10*time.Millisecond, 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
	assert.GreaterOrEqual(t, len(runner.seen()), 2, "multiple rounds before cancellation")
}

func TestNewWorkerClampsWorkerCount(t *testing.T) {
	w := NewWorker(&fakeRunner{}, testTargets, time.Hour, 0, 0)
	assert.Equal(t, 1, w.maxWorkers)
}
