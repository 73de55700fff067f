package periodic

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"nrgbot/metrics"
)

// Task is one unit of periodic work
type Task func(ctx context.Context) error

// Middleware decorates a named task, e.g. to report its failures
type Middleware func(name string, task Task) Task

// Runner executes a Task on a fixed interval. Starting an already started
// runner replaces its timer, and a tick that fires while a previous run is
// still in flight is skipped. Stop never cancels an in-flight run.
type Runner struct {
	name    string
	task    Task
	metrics *metrics.Metrics

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}

	inFlight atomic.Bool
}

func NewRunner(name string, task Task, m *metrics.Metrics, middlewares ...Middleware) *Runner {
	for _, mw := range middlewares {
		task = mw(name, task)
	}
	return &Runner{
		name:    name,
		task:    task,
		metrics: m,
	}
}

// Start schedules the task every interval, replacing any previous schedule
func (r *Runner) Start(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop != nil {
		r.stopLocked()
		log.Printf("📋 Replacing existing %s schedule", r.name)
	}

	r.ticker = time.NewTicker(interval)
	r.stop = make(chan struct{})
	go r.loop(r.ticker, r.stop)

	log.Printf("✅ %s scheduled every %s", r.name, interval)
}

func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stop == nil {
		return
	}
	r.stopLocked()
	log.Printf("🛑 %s schedule stopped", r.name)
}

func (r *Runner) stopLocked() {
	r.ticker.Stop()
	close(r.stop)
	r.ticker = nil
	r.stop = nil
}

// Scheduled reports whether a timer is active
func (r *Runner) Scheduled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop != nil
}

// InFlight reports whether a run is currently executing
func (r *Runner) InFlight() bool {
	return r.inFlight.Load()
}

func (r *Runner) loop(ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := r.RunNow(context.Background()); err != nil {
				log.Printf("❌ %s failed: %v", r.name, err)
			}
		}
	}
}

// RunNow executes the task immediately unless a run is already in flight,
// in which case it returns false without running. Panics become errors.
func (r *Runner) RunNow(ctx context.Context) (ran bool, err error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		log.Printf("⚠️ %s is still running, skipping this run", r.name)
		r.metrics.SyncSkipped(r.name)
		return false, nil
	}
	defer r.inFlight.Store(false)

	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in %s: %v", r.name, rec)
		}
		r.metrics.SyncCompleted(r.name, started, err)
	}()

	return true, r.task(ctx)
}
