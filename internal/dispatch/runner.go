package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
	"github.com/nimasrn/admissions-inbox/pkg/logger"
	"github.com/nimasrn/admissions-inbox/pkg/prom"
)

const MetricsInterval = time.Second * 30
const ShutdownTimeout = time.Minute

// Cycle is one dispatch pass, normally a *Dispatcher.
type Cycle interface {
	RunOnce(ctx context.Context, now time.Time) (model.DispatchSummary, error)
}

// Runner invokes a Cycle once per interval while holding the cycle lease, so
// two dispatcher processes never run overlapping cycles.
type Runner struct {
	cycle    Cycle
	lease    *Lease
	interval time.Duration
	metrics  *ServiceMetrics
	now      func() time.Time
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewRunner(cycle Cycle, lease *Lease, interval time.Duration) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		cycle:    cycle,
		lease:    lease,
		interval: interval,
		metrics:  NewServiceMetrics(),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Runner) Metrics() *ServiceMetrics {
	return r.metrics
}

// Start launches the ticker loop and the metrics reporter. It does not block.
func (r *Runner) Start() {
	logger.Info("Starting dispatch runner...", "interval", r.interval)

	r.wg.Add(2)
	go r.loop()
	go r.metricsReporter()
}

func (r *Runner) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, _, err := r.Tick(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("dispatch cycle failed", "error", err)
		}
		select {
		case <-ticker.C:
		case <-r.ctx.Done():
			return
		}
	}
}

// Tick runs a single cycle under the lease. ran is false when another runner
// holds the lease and the cycle was skipped.
func (r *Runner) Tick(ctx context.Context) (summary model.DispatchSummary, ran bool, err error) {
	token, err := r.lease.Acquire(ctx)
	if errors.Is(err, ErrLeaseHeld) {
		logger.Debug("dispatch cycle skipped, lease held elsewhere")
		r.metrics.RecordLeaseSkipped()
		prom.IncDispatchLeaseSkipped()
		return summary, false, nil
	}
	if err != nil {
		r.metrics.RecordError()
		return summary, false, err
	}
	defer func() {
		if _, relErr := r.lease.Release(token); relErr != nil {
			logger.Warn("failed to release dispatch lease", "error", relErr)
		}
	}()

	start := time.Now()
	summary, err = r.cycle.RunOnce(ctx, r.now())
	if err != nil {
		r.metrics.RecordError()
		return summary, true, err
	}
	r.metrics.RecordCycle(summary, time.Since(start))
	return summary, true, nil
}

func (r *Runner) metricsReporter() {
	defer r.wg.Done()

	ticker := time.NewTicker(MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reportMetrics()
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Runner) reportMetrics() {
	stats := r.metrics.GetStats()
	logger.Info("Dispatch metrics",
		"cycles", stats["cycles"],
		"lease_skipped", stats["lease_skipped"],
		"cycle_errors", stats["cycle_errors"],
		"total_sent", stats["total_sent"],
		"total_failed", stats["total_failed"],
		"total_exhausted", stats["total_exhausted"],
		"total_reaped", stats["total_reaped"],
		"avg_cycle_ms", stats["avg_cycle_ms"],
		"uptime_seconds", stats["uptime_seconds"])
}

// Stop cancels the running cycle and waits for the loop to exit.
func (r *Runner) Stop() {
	logger.Info("Shutting down dispatch runner...")
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ShutdownTimeout):
		logger.Warn("Timeout waiting for dispatch runner to stop")
	}

	r.reportMetrics()
	logger.Info("Dispatch runner stopped")
}
