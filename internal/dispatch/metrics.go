package dispatch

import (
	"sync/atomic"
	"time"

	"github.com/nimasrn/admissions-inbox/internal/model"
)

// ServiceMetrics accumulates cycle results for the periodic log report.
type ServiceMetrics struct {
	cycles          int64
	leaseSkipped    int64
	cycleErrors     int64
	totalSent       int64
	totalFailed     int64
	totalExhausted  int64
	totalReaped     int64
	totalDurationNs int64
	lastResetNs     int64
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{
		lastResetNs: time.Now().UnixNano(),
	}
}

func (m *ServiceMetrics) RecordCycle(summary model.DispatchSummary, duration time.Duration) {
	atomic.AddInt64(&m.cycles, 1)
	atomic.AddInt64(&m.totalSent, int64(summary.Sent))
	atomic.AddInt64(&m.totalFailed, int64(summary.Failed))
	atomic.AddInt64(&m.totalExhausted, int64(summary.Exhausted))
	atomic.AddInt64(&m.totalReaped, int64(summary.Reaped))
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

func (m *ServiceMetrics) RecordError() {
	atomic.AddInt64(&m.cycleErrors, 1)
}

func (m *ServiceMetrics) RecordLeaseSkipped() {
	atomic.AddInt64(&m.leaseSkipped, 1)
}

func (m *ServiceMetrics) GetStats() map[string]interface{} {
	cycles := atomic.LoadInt64(&m.cycles)
	sent := atomic.LoadInt64(&m.totalSent)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	elapsed := time.Since(time.Unix(0, atomic.LoadInt64(&m.lastResetNs))).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(sent) / elapsed
	}

	avgCycle := time.Duration(0)
	if cycles > 0 {
		avgCycle = time.Duration(durationNs / cycles)
	}

	return map[string]interface{}{
		"cycles":          cycles,
		"lease_skipped":   atomic.LoadInt64(&m.leaseSkipped),
		"cycle_errors":    atomic.LoadInt64(&m.cycleErrors),
		"total_sent":      sent,
		"total_failed":    atomic.LoadInt64(&m.totalFailed),
		"total_exhausted": atomic.LoadInt64(&m.totalExhausted),
		"total_reaped":    atomic.LoadInt64(&m.totalReaped),
		"sent_per_second": rate,
		"avg_cycle_ms":    avgCycle.Milliseconds(),
		"uptime_seconds":  elapsed,
	}
}

func (m *ServiceMetrics) Reset() {
	atomic.StoreInt64(&m.cycles, 0)
	atomic.StoreInt64(&m.leaseSkipped, 0)
	atomic.StoreInt64(&m.cycleErrors, 0)
	atomic.StoreInt64(&m.totalSent, 0)
	atomic.StoreInt64(&m.totalFailed, 0)
	atomic.StoreInt64(&m.totalExhausted, 0)
	atomic.StoreInt64(&m.totalReaped, 0)
	atomic.StoreInt64(&m.totalDurationNs, 0)
	atomic.StoreInt64(&m.lastResetNs, time.Now().UnixNano())
}
