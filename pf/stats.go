package pf

import (
	"log/slog"
	"math"
	"sort"
	"sync/atomic"
	"time"
)

// Histogram tracks latency distribution with percentile support
type Histogram struct {
	samples []float64 // Latencies in microseconds
	maxSize int       // Maximum samples to retain
	sorted  bool      // Track if samples are sorted
}

// NewHistogram creates a new histogram with a max sample size
func NewHistogram(maxSize int) *Histogram {
	if maxSize <= 0 {
		maxSize = 10000 // Default: keep last 10k samples
	}
	return &Histogram{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
		sorted:  true,
	}
}

// Record adds a latency sample (in microseconds)
func (h *Histogram) Record(latencyUs float64) {
	// If at capacity, remove oldest sample (FIFO)
	if len(h.samples) >= h.maxSize {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}

	h.samples = append(h.samples, latencyUs)
	h.sorted = false
}

// Percentile calculates the given percentile (0-100)
func (h *Histogram) Percentile(p float64) float64 {
	if len(h.samples) == 0 {
		return 0
	}

	if !h.sorted {
		sort.Float64s(h.samples)
		h.sorted = true
	}

	rank := (p / 100.0) * float64(len(h.samples)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return h.samples[lower]
	}

	// Linear interpolation between lower and upper
	weight := rank - float64(lower)
	return h.samples[lower]*(1-weight) + h.samples[upper]*weight
}

// Mean calculates the average latency
func (h *Histogram) Mean() float64 {
	if len(h.samples) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range h.samples {
		sum += v
	}
	return sum / float64(len(h.samples))
}

// Count returns the number of samples
func (h *Histogram) Count() int {
	return len(h.samples)
}

// Reset clears all samples
func (h *Histogram) Reset() {
	h.samples = h.samples[:0]
	h.sorted = true
}

// HistogramSnapshot holds point-in-time percentile statistics
type HistogramSnapshot struct {
	Count int
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Snapshot captures current histogram statistics
func (h *Histogram) Snapshot() HistogramSnapshot {
	return HistogramSnapshot{
		Count: h.Count(),
		Mean:  h.Mean(),
		P50:   h.Percentile(50),
		P95:   h.Percentile(95),
		P99:   h.Percentile(99),
	}
}

// Stats tracks PF layer I/O counters for one benchmark run. The buffer
// pool is the sole writer; backing stores never count their own I/O so
// accounting stays centralized. Counters only ever increase; Reset is
// the one exception and marks the start of a new measurement window.
//
// Logical counters track Fix-level intents, physical counters track
// actual backing store transfers. Input/output counts mirror the
// physical counters and exist for parity with classic pager layers
// that report both.
type Stats struct {
	logicalReads   atomic.Uint64
	logicalWrites  atomic.Uint64
	physicalReads  atomic.Uint64
	physicalWrites atomic.Uint64
	inputCount     atomic.Uint64
	outputCount    atomic.Uint64
	pageFixes      atomic.Uint64
	dirtyMarks     atomic.Uint64

	// Latency histograms (microseconds), recorded by the pool on
	// physical I/O only
	faultLoadLatency *Histogram
	flushLatency     *Histogram

	startTime time.Time
}

// NewStats creates a stats recorder with all counters at zero
func NewStats() *Stats {
	return &Stats{
		faultLoadLatency: NewHistogram(10000),
		flushLatency:     NewHistogram(10000),
		startTime:        time.Now(),
	}
}

func (s *Stats) IncLogicalRead() {
	s.logicalReads.Add(1)
}

func (s *Stats) IncLogicalWrite() {
	s.logicalWrites.Add(1)
}

func (s *Stats) IncPhysicalRead() {
	s.physicalReads.Add(1)
	s.inputCount.Add(1)
}

func (s *Stats) IncPhysicalWrite() {
	s.physicalWrites.Add(1)
	s.outputCount.Add(1)
}

func (s *Stats) IncPageFix() {
	s.pageFixes.Add(1)
}

func (s *Stats) IncDirtyMark() {
	s.dirtyMarks.Add(1)
}

// RecordFaultLoadLatency records the latency of loading a page on a fault
func (s *Stats) RecordFaultLoadLatency(d time.Duration) {
	s.faultLoadLatency.Record(float64(d.Microseconds()))
}

// RecordFlushLatency records the latency of flushing a dirty page
func (s *Stats) RecordFlushLatency(d time.Duration) {
	s.flushLatency.Record(float64(d.Microseconds()))
}

// Getters

func (s *Stats) LogicalReads() uint64   { return s.logicalReads.Load() }
func (s *Stats) LogicalWrites() uint64  { return s.logicalWrites.Load() }
func (s *Stats) PhysicalReads() uint64  { return s.physicalReads.Load() }
func (s *Stats) PhysicalWrites() uint64 { return s.physicalWrites.Load() }
func (s *Stats) InputCount() uint64     { return s.inputCount.Load() }
func (s *Stats) OutputCount() uint64    { return s.outputCount.Load() }
func (s *Stats) PageFixes() uint64      { return s.pageFixes.Load() }
func (s *Stats) DirtyMarks() uint64     { return s.dirtyMarks.Load() }

// HitRate returns the fraction of page fixes served without a physical read
func (s *Stats) HitRate() float64 {
	fixes := s.pageFixes.Load()
	if fixes == 0 {
		return 0.0
	}
	misses := s.physicalReads.Load()
	if misses > fixes {
		return 0.0
	}
	return float64(fixes-misses) / float64(fixes)
}

// StatsSnapshot holds all counter values at one point in time
type StatsSnapshot struct {
	LogicalReads   uint64
	LogicalWrites  uint64
	PhysicalReads  uint64
	PhysicalWrites uint64
	InputCount     uint64
	OutputCount    uint64
	PageFixes      uint64
	DirtyMarks     uint64
}

// Snapshot captures all counters. Atomic per counter; consistent as a
// set under the single-writer discipline of the buffer pool.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		LogicalReads:   s.logicalReads.Load(),
		LogicalWrites:  s.logicalWrites.Load(),
		PhysicalReads:  s.physicalReads.Load(),
		PhysicalWrites: s.physicalWrites.Load(),
		InputCount:     s.inputCount.Load(),
		OutputCount:    s.outputCount.Load(),
		PageFixes:      s.pageFixes.Load(),
		DirtyMarks:     s.dirtyMarks.Load(),
	}
}

// LogStats logs all counters using structured logging
func (s *Stats) LogStats(logger *slog.Logger) {
	faultLoad := s.faultLoadLatency.Snapshot()
	flush := s.flushLatency.Snapshot()

	logger.Info("PF layer statistics",
		slog.Group("io",
			slog.Uint64("logical_reads", s.LogicalReads()),
			slog.Uint64("logical_writes", s.LogicalWrites()),
			slog.Uint64("physical_reads", s.PhysicalReads()),
			slog.Uint64("physical_writes", s.PhysicalWrites()),
			slog.Uint64("input_count", s.InputCount()),
			slog.Uint64("output_count", s.OutputCount()),
		),
		slog.Group("pool",
			slog.Uint64("page_fixes", s.PageFixes()),
			slog.Uint64("dirty_marks", s.DirtyMarks()),
			slog.Float64("hit_rate", s.HitRate()),
		),
		slog.Group("latency_us",
			slog.Group("fault_load",
				slog.Int("count", faultLoad.Count),
				slog.Float64("mean", faultLoad.Mean),
				slog.Float64("p50", faultLoad.P50),
				slog.Float64("p95", faultLoad.P95),
				slog.Float64("p99", faultLoad.P99),
			),
			slog.Group("flush",
				slog.Int("count", flush.Count),
				slog.Float64("mean", flush.Mean),
				slog.Float64("p95", flush.P95),
				slog.Float64("p99", flush.P99),
			),
		),
		slog.Duration("uptime", time.Since(s.startTime)),
	)
}

// Reset resets all counters, starting a new measurement window
func (s *Stats) Reset() {
	s.logicalReads.Store(0)
	s.logicalWrites.Store(0)
	s.physicalReads.Store(0)
	s.physicalWrites.Store(0)
	s.inputCount.Store(0)
	s.outputCount.Store(0)
	s.pageFixes.Store(0)
	s.dirtyMarks.Store(0)

	s.faultLoadLatency.Reset()
	s.flushLatency.Reset()

	s.startTime = time.Now()
}
