// Package bench drives synthetic page-touch workloads against the PF
// layer buffer pool and reports the run as a CSV record. It is a
// client of the Fix/Unfix contract like any other; all I/O accounting
// lives in the pool.
package bench

import (
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"pfbench/pf"
)

// Workload is an integer read:write weight ratio for the synthetic
// page-touch sequence
type Workload struct {
	ReadWeight  int
	WriteWeight int
}

// ParseMix parses a "R:W" (or "R/W") mix specification. Both weights
// must be non-negative and at least one positive.
func ParseMix(arg string) (Workload, error) {
	sep := strings.IndexAny(arg, ":/")
	if sep < 0 {
		return Workload{}, fmt.Errorf("invalid mix %q (expected R:W)", arg)
	}

	readWeight, err := strconv.Atoi(arg[:sep])
	if err != nil {
		return Workload{}, fmt.Errorf("invalid read weight in mix %q", arg)
	}
	writeWeight, err := strconv.Atoi(arg[sep+1:])
	if err != nil {
		return Workload{}, fmt.Errorf("invalid write weight in mix %q", arg)
	}

	if readWeight < 0 || writeWeight < 0 {
		return Workload{}, fmt.Errorf("mix weights must be non-negative, got %q", arg)
	}
	if readWeight+writeWeight == 0 {
		return Workload{}, fmt.Errorf("mix weights must not both be zero")
	}

	return Workload{ReadWeight: readWeight, WriteWeight: writeWeight}, nil
}

// String formats the workload back into R:W form
func (w Workload) String() string {
	return fmt.Sprintf("%d:%d", w.ReadWeight, w.WriteWeight)
}

// Runner replays a random page-touch workload against one buffer pool
type Runner struct {
	pool  *pf.BufferPool
	mix   Workload
	pages uint32
	rng   *rand.Rand
}

// NewRunner creates a runner over the given pool. A zero seed derives
// one from the clock, matching the benchmark's default behavior.
func NewRunner(pool *pf.BufferPool, mix Workload, pages uint32, seed int64) *Runner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Runner{
		pool:  pool,
		mix:   mix,
		pages: pages,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Preload allocates and initializes the working set of pages through
// the pool, so the timed loop starts from a fully populated store.
// Each page is stamped with its index and unfixed dirty.
func (r *Runner) Preload() error {
	for i := uint32(0); i < r.pages; i++ {
		h, err := r.pool.AllocPage()
		if err != nil {
			return fmt.Errorf("preload of page %d failed: %w", i, err)
		}
		clear(h.Data)
		binary.LittleEndian.PutUint32(h.Data, i)
		if err := r.pool.Unfix(h.PageID, true); err != nil {
			return fmt.Errorf("preload unfix of page %d failed: %w", i, err)
		}
	}
	return nil
}

// Run executes ops Fix/Unfix pairs against random pages at the
// configured read:write ratio and returns the finished Result. Stats
// are reset before the loop so counters cover the measured ops only;
// elapsed time covers the ops loop only, excluding setup and teardown.
func (r *Runner) Run(ops uint64) (*Result, error) {
	total := r.mix.ReadWeight + r.mix.WriteWeight

	r.pool.Stats().Reset()
	start := time.Now()

	for i := uint64(0); i < ops; i++ {
		isWrite := r.rng.Intn(total) >= r.mix.ReadWeight
		pageID := uint32(r.rng.Intn(int(r.pages)))

		intent := pf.AccessRead
		if isWrite {
			intent = pf.AccessWrite
		}

		h, err := r.pool.Fix(pageID, intent)
		if err != nil {
			return nil, fmt.Errorf("fix of page %d failed: %w", pageID, err)
		}

		if isWrite {
			binary.LittleEndian.PutUint32(h.Data, uint32(i))
		} else {
			_ = binary.LittleEndian.Uint32(h.Data)
		}

		if err := r.pool.Unfix(pageID, isWrite); err != nil {
			return nil, fmt.Errorf("unfix of page %d failed: %w", pageID, err)
		}
	}

	elapsed := time.Since(start)

	return &Result{
		Policy:      string(r.pool.Policy()),
		ReadWeight:  r.mix.ReadWeight,
		WriteWeight: r.mix.WriteWeight,
		Buffers:     r.pool.Capacity(),
		Pages:       r.pages,
		Ops:         ops,
		Stats:       r.pool.Stats().Snapshot(),
		ElapsedMs:   float64(elapsed.Nanoseconds()) / 1e6,
	}, nil
}

// csvHeader is the machine-readable output contract consumed by the
// external plotting layer. Field names and order must not change
// without versioning.
var csvHeader = []string{
	"policy",
	"read_weight",
	"write_weight",
	"buffers",
	"pages",
	"ops",
	"logical_reads",
	"logical_writes",
	"physical_reads",
	"physical_writes",
	"page_fixes",
	"dirty_marks",
	"elapsed_ms",
}

// Result is one benchmark run, reportable as a single CSV record
type Result struct {
	Policy      string
	ReadWeight  int
	WriteWeight int
	Buffers     uint32
	Pages       uint32
	Ops         uint64
	Stats       pf.StatsSnapshot
	ElapsedMs   float64
}

// Record returns the run as CSV fields in contract order
func (res *Result) Record() []string {
	return []string{
		res.Policy,
		strconv.Itoa(res.ReadWeight),
		strconv.Itoa(res.WriteWeight),
		strconv.FormatUint(uint64(res.Buffers), 10),
		strconv.FormatUint(uint64(res.Pages), 10),
		strconv.FormatUint(res.Ops, 10),
		strconv.FormatUint(res.Stats.LogicalReads, 10),
		strconv.FormatUint(res.Stats.LogicalWrites, 10),
		strconv.FormatUint(res.Stats.PhysicalReads, 10),
		strconv.FormatUint(res.Stats.PhysicalWrites, 10),
		strconv.FormatUint(res.Stats.PageFixes, 10),
		strconv.FormatUint(res.Stats.DirtyMarks, 10),
		strconv.FormatFloat(res.ElapsedMs, 'f', 3, 64),
	}
}

// WriteCSV writes the run to w, optionally preceded by the header row
func (res *Result) WriteCSV(w io.Writer, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := cw.Write(res.Record()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
