package bench

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfbench/pf"
)

func newRunner(t *testing.T, buffers, pages uint32, policy pf.Policy, mix Workload, seed int64) *Runner {
	t.Helper()
	pool, err := pf.NewBufferPool(buffers, pf.NewSyntheticStore(), policy)
	require.NoError(t, err, "create pool")

	r := NewRunner(pool, mix, pages, seed)
	require.NoError(t, r.Preload(), "preload")
	return r
}

func TestParseMix(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		mix, err := ParseMix("8:2")
		require.NoError(t, err)
		assert.Equal(t, 8, mix.ReadWeight)
		assert.Equal(t, 2, mix.WriteWeight)
		assert.Equal(t, "8:2", mix.String())
	})

	t.Run("SlashSeparator", func(t *testing.T) {
		mix, err := ParseMix("7/3")
		require.NoError(t, err)
		assert.Equal(t, 7, mix.ReadWeight)
		assert.Equal(t, 3, mix.WriteWeight)
	})

	t.Run("ReadOnly", func(t *testing.T) {
		mix, err := ParseMix("10:0")
		require.NoError(t, err)
		assert.Equal(t, 0, mix.WriteWeight)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, arg := range []string{"", "8", "8:", ":2", "a:b", "-1:2", "0:0"} {
			_, err := ParseMix(arg)
			assert.Error(t, err, "mix %q should be rejected", arg)
		}
	})
}

func TestRunCountsOps(t *testing.T) {
	mix := Workload{ReadWeight: 8, WriteWeight: 2}
	r := newRunner(t, 8, 32, pf.PolicyLRU, mix, 42)

	res, err := r.Run(500)
	require.NoError(t, err)

	assert.Equal(t, uint64(500), res.Ops)
	assert.Equal(t, uint64(500), res.Stats.PageFixes, "one fix per op")
	assert.Equal(t, uint64(500), res.Stats.LogicalReads+res.Stats.LogicalWrites,
		"every op is exactly one logical access")
	assert.Equal(t, res.Stats.LogicalWrites, res.Stats.DirtyMarks,
		"every write op marks dirty exactly once")
	assert.Equal(t, "lru", res.Policy)
	assert.Equal(t, uint32(8), res.Buffers)
	assert.Equal(t, uint32(32), res.Pages)
}

func TestReadOnlyMixNeverMarksDirty(t *testing.T) {
	mix := Workload{ReadWeight: 10, WriteWeight: 0}
	r := newRunner(t, 4, 16, pf.PolicyLRU, mix, 7)

	res, err := r.Run(1000)
	require.NoError(t, err)

	assert.Zero(t, res.Stats.DirtyMarks, "read-only mix must never mark dirty")
	assert.Zero(t, res.Stats.LogicalWrites)
	assert.Equal(t, uint64(1000), res.Stats.LogicalReads)
}

func TestWriteOnlyMix(t *testing.T) {
	mix := Workload{ReadWeight: 0, WriteWeight: 10}
	r := newRunner(t, 4, 16, pf.PolicyMRU, mix, 7)

	res, err := r.Run(300)
	require.NoError(t, err)

	assert.Zero(t, res.Stats.LogicalReads)
	assert.Equal(t, uint64(300), res.Stats.LogicalWrites)
	assert.Equal(t, uint64(300), res.Stats.DirtyMarks)
	assert.Equal(t, "mru", res.Policy)
}

func TestRunDeterministicWithSeed(t *testing.T) {
	mix := Workload{ReadWeight: 6, WriteWeight: 4}

	first, err := newRunner(t, 8, 64, pf.PolicyLRU, mix, 1234).Run(2000)
	require.NoError(t, err)
	second, err := newRunner(t, 8, 64, pf.PolicyLRU, mix, 1234).Run(2000)
	require.NoError(t, err)

	assert.Equal(t, first.Stats, second.Stats, "same seed must replay the same workload")
}

func TestReusedPageFileDoesNotGrow(t *testing.T) {
	const pages = 16

	cfg := pf.DefaultConfig()
	cfg.Store = pf.StoreFile
	cfg.File = filepath.Join(t.TempDir(), "reuse.pf")
	mix := Workload{ReadWeight: 8, WriteWeight: 2}

	// Two full runs over the same page file path
	for run := 0; run < 2; run++ {
		store, err := cfg.OpenStore()
		require.NoError(t, err, "open store for run %d", run)

		pool, err := pf.NewBufferPool(8, store, pf.PolicyLRU)
		require.NoError(t, err)

		r := NewRunner(pool, mix, pages, 42)
		require.NoError(t, r.Preload(), "preload run %d", run)
		_, err = r.Run(200)
		require.NoError(t, err, "run %d", run)
		require.NoError(t, pool.Close())
	}

	// Preload allocated ids 0..pages-1 both times, so the file holds
	// exactly the working set
	info, err := os.Stat(cfg.File)
	require.NoError(t, err)
	assert.Equal(t, int64(pages*pf.PageSize), info.Size(),
		"page file must not grow across runs")
}

func TestSmallPoolFaultsMore(t *testing.T) {
	mix := Workload{ReadWeight: 10, WriteWeight: 0}

	small, err := newRunner(t, 2, 64, pf.PolicyLRU, mix, 99).Run(2000)
	require.NoError(t, err)
	large, err := newRunner(t, 64, 64, pf.PolicyLRU, mix, 99).Run(2000)
	require.NoError(t, err)

	assert.Greater(t, small.Stats.PhysicalReads, large.Stats.PhysicalReads,
		"a smaller pool should fault more on the same workload")
}

func TestResultRecord(t *testing.T) {
	res := &Result{
		Policy:      "lru",
		ReadWeight:  8,
		WriteWeight: 2,
		Buffers:     40,
		Pages:       200,
		Ops:         5000,
		Stats: pf.StatsSnapshot{
			LogicalReads:   4000,
			LogicalWrites:  1000,
			PhysicalReads:  900,
			PhysicalWrites: 350,
			PageFixes:      5000,
			DirtyMarks:     1000,
		},
		ElapsedMs: 12.3456,
	}

	record := res.Record()
	require.Len(t, record, len(csvHeader), "record must match header width")
	assert.Equal(t, []string{
		"lru", "8", "2", "40", "200", "5000",
		"4000", "1000", "900", "350", "5000", "1000",
		"12.346",
	}, record)
}

func TestWriteCSV(t *testing.T) {
	res := &Result{Policy: "mru", ReadWeight: 10, WriteWeight: 0, Buffers: 4, Pages: 8, Ops: 100}

	var buf bytes.Buffer
	require.NoError(t, res.WriteCSV(&buf, true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"policy,read_weight,write_weight,buffers,pages,ops,logical_reads,logical_writes,physical_reads,physical_writes,page_fixes,dirty_marks,elapsed_ms",
		lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "mru,10,0,4,8,100,"))

	// Without the header only the data row is written
	buf.Reset()
	require.NoError(t, res.WriteCSV(&buf, false))
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(buf.String()), "\n")+1)
}
