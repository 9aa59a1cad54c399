package processor

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/shruggr/fpgrowth/cache/memory"
	"github.com/shruggr/fpgrowth/growth"
	kvmemory "github.com/shruggr/fpgrowth/kvstore/memory"
	"github.com/shruggr/fpgrowth/metadata"
	"github.com/shruggr/fpgrowth/metadata/sqlite"
	"github.com/shruggr/fpgrowth/snapshot"
	"github.com/shruggr/fpgrowth/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	proc  *Processor
	kv    *kvmemory.Store
	cache *memory.Cache
	runs  *sqlite.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := kvmemory.New()
	c, err := memory.New(16)
	require.NoError(t, err)
	runs, err := sqlite.New(&sqlite.Config{DBPath: filepath.Join(t.TempDir(), "runs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })

	return &fixture{
		proc: NewProcessor(Config{
			Snapshots: snapshot.New(kv),
			Cache:     c,
			Runs:      runs,
			Workers:   2,
		}),
		kv:    kv,
		cache: c,
		runs:  runs,
	}
}

func baskets() source.Source {
	return source.FromStrings(
		[]string{"a", "b"},
		[]string{"b", "c", "d"},
		[]string{"a", "b", "c", "d"},
		[]string{"a", "b", "d"},
		[]string{"b"},
	)
}

func TestProcessMinesAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 3})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Cached)
	assert.Equal(t, 3, report.MinSupport)
	assert.Equal(t, 5, report.Transactions)
	assert.Len(t, report.Result, 5)
	require.NotNil(t, report.ResultHash)

	stored, err := f.proc.Snapshot(ctx, report.ResultHash)
	require.NoError(t, err)
	assert.True(t, stored.Equal(report.Result))

	run, err := f.proc.Run(ctx, report.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, metadata.StatusCompleted, run.Status)
	assert.Equal(t, 5, run.Itemsets)
	assert.Equal(t, 5, run.Distinct)
	assert.Equal(t, 2, run.Workers)
	assert.Equal(t, report.ResultHash.Hex(), run.ResultHash.Hex())
}

func TestProcessServesRepeatsFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 3})
	require.NoError(t, err)

	second, err := f.proc.Process(ctx, Job{Source: baskets(), RelativeSupport: 0.6})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.ResultHash.Hex(), second.ResultHash.Hex())
	assert.True(t, second.Result.Equal(first.Result))

	runs, err := f.proc.Runs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestProcessReusesSnapshotAfterCacheLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 2})
	require.NoError(t, err)
	require.NoError(t, f.cache.Clear())

	second, err := f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 2})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.True(t, second.Result.Equal(first.Result))
	assert.Equal(t, 1, f.cache.Len())
}

func TestProcessWithoutStores(t *testing.T) {
	proc := NewProcessor(Config{})

	report, err := proc.Process(context.Background(), Job{Source: baskets(), MinSupport: 3, Workers: 1})
	require.NoError(t, err)
	assert.Len(t, report.Result, 5)
	assert.Nil(t, report.ResultHash)

	run, err := proc.Run(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestProcessRejectsInvalidJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.Process(ctx, Job{Source: baskets()})
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 2, RelativeSupport: 0.5})
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.proc.Process(ctx, Job{MinSupport: 2})
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 2, Workers: -1})
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 2, Workers: math.MaxInt})
	assert.ErrorIs(t, err, ErrInvalidJob)

	_, err = f.proc.Process(ctx, Job{Source: baskets(), MinSupport: -1})
	assert.ErrorIs(t, err, growth.ErrInvalidMinSupport)

	_, err = f.proc.Process(ctx, Job{Source: baskets(), RelativeSupport: 1.5})
	assert.ErrorIs(t, err, growth.ErrInvalidRelativeSupport)
}

func TestProcessRecordsFailedRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.proc.Process(ctx, Job{Source: source.FromStrings([]string{"a", "a"}), MinSupport: 1})
	require.Error(t, err)

	runs, err := f.proc.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, metadata.StatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "duplicate item")
	assert.Nil(t, runs[0].ResultHash)
}

func TestProcessCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.proc.Process(ctx, Job{Source: baskets(), MinSupport: 1})
	require.ErrorIs(t, err, context.Canceled)

	runs, err := f.proc.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, metadata.StatusFailed, runs[0].Status)
}

func TestProcessCapsRequestedWorkers(t *testing.T) {
	proc := NewProcessor(Config{Workers: 1, MaxWorkers: 2})
	ctx := context.Background()

	report, err := proc.Process(ctx, Job{Source: baskets(), MinSupport: 3, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stats.Workers)

	_, err = proc.Process(ctx, Job{Source: baskets(), MinSupport: 3, Workers: 3})
	assert.ErrorIs(t, err, ErrInvalidJob)
}
