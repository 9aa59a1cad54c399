package growth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/fptree"
	"github.com/shruggr/fpgrowth/internal/oracle"
	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/miner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newOrchestrator(t *testing.T, minSupport, workers int) *Orchestrator {
	t.Helper()
	o, err := New(Config{MinSupport: minSupport, Workers: workers, Logger: quietLogger})
	require.NoError(t, err)
	return o
}

func aggregateOf(t *testing.T, txs ...[]itemset.Item) *aggregate.Multiset {
	t.Helper()
	m, err := aggregate.Aggregate(txs)
	require.NoError(t, err)
	return m
}

func expectResult(t *testing.T, got itemset.Result, want map[string]int) {
	t.Helper()
	rendered := make(map[string]int, len(got))
	for _, p := range got {
		rendered[p.Items.String()] = p.Support
	}
	assert.Equal(t, want, rendered)
}

func TestRunGoldenScenario(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"b", "c", "d"},
		[]itemset.Item{"a", "b", "c", "d"},
		[]itemset.Item{"a", "b", "d"},
		[]itemset.Item{"b"},
	)

	got, err := newOrchestrator(t, 3, 2).Run(context.Background(), data)
	require.NoError(t, err)

	expectResult(t, got, map[string]int{
		"{b}":   5,
		"{a}":   3,
		"{d}":   3,
		"{a,b}": 3,
		"{b,d}": 3,
	})
	_, ok := got.Support("c")
	assert.False(t, ok, "{c} has support 2")
}

func TestRunBasketScenario(t *testing.T) {
	// c occurs in three baskets here, so {c} and {b,c} reach the threshold
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"b", "c", "d"},
		[]itemset.Item{"a", "b", "c", "d"},
		[]itemset.Item{"a", "b", "d"},
		[]itemset.Item{"b", "c"},
	)

	got, err := newOrchestrator(t, 3, 4).Run(context.Background(), data)
	require.NoError(t, err)

	expectResult(t, got, map[string]int{
		"{b}":   5,
		"{a}":   3,
		"{c}":   3,
		"{d}":   3,
		"{a,b}": 3,
		"{b,c}": 3,
		"{b,d}": 3,
	})
}

func TestRunThresholdAboveEveryItemIsEmpty(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"b"},
	)

	got, err := newOrchestrator(t, 3, 2).Run(context.Background(), data)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRunRepeatedTransactionYieldsAllSubsets(t *testing.T) {
	const n = 6
	data := aggregate.New()
	for i := 0; i < n; i++ {
		require.NoError(t, data.Add([]itemset.Item{"w", "x", "y", "z", "v"}, 1))
	}

	got, err := newOrchestrator(t, n, 3).Run(context.Background(), data)
	require.NoError(t, err)

	assert.Len(t, got, 31)
	for _, p := range got {
		assert.Equal(t, n, p.Support, "%s", p.Items)
	}
}

func TestRunAggregationIsIdempotent(t *testing.T) {
	repeated := aggregate.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, repeated.Add([]itemset.Item{"a", "b", "c"}, 1))
	}
	require.NoError(t, repeated.Add([]itemset.Item{"a", "d"}, 1))

	weighted := aggregate.New()
	require.NoError(t, weighted.Add([]itemset.Item{"c", "a", "b"}, 5))
	require.NoError(t, weighted.Add([]itemset.Item{"d", "a"}, 1))

	o := newOrchestrator(t, 2, 2)
	first, err := o.Run(context.Background(), repeated)
	require.NoError(t, err)
	second, err := o.Run(context.Background(), weighted)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestRunMatchesOracleOnRandomData(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 25; round++ {
		data := randomData(t, rng, 40, 9, 6)
		minSupport := 1 + rng.Intn(6)

		want, err := oracle.Mine(data, minSupport)
		require.NoError(t, err)

		got, err := newOrchestrator(t, minSupport, 1+rng.Intn(8)).Run(context.Background(), data)
		require.NoError(t, err, "round %d", round)

		require.True(t, want.Equal(got), "round %d min support %d", round, minSupport)

		for _, p := range got {
			assert.GreaterOrEqual(t, p.Support, minSupport)
			assert.Equal(t, oracle.Support(data, p.Items), p.Support, "support of %s", p.Items)
		}
	}
}

func TestRunDownwardClosure(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := randomData(t, rng, 60, 8, 6)

	got, err := newOrchestrator(t, 4, 3).Run(context.Background(), data)
	require.NoError(t, err)

	for _, p := range got {
		if len(p.Items) < 2 {
			continue
		}
		for _, item := range p.Items {
			sub := make(itemset.Itemset, 0, len(p.Items)-1)
			for _, other := range p.Items {
				if other != item {
					sub = append(sub, other)
				}
			}
			support, ok := got.Support(sub...)
			require.True(t, ok, "%s present but %s missing", p.Items, sub)
			assert.GreaterOrEqual(t, support, p.Support)
		}
	}
}

func TestRunIsDeterministicAcrossWorkerCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(1234))
	data := randomData(t, rng, 200, 12, 7)

	var baseline itemset.Result
	for _, workers := range []int{1, 2, 3, 8, 32} {
		for attempt := 0; attempt < 3; attempt++ {
			got, err := newOrchestrator(t, 5, workers).Run(context.Background(), data)
			require.NoError(t, err)
			if baseline == nil {
				baseline = got
				continue
			}
			require.True(t, baseline.Equal(got), "workers %d attempt %d", workers, attempt)
		}
	}
	assert.NotEmpty(t, baseline)
}

func TestRunWithStats(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b", "c"},
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"a"},
	)

	got, stats, err := newOrchestrator(t, 2, 2).RunWithStats(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Items)
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, 2, stats.TreeNodes)
	assert.Equal(t, len(got), stats.Itemsets)
	assert.Equal(t, 2, stats.MaxDepth)
}

func TestRunClampsWorkersToItems(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"a"},
	)

	got, stats, err := newOrchestrator(t, 1, math.MaxInt).RunWithStats(context.Background(), data)
	require.NoError(t, err)

	expectResult(t, got, map[string]int{
		"{a}":   2,
		"{b}":   1,
		"{a,b}": 1,
	})
	assert.Equal(t, 2, stats.Workers)
}

func TestBranchFailureFailsRun(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"a", "c"},
		[]itemset.Item{"b", "c"},
	)
	boom := errors.New("boom")

	o := newOrchestrator(t, 1, 2)
	o.branch = func(ctx context.Context, tree *fptree.Tree, item itemset.Item) (itemset.Result, miner.Stats, error) {
		if item == "b" {
			return nil, miner.Stats{}, boom
		}
		return o.mineItem(ctx, tree, item)
	}

	got, err := o.Run(context.Background(), data)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var branchErr *BranchError
	require.True(t, errors.As(err, &branchErr))
	assert.Equal(t, itemset.Item("b"), branchErr.Item)
}

func TestBranchPanicBecomesError(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"a"},
	)

	o := newOrchestrator(t, 1, 2)
	o.branch = func(ctx context.Context, tree *fptree.Tree, item itemset.Item) (itemset.Result, miner.Stats, error) {
		if item == "a" {
			panic("corrupt tree")
		}
		return o.mineItem(ctx, tree, item)
	}

	_, err := o.Run(context.Background(), data)
	require.Error(t, err)

	var branchErr *BranchError
	require.True(t, errors.As(err, &branchErr))
	assert.Equal(t, itemset.Item("a"), branchErr.Item)
	assert.Contains(t, err.Error(), "corrupt tree")
}

func TestMergeCollisionIsInvariantViolation(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"a", "c"},
		[]itemset.Item{"b", "c"},
	)

	o := newOrchestrator(t, 1, 1)
	o.branch = func(ctx context.Context, tree *fptree.Tree, item itemset.Item) (itemset.Result, miner.Stats, error) {
		r := itemset.NewResult()
		if err := r.Add(itemset.Pattern{Items: itemset.MustNew("shared"), Support: 1}); err != nil {
			return nil, miner.Stats{}, err
		}
		return r, miner.Stats{}, nil
	}

	got, err := o.Run(context.Background(), data)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))
	assert.True(t, errors.Is(err, itemset.ErrDuplicatePattern))
}

func TestRunHonoursCanceledContext(t *testing.T) {
	data := aggregateOf(t,
		[]itemset.Item{"a", "b"},
		[]itemset.Item{"a", "c"},
	)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	o := newOrchestrator(t, 1, 1)
	o.branch = func(bctx context.Context, tree *fptree.Tree, item itemset.Item) (itemset.Result, miner.Stats, error) {
		calls.Add(1)
		cancel()
		return o.mineItem(bctx, tree, item)
	}

	got, err := o.Run(ctx, data)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.LessOrEqual(t, calls.Load(), int32(3))
}

func TestNewValidatesConfig(t *testing.T) {
	for _, minSupport := range []int{0, -1} {
		_, err := New(Config{MinSupport: minSupport})
		assert.True(t, errors.Is(err, ErrInvalidMinSupport))
	}

	o, err := New(Config{MinSupport: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers(), o.Workers())
	assert.Equal(t, 1, o.MinSupport())
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}

func TestAbsoluteSupport(t *testing.T) {
	tests := []struct {
		fraction float64
		total    int
		want     int
	}{
		{0.6, 5, 3},
		{0.5, 5, 3},
		{1, 10, 10},
		{0.01, 10, 1},
		{0.3, 0, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v of %d", tt.fraction, tt.total), func(t *testing.T) {
			got, err := AbsoluteSupport(tt.fraction, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []float64{0, -0.5, 1.5} {
		_, err := AbsoluteSupport(bad, 10)
		assert.True(t, errors.Is(err, ErrInvalidRelativeSupport), "fraction %v", bad)
	}
}

// randomData draws n baskets over an alphabet of the given size, at most width items each
func randomData(t *testing.T, rng *rand.Rand, n, alphabet, width int) *aggregate.Multiset {
	t.Helper()
	data := aggregate.New()
	for i := 0; i < n; i++ {
		size := 1 + rng.Intn(width)
		perm := rng.Perm(alphabet)[:size]
		items := make([]itemset.Item, size)
		for j, p := range perm {
			items[j] = itemset.Item(fmt.Sprintf("i%02d", p))
		}
		require.NoError(t, data.Add(items, 1+rng.Intn(2)))
	}
	return data
}
