// Package growth runs FP-growth in parallel by fanning the independent
// top-level item branches out over a bounded pool of goroutines.
//
// The top-level tree is built once and shared read-only by every branch.
// Each branch mines its item sequentially with a private miner.Miner and
// hands its result to a single collector goroutine, which is the only
// writer of the merged result. Branches are disjoint by construction, so a
// key collision during the merge is reported as ErrInvariantViolation.
package growth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/fptree"
	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/miner"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidMinSupport is returned for a non-positive support threshold
	ErrInvalidMinSupport = errors.New("min support must be positive")

	// ErrInvalidRelativeSupport is returned for a support fraction outside (0, 1]
	ErrInvalidRelativeSupport = errors.New("relative support must be in (0, 1]")

	// ErrInvariantViolation is returned when two branches emit the same itemset
	ErrInvariantViolation = errors.New("invariant violation")
)

// BranchError reports the failure of one top-level branch
type BranchError struct {
	Item itemset.Item
	Err  error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("branch %q failed: %v", e.Item, e.Err)
}

func (e *BranchError) Unwrap() error {
	return e.Err
}

// Config configures an Orchestrator
type Config struct {
	MinSupport int          // Absolute support threshold, must be positive
	Workers    int          // Concurrent branches; <= 0 means DefaultWorkers()
	Logger     *slog.Logger // Defaults to slog.Default()
}

// Stats summarises a run
type Stats struct {
	Items            int // frequent top-level items, one branch each
	Workers          int
	TreeNodes        int // nodes in the top-level tree
	ConditionalTrees int
	MaxDepth         int
	Itemsets         int
	Duration         time.Duration
}

// DefaultWorkers returns half the available CPUs, at least one
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	return n
}

// AbsoluteSupport converts a support fraction into a transaction count
func AbsoluteSupport(fraction float64, total int) (int, error) {
	if math.IsNaN(fraction) || fraction <= 0 || fraction > 1 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRelativeSupport, fraction)
	}
	// Epsilon absorbs float error such as 0.6*5 = 3.0000000000000004
	n := int(math.Ceil(fraction*float64(total) - 1e-9))
	if n < 1 {
		n = 1
	}
	return n, nil
}

type branchFunc func(ctx context.Context, tree *fptree.Tree, item itemset.Item) (itemset.Result, miner.Stats, error)

type branchResult struct {
	item   itemset.Item
	result itemset.Result
	stats  miner.Stats
}

// Orchestrator mines transaction sets with a bounded number of parallel branches
type Orchestrator struct {
	config Config
	logger *slog.Logger
	tracer trace.Tracer
	branch branchFunc
}

// New creates an orchestrator
func New(config Config) (*Orchestrator, error) {
	if config.MinSupport <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMinSupport, config.MinSupport)
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		config: config,
		logger: logger,
		tracer: otel.Tracer("github.com/shruggr/fpgrowth/growth"),
	}
	o.branch = o.mineItem
	return o, nil
}

// Workers returns the effective degree of parallelism
func (o *Orchestrator) Workers() int {
	return o.config.Workers
}

// MinSupport returns the configured threshold
func (o *Orchestrator) MinSupport() int {
	return o.config.MinSupport
}

// Run mines every itemset of data reaching the support threshold
// On any failure no partial result is returned
func (o *Orchestrator) Run(ctx context.Context, data *aggregate.Multiset) (itemset.Result, error) {
	result, _, err := o.RunWithStats(ctx, data)
	return result, err
}

// RunWithStats is like Run and also reports what the run did
func (o *Orchestrator) RunWithStats(ctx context.Context, data *aggregate.Multiset) (itemset.Result, Stats, error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "growth.Run", trace.WithAttributes(
		attribute.Int("min_support", o.config.MinSupport),
		attribute.Int("workers", o.config.Workers),
		attribute.Int("transactions", data.Total()),
	))
	defer span.End()

	result, stats, err := o.run(ctx, data)
	stats.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		runDuration.WithLabelValues("failed").Observe(stats.Duration.Seconds())
		o.logger.Error("Mining run failed", "error", err, "duration", stats.Duration)
		return nil, stats, err
	}

	stats.Itemsets = len(result)
	span.SetAttributes(
		attribute.Int("itemsets", stats.Itemsets),
		attribute.Int("branch_workers", stats.Workers),
	)
	runDuration.WithLabelValues("completed").Observe(stats.Duration.Seconds())
	itemsetsMined.Add(float64(stats.Itemsets))
	o.logger.Info("Mining run completed",
		"items", stats.Items,
		"itemsets", stats.Itemsets,
		"workers", stats.Workers,
		"duration", stats.Duration)

	return result, stats, nil
}

func (o *Orchestrator) run(ctx context.Context, data *aggregate.Multiset) (itemset.Result, Stats, error) {
	// Step 1: Top-level tree, read-only from here on
	tree := fptree.Build(data, o.config.MinSupport)
	items := tree.Header().Items()

	stats := Stats{
		Items:     len(items),
		TreeNodes: tree.Size(),
	}
	o.logger.Debug("Built top-level tree", "items", stats.Items, "nodes", stats.TreeNodes)

	if len(items) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		return itemset.NewResult(), stats, nil
	}

	// No more branches than items can ever be in flight
	workers := min(o.config.Workers, len(items))
	stats.Workers = workers

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(workers)

	// Step 2: Single collector owns the merged result
	results := make(chan branchResult, workers)
	merged := itemset.NewResult()
	var mergeErr error
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for br := range results {
			if mergeErr != nil {
				continue
			}
			if err := merged.Merge(br.result); err != nil {
				mergeErr = fmt.Errorf("%w: merging branch %q: %w", ErrInvariantViolation, br.item, err)
				cancel()
				continue
			}
			stats.ConditionalTrees += br.stats.ConditionalTrees
			if br.stats.MaxDepth > stats.MaxDepth {
				stats.MaxDepth = br.stats.MaxDepth
			}
		}
	}()

	// Step 3: One task per frequent item
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			result, branchStats, err := o.guardedBranch(gctx, tree, item)
			if err != nil {
				return &BranchError{Item: item, Err: err}
			}
			select {
			case results <- branchResult{item: item, result: result, stats: branchStats}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	// Step 4: Wait for every branch, then for the collector
	waitErr := g.Wait()
	close(results)
	<-collected

	if mergeErr != nil {
		return nil, stats, mergeErr
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if waitErr != nil {
		return nil, stats, waitErr
	}
	return merged, stats, nil
}

// guardedBranch runs one branch, turning panics into errors and recording metrics
func (o *Orchestrator) guardedBranch(ctx context.Context, tree *fptree.Tree, item itemset.Item) (result itemset.Result, stats miner.Stats, err error) {
	ctx, span := o.tracer.Start(ctx, "growth.branch", trace.WithAttributes(
		attribute.String("item", string(item)),
	))
	defer span.End()

	start := time.Now()
	activeBranches.Inc()
	defer func() {
		activeBranches.Dec()
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		branchDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			result = nil
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				branchFailures.Inc()
				o.logger.Error("Branch failed", "item", item, "error", err)
			}
			return
		}
		span.SetAttributes(attribute.Int("itemsets", len(result)))
		o.logger.Debug("Branch mined", "item", item, "itemsets", len(result), "duration", time.Since(start))
	}()

	return o.branch(ctx, tree, item)
}

// mineItem is the production branch: the item's subtree mined sequentially
func (o *Orchestrator) mineItem(ctx context.Context, tree *fptree.Tree, item itemset.Item) (itemset.Result, miner.Stats, error) {
	m := miner.New(o.config.MinSupport)
	result, err := m.MineOne(ctx, tree, item, nil)
	return result, m.Stats(), err
}
