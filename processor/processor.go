package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/cache"
	"github.com/shruggr/fpgrowth/growth"
	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/metadata"
	"github.com/shruggr/fpgrowth/multihash"
	"github.com/shruggr/fpgrowth/snapshot"
	"github.com/shruggr/fpgrowth/source"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidJob is returned when a job's support settings are missing or contradictory
var ErrInvalidJob = errors.New("invalid job")

// Config wires a Processor to its stores
// Every store is optional; a nil store turns its step off
type Config struct {
	Snapshots  snapshot.Store
	Cache      cache.ResultCache
	Runs       metadata.Store
	Workers    int // Default for jobs that leave Workers at zero
	MaxWorkers int // Upper bound on Job.Workers; <= 0 means max(NumCPU, Workers)
	Logger     *slog.Logger
}

// Job describes one mining request
// Exactly one of MinSupport and RelativeSupport must be set
type Job struct {
	Source          source.Source
	MinSupport      int     // Absolute transaction count
	RelativeSupport float64 // Fraction of all transactions, in (0, 1]
	Workers         int
}

// Report is the outcome of a processed job
type Report struct {
	RunID        string
	Result       itemset.Result // read-only when Cached
	ResultHash   multihash.ResultHash
	Cached       bool
	MinSupport   int
	Transactions int
	Stats        growth.Stats
}

// Processor runs the mining pipeline: load, aggregate, mine, persist
type Processor struct {
	config Config
	logger *slog.Logger
	tracer trace.Tracer
}

// NewProcessor creates a new mining pipeline
func NewProcessor(config Config) *Processor {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = max(runtime.NumCPU(), config.Workers)
	}
	return &Processor{
		config: config,
		logger: logger,
		tracer: otel.Tracer("github.com/shruggr/fpgrowth/processor"),
	}
}

// Process runs a job end to end
// Failed runs are recorded in the run store as well
func (p *Processor) Process(ctx context.Context, job Job) (*Report, error) {
	runID := uuid.NewString()
	started := time.Now()

	ctx, span := p.tracer.Start(ctx, "processor.Process", trace.WithAttributes(
		attribute.String("run_id", runID),
	))
	defer span.End()

	logger := p.logger.With("run_id", runID)
	meta := &metadata.RunMeta{
		ID:        runID,
		Workers:   job.Workers,
		StartedAt: started,
	}
	if meta.Workers <= 0 {
		meta.Workers = p.config.Workers
	}

	report, err := p.process(ctx, job, meta, logger)
	meta.Duration = time.Since(started)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		meta.Status = metadata.StatusFailed
		meta.Error = err.Error()
		p.record(ctx, meta, logger)
		return nil, err
	}

	report.RunID = runID
	meta.Status = metadata.StatusCompleted
	meta.Itemsets = len(report.Result)
	meta.ResultHash = report.ResultHash
	meta.Cached = report.Cached
	p.record(ctx, meta, logger)

	span.SetAttributes(
		attribute.Int("itemsets", meta.Itemsets),
		attribute.Bool("cached", report.Cached),
	)
	logger.Info("Job processed",
		"source", job.Source.Name(),
		"transactions", meta.Transactions,
		"min_support", meta.MinSupport,
		"itemsets", meta.Itemsets,
		"cached", report.Cached,
		"duration", meta.Duration)

	return report, nil
}

func (p *Processor) process(ctx context.Context, job Job, meta *metadata.RunMeta, logger *slog.Logger) (*Report, error) {
	if job.Source == nil {
		return nil, fmt.Errorf("%w: no source", ErrInvalidJob)
	}
	if job.MinSupport != 0 && job.RelativeSupport != 0 {
		return nil, fmt.Errorf("%w: min support and relative support are mutually exclusive", ErrInvalidJob)
	}
	if job.MinSupport == 0 && job.RelativeSupport == 0 {
		return nil, fmt.Errorf("%w: min support or relative support is required", ErrInvalidJob)
	}
	if job.Workers < 0 || job.Workers > p.config.MaxWorkers {
		return nil, fmt.Errorf("%w: workers must be in [0, %d], got %d", ErrInvalidJob, p.config.MaxWorkers, job.Workers)
	}

	// Step 1: Load and aggregate
	data, err := source.Load(ctx, job.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", job.Source.Name(), err)
	}
	meta.DatasetDigest = data.Digest()
	meta.Transactions = data.Total()
	meta.Distinct = data.Len()

	// Step 2: Resolve the absolute threshold
	minSupport := job.MinSupport
	if job.RelativeSupport != 0 {
		minSupport, err = growth.AbsoluteSupport(job.RelativeSupport, data.Total())
		if err != nil {
			return nil, err
		}
	}
	meta.MinSupport = minSupport

	report := &Report{
		MinSupport:   minSupport,
		Transactions: data.Total(),
	}

	// Step 3: Reuse an earlier result for the same input
	key := cache.Key{Dataset: meta.DatasetDigest, MinSupport: minSupport}
	if entry, ok := p.lookup(ctx, key, logger); ok {
		report.Result = entry.Result
		report.ResultHash = entry.Hash
		report.Cached = true
		return report, nil
	}

	// Step 4: Mine
	result, stats, err := p.mine(ctx, data, minSupport, meta.Workers)
	if err != nil {
		return nil, err
	}
	meta.Workers = stats.Workers
	report.Result = result
	report.Stats = stats

	// Step 5: Persist
	if p.config.Snapshots != nil {
		hash, err := p.config.Snapshots.Save(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
		report.ResultHash = hash
	}

	if p.config.Cache != nil {
		if err := p.config.Cache.Put(key, cache.Entry{Hash: report.ResultHash, Result: result}); err != nil {
			logger.Warn("Failed to cache result", "error", err)
		}
	}

	return report, nil
}

func (p *Processor) mine(ctx context.Context, data *aggregate.Multiset, minSupport, workers int) (itemset.Result, growth.Stats, error) {
	o, err := growth.New(growth.Config{
		MinSupport: minSupport,
		Workers:    workers,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, growth.Stats{}, err
	}
	return o.RunWithStats(ctx, data)
}

// lookup checks the in-memory cache, then falls back to the newest completed run's snapshot
func (p *Processor) lookup(ctx context.Context, key cache.Key, logger *slog.Logger) (cache.Entry, bool) {
	if p.config.Cache != nil {
		if entry, ok := p.config.Cache.Get(key); ok {
			logger.Debug("Result cache hit", "min_support", key.MinSupport)
			return entry, true
		}
	}

	if p.config.Runs == nil || p.config.Snapshots == nil {
		return cache.Entry{}, false
	}

	prior, err := p.config.Runs.LatestCompleted(ctx, key.Dataset, key.MinSupport)
	if err != nil {
		logger.Warn("Failed to look up previous runs", "error", err)
		return cache.Entry{}, false
	}
	if prior == nil {
		return cache.Entry{}, false
	}

	result, err := p.config.Snapshots.Load(ctx, prior.ResultHash)
	if err != nil {
		// Fall through to mining; a missing or corrupt snapshot is replaced by the new run
		logger.Warn("Failed to load previous snapshot", "run", prior.ID, "hash", prior.ResultHash.Hex(), "error", err)
		return cache.Entry{}, false
	}

	entry := cache.Entry{Hash: prior.ResultHash, Result: result}
	if p.config.Cache != nil {
		if err := p.config.Cache.Put(key, entry); err != nil {
			logger.Warn("Failed to cache result", "error", err)
		}
	}
	logger.Debug("Reusing snapshot of previous run", "run", prior.ID)
	return entry, true
}

func (p *Processor) record(ctx context.Context, meta *metadata.RunMeta, logger *slog.Logger) {
	if p.config.Runs == nil {
		return
	}
	// A canceled job is still recorded
	if err := p.config.Runs.PutRun(context.WithoutCancel(ctx), meta); err != nil {
		logger.Error("Failed to record run", "error", err)
	}
}

// Snapshot loads a stored result by hash
func (p *Processor) Snapshot(ctx context.Context, hash multihash.ResultHash) (itemset.Result, error) {
	if p.config.Snapshots == nil {
		return nil, snapshot.ErrNotFound
	}
	return p.config.Snapshots.Load(ctx, hash)
}

// Run returns the metadata of a recorded run, nil if unknown
func (p *Processor) Run(ctx context.Context, id string) (*metadata.RunMeta, error) {
	if p.config.Runs == nil {
		return nil, nil
	}
	return p.config.Runs.GetRun(ctx, id)
}

// Runs lists recent runs, newest first
func (p *Processor) Runs(ctx context.Context, limit int) ([]*metadata.RunMeta, error) {
	if p.config.Runs == nil {
		return nil, nil
	}
	return p.config.Runs.ListRuns(ctx, limit)
}
