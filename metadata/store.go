package metadata

import (
	"context"
	"time"

	"github.com/shruggr/fpgrowth/multihash"
)

// RunStatus is the outcome of a mining run
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// RunMeta records one mining run
// The mined itemsets themselves live in the snapshot store under ResultHash
type RunMeta struct {
	ID            string
	DatasetDigest [32]byte // aggregate.Multiset digest of the input
	Transactions  int      // total transaction count, duplicates included
	Distinct      int      // distinct transactions after aggregation
	MinSupport    int      // absolute threshold actually used
	Workers       int
	Itemsets      int
	ResultHash    multihash.ResultHash // nil for failed runs
	Cached        bool                 // served without mining
	Status        RunStatus
	Error         string
	StartedAt     time.Time
	Duration      time.Duration
}

// Store defines the interface for storing run metadata
// Implementations use SQLite or other relational databases
type Store interface {
	// PutRun stores run metadata, replacing any run with the same ID
	PutRun(ctx context.Context, meta *RunMeta) error

	// GetRun retrieves a run by ID
	// Returns nil if the run doesn't exist
	GetRun(ctx context.Context, id string) (*RunMeta, error)

	// ListRuns returns the most recent runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*RunMeta, error)

	// LatestCompleted returns the newest completed run over the same dataset and threshold
	// Returns nil if there is none
	LatestCompleted(ctx context.Context, dataset [32]byte, minSupport int) (*RunMeta, error)

	// Close releases any resources
	Close() error
}
