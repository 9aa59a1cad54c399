package api

import (
	"encoding/hex"
	"time"

	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/metadata"
)

// MineRequest is the body of POST /v1/mine
// Exactly one of MinSupport and RelativeSupport must be set
type MineRequest struct {
	Transactions    [][]string `json:"transactions"`
	MinSupport      int        `json:"min_support,omitempty"`
	RelativeSupport float64    `json:"relative_support,omitempty"`
	Workers         int        `json:"workers,omitempty"`
}

// Itemset is one frequent itemset in a response
type Itemset struct {
	Items   []string `json:"items"`
	Support int      `json:"support"`
}

// MineResponse is returned by POST /v1/mine
type MineResponse struct {
	RunID        string    `json:"run_id"`
	ResultHash   string    `json:"result_hash,omitempty"`
	Cached       bool      `json:"cached"`
	MinSupport   int       `json:"min_support"`
	Transactions int       `json:"transactions"`
	Itemsets     []Itemset `json:"itemsets"`
}

// SnapshotResponse is returned by GET /v1/snapshots/:hash
type SnapshotResponse struct {
	Hash     string    `json:"hash"`
	Itemsets []Itemset `json:"itemsets"`
}

// Run describes a recorded mining run
type Run struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	DatasetDigest string    `json:"dataset_digest"`
	Transactions  int       `json:"transactions"`
	Distinct      int       `json:"distinct"`
	MinSupport    int       `json:"min_support"`
	Workers       int       `json:"workers"`
	Itemsets      int       `json:"itemsets"`
	ResultHash    string    `json:"result_hash,omitempty"`
	Cached        bool      `json:"cached"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    float64   `json:"duration_ms"`
}

// ErrorResponse carries a failure message
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewItemsets renders a result in display order: support descending, then size, then items
func NewItemsets(r itemset.Result) []Itemset {
	sorted := r.Sorted()
	out := make([]Itemset, len(sorted))
	for i, p := range sorted {
		out[i] = Itemset{Items: p.Items.Strings(), Support: p.Support}
	}
	return out
}

// NewRun converts stored run metadata
func NewRun(m *metadata.RunMeta) Run {
	run := Run{
		ID:            m.ID,
		Status:        string(m.Status),
		Error:         m.Error,
		DatasetDigest: hex.EncodeToString(m.DatasetDigest[:]),
		Transactions:  m.Transactions,
		Distinct:      m.Distinct,
		MinSupport:    m.MinSupport,
		Workers:       m.Workers,
		Itemsets:      m.Itemsets,
		Cached:        m.Cached,
		StartedAt:     m.StartedAt.UTC(),
		DurationMS:    float64(m.Duration.Microseconds()) / 1000,
	}
	if len(m.ResultHash) > 0 {
		run.ResultHash = m.ResultHash.Hex()
	}
	return run
}

func toTransactions(in [][]string) [][]itemset.Item {
	out := make([][]itemset.Item, len(in))
	for i, tx := range in {
		out[i] = make([]itemset.Item, len(tx))
		for j, s := range tx {
			out[i][j] = itemset.Item(s)
		}
	}
	return out
}
