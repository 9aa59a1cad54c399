package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/shruggr/fpgrowth/api"
	"github.com/shruggr/fpgrowth/processor"
	"github.com/shruggr/fpgrowth/source"
	"github.com/shruggr/fpgrowth/source/csv"
	"github.com/shruggr/fpgrowth/source/jsonl"
	"github.com/spf13/cobra"
)

type mineOptions struct {
	inputs     []string
	format     string
	delimiter  string
	dedupe     bool
	minSupport int
	relative   float64
	workers    int
	output     string
}

func newMineCmd() *cobra.Command {
	opts := &mineOptions{}

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine frequent itemsets from transaction files",
		Example: `  fpgrowth mine --input baskets.csv --min-support 3
  fpgrowth mine --input a.jsonl --input b.jsonl --format jsonl --relative 0.05 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.inputs, "input", "i", nil, "Input file, repeatable; '-' reads stdin")
	f.StringVar(&opts.format, "format", "csv", "Input format: csv or jsonl")
	f.StringVar(&opts.delimiter, "delimiter", ",", "CSV field delimiter")
	f.BoolVar(&opts.dedupe, "dedupe", false, "Drop repeated items within a CSV basket")
	f.IntVar(&opts.minSupport, "min-support", 0, "Absolute support threshold")
	f.Float64Var(&opts.relative, "relative", 0, "Support threshold as a fraction of all transactions")
	f.IntVar(&opts.workers, "workers", 0, "Parallel branches (default: half the CPUs)")
	f.StringVarP(&opts.output, "output", "o", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runMine(cmd *cobra.Command, opts *mineOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("min-support") || cmd.Flags().Changed("relative") {
		cfg.MinSupport = opts.minSupport
		cfg.RelativeSupport = opts.relative
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = opts.workers
	}
	if opts.output != "text" && opts.output != "json" {
		return fmt.Errorf("unknown output format: %s (use 'text' or 'json')", opts.output)
	}

	src, err := openInputs(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	st, err := openStack(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := st.proc.Process(cmd.Context(), processor.Job{
		Source:          src,
		MinSupport:      cfg.MinSupport,
		RelativeSupport: cfg.RelativeSupport,
		Workers:         cfg.Workers,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.output == "json" {
		resp := api.MineResponse{
			RunID:        report.RunID,
			Cached:       report.Cached,
			MinSupport:   report.MinSupport,
			Transactions: report.Transactions,
			Itemsets:     api.NewItemsets(report.Result),
		}
		if len(report.ResultHash) > 0 {
			resp.ResultHash = report.ResultHash.Hex()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	return writeText(out, report)
}

func openInputs(opts *mineOptions) (source.Source, error) {
	comma, size := utf8.DecodeRuneInString(opts.delimiter)
	if size == 0 || size != len(opts.delimiter) {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", opts.delimiter)
	}

	multi := source.NewMulti()
	for _, path := range opts.inputs {
		switch opts.format {
		case "csv":
			cfg := csv.Config{Comma: comma, Dedupe: opts.dedupe}
			if path == "-" {
				multi.Add(csv.NewReader(os.Stdin, cfg))
			} else {
				multi.Add(csv.NewFile(path, cfg))
			}
		case "jsonl":
			if path == "-" {
				multi.Add(jsonl.NewReader(os.Stdin))
			} else {
				multi.Add(jsonl.NewFile(path))
			}
		default:
			return nil, fmt.Errorf("unknown input format: %s (use 'csv' or 'jsonl')", opts.format)
		}
	}
	return multi, nil
}

func writeText(w io.Writer, report *processor.Report) error {
	patterns := report.Result.Sorted()

	width := 0
	for _, p := range patterns {
		width = max(width, len(p.Items.String()))
	}

	var b strings.Builder
	for _, p := range patterns {
		fmt.Fprintf(&b, "%-*s  %d\n", width, p.Items.String(), p.Support)
	}
	fmt.Fprintf(&b, "# %d itemsets, min support %d of %d transactions", len(patterns), report.MinSupport, report.Transactions)
	if len(report.ResultHash) > 0 {
		fmt.Fprintf(&b, ", snapshot %s", report.ResultHash.Hex())
	}
	if report.Cached {
		b.WriteString(" (cached)")
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
