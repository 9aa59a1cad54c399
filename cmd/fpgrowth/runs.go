package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shruggr/fpgrowth/api"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded mining runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Metadata.DBPath == "" {
				return errors.New("run history is disabled; set --db or metadata.db_path")
			}

			st, err := openStack(cfg, newLogger(cfg))
			if err != nil {
				return err
			}
			defer st.Close()

			metas, err := st.proc.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			runs := make([]api.Run, len(metas))
			for i, m := range metas {
				runs[i] = api.NewRun(m)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tTXS\tMIN\tITEMSETS\tCACHED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%t\t%.1fms\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Status, r.Transactions,
					r.MinSupport, r.Itemsets, r.Cached, r.DurationMS)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
