package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func statsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			st, err := s.svc.Stats.Get(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			return renderStats(cmd.OutOrStdout(), st, time.Now())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw JSON document")
	return cmd
}

func renderStats(w io.Writer, st projectsvc.Statistics, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Projects\t%s\n", humanize.Comma(st.Total))
	fmt.Fprintf(tw, "Pass rate\t%s%%\n", humanize.FormatFloat("#.#", st.PassRate*100))
	if !st.GeneratedAt.IsZero() {
		fmt.Fprintf(tw, "Generated\t%s\n", humanize.RelTime(st.GeneratedAt, now, "ago", "from now"))
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "CATEGORY\tPROJECTS")
	for _, c := range lifecycle.Categories {
		fmt.Fprintf(tw, "%s\t%s\n", c, humanize.Comma(st.ByCategory[c]))
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "STATUS\tPROJECTS")
	for _, s := range models.AllProjectStatuses {
		if n := st.ByStatus[s]; n > 0 {
			fmt.Fprintf(tw, "%s\t%s\n", s, humanize.Comma(n))
		}
	}

	if len(st.Processes) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "PROCESS\tINSTANCES\tFINISHED\tAVG PROGRESS")
		for _, k := range allKinds {
			f, ok := st.Processes[k]
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\n", k,
				humanize.Comma(int64(f.Instances)), humanize.Comma(int64(f.Finished)), f.AverageProgress)
		}
	}
	return tw.Flush()
}
