package main

import (
	"errors"
	"fmt"

	"github.com/dalemusser/govhub/internal/app/seed"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func seedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo organizations, projects and process instances",
		Long: `Seed loads the demonstration data set into MongoDB. Nothing is written
when the organization directory already has entries.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mongoURI == "" {
				return errors.New("seed needs --mongo-uri; the in-memory store is seeded on every run")
			}
			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			sum, err := seed.Demo(cmd.Context(), seed.Deps{
				Orgs:      s.svc.Orgs,
				Projects:  s.svc.Projects,
				Processes: s.svc.Processes,
				Log:       s.log,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if sum.Skipped {
				fmt.Fprintln(out, "organizations already present; nothing seeded")
				return nil
			}
			fmt.Fprintf(out, "seeded %s organizations, %s projects, %s process instances\n",
				humanize.Comma(int64(sum.Organizations)),
				humanize.Comma(int64(sum.Projects)),
				humanize.Comma(int64(sum.Instances)))
			return nil
		},
	}
}
