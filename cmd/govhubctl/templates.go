package main

import (
	"fmt"
	"os"

	"github.com/dalemusser/govhub/internal/app/system/processflow"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/spf13/cobra"
)

var allKinds = []models.ProcessKind{models.ProcessElection, models.ProcessAdmission}

func templatesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect process templates",
	}
	cmd.AddCommand(templatesExportCmd(opts))
	return cmd
}

func templatesExportCmd(opts *rootOptions) *cobra.Command {
	var (
		kinds  []string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the current process templates as YAML",
		Long: `Export writes the stored templates in the same YAML layout the server
reads its defaults from. The output can be edited and shipped as a new
defaults file.

Example:
  govhubctl templates export --kind election
  govhubctl templates export --mongo-uri mongodb://localhost:27017 -o templates.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseKinds(kinds)
			if err != nil {
				return err
			}

			s, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			var list []models.ProcessTemplate
			for _, k := range selected {
				t, err := s.svc.Processes.Template(cmd.Context(), k)
				if err != nil {
					return fmt.Errorf("load %s template: %w", k, err)
				}
				list = append(list, t)
			}
			data, err := processflow.ExportTemplates(list...)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d template(s) to %s\n", len(list), output)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "process kind to export (election, admission); repeatable, default all")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func parseKinds(raw []string) ([]models.ProcessKind, error) {
	if len(raw) == 0 {
		return allKinds, nil
	}
	out := make([]models.ProcessKind, 0, len(raw))
	for _, r := range raw {
		k := models.ProcessKind(r)
		if !k.Valid() {
			return nil, fmt.Errorf("unknown process kind %q", r)
		}
		out = append(out, k)
	}
	return out, nil
}
