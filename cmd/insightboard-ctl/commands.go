package main

import (
	"fmt"
	"os"

	"insightboard/internal/core/dataset"
	"insightboard/internal/core/derive"
	"insightboard/internal/services/api/dashboard/domain"
	dashsvc "insightboard/internal/services/api/dashboard/service"

	"github.com/spf13/cobra"
)

type viewOutput struct {
	ID     domain.ViewID  `json:"id"`
	Title  string         `json:"title"`
	Type   string         `json:"type"`
	Points []derive.Point `json:"points"`
}

func newViewsCmd(g *globals) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "views [view...]",
		Short: "Load and shape chart views; all views when none are named",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := g.model()
			if err != nil {
				return err
			}
			views := domain.Views()
			if len(args) > 0 {
				views = views[:0]
				for _, a := range args {
					v, err := domain.ParseView(a)
					if err != nil {
						return err
					}
					views = append(views, v)
				}
			}
			c := g.client()
			out := make([]viewOutput, 0, len(views))
			for _, v := range views {
				t, spec := v.Type, v.Spec
				if v.ID == domain.ViewIntensity {
					if t, err = domain.IntensityType(by); err != nil {
						return err
					}
					spec, _ = derive.For(t)
				}
				rows, err := c.FetchVisualization(cmd.Context(), t, m)
				if err != nil {
					return fmt.Errorf("view %s: %w", v.ID, err)
				}
				out = append(out, viewOutput{ID: v.ID, Title: v.Title, Type: string(t), Points: spec.Apply(rows)})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&by, "by", domain.ByCountry, "Intensity grouping: country, sector or region")
	return cmd
}

func newStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summary statistics of the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := g.model()
			if err != nil {
				return err
			}
			st, err := g.client().FetchStats(cmd.Context(), m)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newRecordsCmd(g *globals) *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "records",
		Short: "One page of raw records of the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := g.model()
			if err != nil {
				return err
			}
			p, err := g.client().FetchRecords(cmd.Context(), m, page, limit)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 100, "Page size")
	return cmd
}

func newOptionsCmd(g *globals) *cobra.Command {
	var column, search, sortBy string
	var limit int
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Selectable values of one filter column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fo, err := g.client().FetchFilterOptions(cmd.Context())
			if err != nil {
				return err
			}
			by := dataset.SortByCount
			if sortBy == string(dataset.SortByName) {
				by = dataset.SortByName
			}
			out := dataset.SortOptions(dataset.Search(fo.Column(column), search), by)
			if limit > 0 && len(out) > limit {
				out = out[:limit]
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&column, "column", "topics", "Column: years, topics, sectors, regions, countries, cities, pestles, sources, swots")
	cmd.Flags().StringVar(&search, "search", "", "Keep values containing this text")
	cmd.Flags().StringVar(&sortBy, "sort", "count", "Order: count or name")
	cmd.Flags().IntVar(&limit, "limit", 0, "Keep at most this many values")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var format, out string
	var remote bool
	var page, limit int
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filter's records as csv, json or excel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := dataset.ParseExportFormat(format)
			if err != nil {
				return err
			}
			m, err := g.model()
			if err != nil {
				return err
			}
			c := g.client()
			var body []byte
			if remote {
				x, err := c.Export(cmd.Context(), f, m)
				if err != nil {
					return err
				}
				body = x.Body
			} else {
				p, err := c.FetchRecords(cmd.Context(), m, page, c.ClampLimit(limit))
				if err != nil {
					return err
				}
				if body, err = dashsvc.Render(f, p.Data); err != nil {
					return err
				}
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(out, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(body), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Format: csv, json or excel")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; stdout when empty")
	cmd.Flags().BoolVar(&remote, "remote", false, "Let the data API render the whole result set")
	cmd.Flags().IntVar(&page, "page", 1, "Page of records for local rendering")
	cmd.Flags().IntVar(&limit, "limit", 1000, "Page size for local rendering")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List filter presets, the built in ones or those of a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := dashsvc.LoadPresets(file)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ps)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Preset YAML document")
	return cmd
}
