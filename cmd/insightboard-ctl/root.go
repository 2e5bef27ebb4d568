package main

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"insightboard/internal/adapters/dataapi"
	"insightboard/internal/core/filter"
	"insightboard/internal/core/query"
	"insightboard/internal/platform/config"

	"github.com/spf13/cobra"
)

// globals are the flags shared by every subcommand
type globals struct {
	baseURL string
	token   string
	timeout time.Duration
	filters map[string]string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	def := dataapi.FromConfig(config.New().Prefix("INSIGHT_DATA_"))

	cmd := &cobra.Command{
		Use:           "insightboard-ctl",
		Short:         "Inspect dashboard views, stats and exports against the data API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.baseURL, "base-url", def.BaseURL, "Data API root (INSIGHT_DATA_BASE_URL)")
	pf.StringVar(&g.token, "token", def.Tokens.Token(), "Bearer token (INSIGHT_DATA_TOKEN)")
	pf.DurationVar(&g.timeout, "timeout", def.Timeout, "Per request timeout")
	pf.StringToStringVarP(&g.filters, "filter", "f", nil, "Filter field=value, repeatable (e.g. -f startYear=2020 -f topics=oil,gas)")

	cmd.AddCommand(
		newViewsCmd(g),
		newStatsCmd(g),
		newRecordsCmd(g),
		newOptionsCmd(g),
		newExportCmd(g),
		newPresetsCmd(),
	)
	return cmd
}

// client builds a data API client from the global flags
func (g *globals) client() *dataapi.Client {
	return dataapi.NewClient(dataapi.Options{
		BaseURL: g.baseURL,
		Timeout: g.timeout,
		Tokens:  dataapi.NewMemoryTokens(strings.TrimSpace(g.token)),
	})
}

// model decodes the --filter flags the same way the dashboard reads a query string
func (g *globals) model() (filter.Model, error) {
	m, err := query.Decode(g.filters)
	if err != nil {
		return filter.Model{}, err
	}
	return filter.Canonical(m), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
