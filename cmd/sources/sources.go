// Package sources implements the command that reports on source
// reliability.
package sources

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/newsperspective/pipeline/cmd/common"
	"github.com/newsperspective/pipeline/internal/reliability"
)

// Command returns the sources command. cfgFile and debug point at the root
// command's persistent flags.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Report news source reliability",
		Long: `Report the clickbait reliability of every tracked news source, ranked
from most to least reliable. Sources with too few articles are omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			tracker, closeStore, err := common.NewTracker(cmd.Context(), deps.Config.Reliability, deps.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			report := tracker.Report()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			if len(report.Sources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sources with enough history yet.")
				return nil
			}

			renderReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")

	return cmd
}

func renderReport(cmd *cobra.Command, report reliability.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Rank", "Source", "Articles", "Clickbait %", "Avg Score", "Rating"})
	for i, s := range report.Sources {
		t.AppendRow(table.Row{
			i + 1,
			s.Name,
			s.TotalArticles,
			fmt.Sprintf("%.1f%%", s.ClickbaitPercentage),
			fmt.Sprintf("%.1f", s.AverageScore),
			s.Rating,
		})
	}
	t.AppendFooter(table.Row{"Total", report.TotalSources, "", "", "", ""})

	fmt.Fprintln(cmd.OutOrStdout())
	t.Render()
}
