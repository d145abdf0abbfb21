// Package search implements the command that queries the headline index.
package search

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/newsperspective/pipeline/cmd/common"
	"github.com/newsperspective/pipeline/internal/domain"
	"github.com/newsperspective/pipeline/internal/index"
)

const (
	defaultResultSize = 10
	titleColumnWidth  = 60
)

// Command returns the search command. cfgFile and debug point at the root
// command's persistent flags.
func Command(cfgFile *string, debug *bool) *cobra.Command {
	var (
		query  string
		source string
		size   int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search indexed headlines",
		Long: `Search rewritten and original headlines in the index. An empty query
lists the most recently published documents.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.NewDeps(*cfgFile, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = deps.Logger.Sync() }()

			cfg := deps.Config
			esClient, err := index.NewClient(cmd.Context(), index.ClientConfig{
				URL:      cfg.Search.URL,
				Username: cfg.Search.Username,
				Password: cfg.Search.Password,
				APIKey:   cfg.Search.APIKey,
			}, deps.Logger)
			if err != nil {
				return fmt.Errorf("connect to elasticsearch: %w", err)
			}

			searcher := index.NewSearcher(esClient, cfg.Search.Index)
			docs, err := searcher.Search(cmd.Context(), index.Query{
				Text:   query,
				Source: source,
				Size:   size,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching headlines.")
				return nil
			}

			renderResults(cmd, docs, query)
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query string (empty lists recent documents)")
	cmd.Flags().StringVar(&source, "source", "", "restrict results to one news source")
	cmd.Flags().IntVarP(&size, "size", "s", defaultResultSize, "number of results to return")

	return cmd
}

func renderResults(cmd *cobra.Command, docs []domain.Document, query string) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	t.Style().Options.SeparateRows = true
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: titleColumnWidth},
		{Number: 3, WidthMax: titleColumnWidth},
	})

	t.AppendHeader(table.Row{"#", "Headline", "Original", "Source", "Tone", "Published"})
	for i, doc := range docs {
		original := ""
		if doc.WasRewritten {
			original = doc.OriginalTitle
		}
		t.AppendRow(table.Row{
			i + 1,
			doc.RewrittenTitle,
			original,
			doc.Source,
			strings.ToLower(doc.OriginalTone),
			doc.PublishedDate.Format("2006-01-02"),
		})
	}
	t.AppendFooter(table.Row{"Total", len(docs), fmt.Sprintf("Query: %s", displayQuery(query))})

	fmt.Fprintln(cmd.OutOrStdout())
	t.Render()
}

func displayQuery(q string) string {
	if strings.TrimSpace(q) == "" {
		return "(recent)"
	}
	return q
}
