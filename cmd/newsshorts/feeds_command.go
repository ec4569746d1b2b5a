package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFeedsCommand(ctx *commandContext) *cobra.Command {
	var fetch bool
	var limit int

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List the configured feeds, or fetch them with --fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if !fetch {
				fmt.Fprintln(w, "NAME\tURL")
				for _, src := range cfg.Feeds.Sources {
					fmt.Fprintf(w, "%s\t%s\n", src.Name, src.URL)
				}
				return nil
			}

			if limit <= 0 {
				limit = cfg.Feeds.Limit
			}
			articles := newAggregator(cfg, ctx.logger()).FetchAll(cmd.Context(), cfg.Feeds.Sources, limit)
			fmt.Fprintln(w, "SOURCE\tTITLE\tLINK")
			for _, a := range articles {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.Source, a.Title, a.Link)
			}
			fmt.Fprintf(w, "\n%d articles\n", len(articles))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "Fetch and print the deduplicated articles")
	cmd.Flags().IntVar(&limit, "limit", 0, "Entries per feed (defaults to FEED_LIMIT)")
	return cmd
}
