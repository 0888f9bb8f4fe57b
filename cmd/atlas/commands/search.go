package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command group.
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the imagery catalog",
		Long:  "Run quick searches and statistics queries against the imagery catalog",
	}

	cmd.AddCommand(newSearchQuickCommand())
	cmd.AddCommand(newSearchStatsCommand())

	return cmd
}

func newSearchQuickCommand() *cobra.Command {
	var (
		itemTypes      []string
		cloudCoverMax  float64
		acquiredAfter  string
		acquiredBefore string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Run a quick search",
		Long:  "Execute a quick search and list the matching catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			itemTypes = SplitCommaList(itemTypes)
			if len(itemTypes) == 0 {
				return ErrNoItemTypes
			}

			filter, err := BuildSearchFilter(cloudCoverMax, acquiredAfter, acquiredBefore)
			if err != nil {
				return err
			}

			if filter == nil {
				// The search API requires a filter; an unconstrained search
				// matches everything the account can see.
				filter = atlas.PermissionFilter("assets:download")
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			iterator, err := client.Searches().Quick(ctx, &atlas.SearchRequest{
				ItemTypes: itemTypes,
				Filter:    filter,
			})
			if err != nil {
				return fmt.Errorf("failed to run quick search: %w", err)
			}

			items, err := collectItems(iterator, limit)
			if err != nil {
				return fmt.Errorf("failed to fetch search results: %w", err)
			}

			rendered, err := renderStructured(items)
			if rendered || err != nil {
				return err
			}

			return renderItemsTable(items)
		},
	}

	cmd.Flags().StringSliceVarP(&itemTypes, "item-type", "t", nil, "item type to search (repeatable)")
	cmd.Flags().Float64Var(&cloudCoverMax, "cloud-cover", -1, "maximum cloud cover fraction (0.0-1.0)")
	cmd.Flags().StringVar(&acquiredAfter, "acquired-after", "", "earliest acquisition time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&acquiredBefore, "acquired-before", "", "latest acquisition time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of items to return (0 for all)")

	return cmd
}

func newSearchStatsCommand() *cobra.Command {
	var (
		itemTypes      []string
		interval       string
		cloudCoverMax  float64
		acquiredAfter  string
		acquiredBefore string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a statistics query",
		Long:  "Display a histogram of matching items bucketed by time interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			itemTypes = SplitCommaList(itemTypes)
			if len(itemTypes) == 0 {
				return ErrNoItemTypes
			}

			filter, err := BuildSearchFilter(cloudCoverMax, acquiredAfter, acquiredBefore)
			if err != nil {
				return err
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			stats, err := client.Searches().Stats(context.Background(), &atlas.StatsRequest{
				Interval:  interval,
				ItemTypes: itemTypes,
				Filter:    filter,
			})
			if err != nil {
				return fmt.Errorf("failed to run stats query: %w", err)
			}

			rendered, err := renderStructured(stats)
			if rendered || err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Bucket", "Count")

			for _, bucket := range stats.Buckets {
				_ = table.Append(bucket.Start.Format("2006-01-02"), strconv.FormatInt(bucket.Count, 10))
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&itemTypes, "item-type", "t", nil, "item type to search (repeatable)")
	cmd.Flags().StringVar(&interval, "interval", "month", "bucket interval (hour, day, week, month, year)")
	cmd.Flags().Float64Var(&cloudCoverMax, "cloud-cover", -1, "maximum cloud cover fraction (0.0-1.0)")
	cmd.Flags().StringVar(&acquiredAfter, "acquired-after", "", "earliest acquisition time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&acquiredBefore, "acquired-before", "", "latest acquisition time (RFC3339 or YYYY-MM-DD)")

	return cmd
}

// collectItems drains the iterator, stopping at limit when one is set.
func collectItems(iterator *atlas.PageIterator[atlas.Item], limit int) ([]atlas.Item, error) {
	if limit <= 0 {
		return iterator.All()
	}

	items := make([]atlas.Item, 0, limit)

	for iterator.HasNext() && len(items) < limit {
		item, err := iterator.Next()
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	return items, nil
}
