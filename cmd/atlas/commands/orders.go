package commands

import (
	"context"
	"fmt"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/spf13/cobra"
)

// NewOrdersCommand creates the orders command group.
func NewOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Manage imagery orders",
		Long:    "Create, track, cancel, and download imagery orders",
	}

	cmd.AddCommand(newOrdersCreateCommand())
	cmd.AddCommand(newOrdersGetCommand())
	cmd.AddCommand(newOrdersListCommand())
	cmd.AddCommand(newOrdersCancelCommand())
	cmd.AddCommand(newOrdersWaitCommand())
	cmd.AddCommand(newOrdersDownloadCommand())

	return cmd
}

func newOrdersCreateCommand() *cobra.Command {
	var (
		name     string
		itemType string
		itemIDs  []string
		bundle   string
		archive  string
		wait     bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		Long:  "Place a new order for the given items and product bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			itemIDs = SplitCommaList(itemIDs)
			if len(itemIDs) == 0 {
				return ErrNoItemIDs
			}

			request := &atlas.OrderRequest{
				Name: name,
				Products: []atlas.OrderProduct{{
					ItemType: itemType,
					ItemIDs:  itemIDs,
					Bundle:   bundle,
				}},
			}

			if archive != "" {
				request.Delivery = &atlas.OrderDelivery{Archive: archive}
			}

			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			order, err := client.Orders().Create(ctx, request)
			if err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}

			if wait {
				order, err = client.Orders().PollUntilComplete(ctx, order.ID)
				if err != nil {
					return fmt.Errorf("failed to wait for order: %w", err)
				}
			}

			rendered, err := renderStructured(order)
			if rendered || err != nil {
				return err
			}

			return renderOrderTable(order)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "order name")
	cmd.Flags().StringVarP(&itemType, "item-type", "t", "", "item type of the ordered items")
	cmd.Flags().StringSliceVar(&itemIDs, "item-id", nil, "item ID to order (repeatable)")
	cmd.Flags().StringVar(&bundle, "bundle", "analytic", "product bundle to produce")
	cmd.Flags().StringVar(&archive, "archive", "", "archive type for delivery (e.g. zip)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the order to reach a terminal state")

	_ = cmd.MarkFlagRequired("item-type")

	return cmd
}

func newOrdersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ORDER_ID",
		Short: "Get order details",
		Long:  "Display detailed information about a specific order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			order, err := client.Orders().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get order: %w", err)
			}

			rendered, err := renderStructured(order)
			if rendered || err != nil {
				return err
			}

			return renderOrderTable(order)
		},
	}
}

func newOrdersListCommand() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Long:  "List orders, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			var opts *atlas.OrderListOptions
			if state != "" {
				opts = &atlas.OrderListOptions{State: state}
			}

			iterator, err := client.Orders().List(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}

			orders, err := iterator.All()
			if err != nil {
				return fmt.Errorf("failed to fetch orders: %w", err)
			}

			rendered, err := renderStructured(orders)
			if rendered || err != nil {
				return err
			}

			return renderOrdersTable(orders)
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "filter by order state (queued, running, success, failed, partial, cancelled)")

	return cmd
}

func newOrdersCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an order",
		Long:  "Request server-side cancellation of a running order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			order, err := client.Orders().Cancel(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to cancel order: %w", err)
			}

			fmt.Printf("Order %s is now %s\n", order.ID, order.State)

			return nil
		},
	}
}

func newOrdersWaitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wait ORDER_ID",
		Short: "Wait for an order to finish",
		Long:  "Poll an order until it reaches a terminal state or the poll timeout elapses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			order, err := client.Orders().PollUntilComplete(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to wait for order: %w", err)
			}

			rendered, err := renderStructured(order)
			if rendered || err != nil {
				return err
			}

			return renderOrderTable(order)
		},
	}
}

func newOrdersDownloadCommand() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download ORDER_ID",
		Short: "Download order assets",
		Long:  "Download every asset of a finished order into a local directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			order, err := client.Orders().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get order: %w", err)
			}

			if !order.IsTerminal() {
				return fmt.Errorf("order %s is %s: %w", order.ID, order.State, ErrOrderNotTerminal)
			}

			results, err := client.DownloadAssets(ctx, order, dest)
			if err != nil {
				return fmt.Errorf("failed to download assets: %w", err)
			}

			var failed int

			for _, result := range results {
				if result.Err != nil {
					failed++

					fmt.Printf("FAILED  %s: %v\n", result.Asset.Name, result.Err)

					continue
				}

				fmt.Printf("OK      %s (%s)\n", result.Path, FormatBytes(result.Bytes))
			}

			if failed > 0 {
				return fmt.Errorf("failed to download %d of %d assets", failed, len(results))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "destination directory")

	return cmd
}
