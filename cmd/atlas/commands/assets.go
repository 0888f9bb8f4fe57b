package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewAssetsCommand creates the assets command group.
func NewAssetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"asset"},
		Short:   "Manage item assets",
		Long:    "List, activate, and wait for downloadable item assets",
	}

	cmd.AddCommand(newAssetsListCommand())
	cmd.AddCommand(newAssetsActivateCommand())
	cmd.AddCommand(newAssetsWaitCommand())

	return cmd
}

func newAssetsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list ITEM_TYPE ITEM_ID",
		Short: "List item assets",
		Long:  "List the assets available for a catalog item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			assets, err := client.Assets().List(context.Background(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to list assets: %w", err)
			}

			rendered, err := renderStructured(assets)
			if rendered || err != nil {
				return err
			}

			return renderAssetsTable(assets)
		},
	}
}

func newAssetsActivateCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "activate ITEM_TYPE ITEM_ID ASSET_TYPE",
		Short: "Activate an asset",
		Long:  "Request activation of an item asset so it becomes downloadable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			ctx := context.Background()

			err = client.Assets().Activate(ctx, args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to activate asset: %w", err)
			}

			if !wait {
				fmt.Printf("Activation of %s requested\n", args[2])

				return nil
			}

			asset, err := client.Assets().Wait(ctx, args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to wait for asset: %w", err)
			}

			fmt.Printf("Asset %s is %s\n", asset.Name, asset.Status)
			fmt.Printf("Location: %s\n", asset.Location)

			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the asset is active")

	return cmd
}

func newAssetsWaitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wait ITEM_TYPE ITEM_ID ASSET_TYPE",
		Short: "Wait for an asset to become active",
		Long:  "Poll an item asset until it is active and print its download location",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			asset, err := client.Assets().Wait(context.Background(), args[0], args[1], args[2])
			if err != nil {
				return fmt.Errorf("failed to wait for asset: %w", err)
			}

			rendered, err := renderStructured(asset)
			if rendered || err != nil {
				return err
			}

			fmt.Printf("Asset %s is %s\n", asset.Name, asset.Status)
			fmt.Printf("Location: %s\n", asset.Location)

			return nil
		},
	}
}
