package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewAssetTypesCommand creates the asset-types command group.
func NewAssetTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "asset-types",
		Aliases: []string{"asset-type"},
		Short:   "Browse catalog asset types",
		Long:    "List and inspect the asset types that can be produced from items",
	}

	cmd.AddCommand(newAssetTypesListCommand())
	cmd.AddCommand(newAssetTypesGetCommand())

	return cmd
}

func newAssetTypesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List asset types",
		Long:  "List every asset type in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			assetTypes, err := client.ListAssetTypes(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list asset types: %w", err)
			}

			rendered, err := renderStructured(assetTypes)
			if rendered || err != nil {
				return err
			}

			return renderAssetTypesTable(assetTypes)
		},
	}
}

func newAssetTypesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ASSET_TYPE",
		Short: "Show asset type details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			assetType, err := client.GetAssetType(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get asset type: %w", err)
			}

			rendered, err := renderStructured(assetType)
			if rendered || err != nil {
				return err
			}

			fmt.Printf("%s: %s\n", assetType.ID, assetType.DisplayName)

			return nil
		},
	}
}

func renderAssetTypesTable(assetTypes []atlas.AssetType) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Display Name")

	for _, assetType := range assetTypes {
		_ = table.Append(assetType.ID, assetType.DisplayName)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
