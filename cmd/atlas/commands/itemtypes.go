package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewItemTypesCommand creates the item-types command group.
func NewItemTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item-types",
		Aliases: []string{"item-type"},
		Short:   "Browse catalog item types",
		Long:    "List and inspect the item types offered by the catalog",
	}

	cmd.AddCommand(newItemTypesListCommand())
	cmd.AddCommand(newItemTypesGetCommand())

	return cmd
}

func newItemTypesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List item types",
		Long:  "List every item type in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			itemTypes, err := client.ListItemTypes(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list item types: %w", err)
			}

			rendered, err := renderStructured(itemTypes)
			if rendered || err != nil {
				return err
			}

			return renderItemTypesTable(itemTypes)
		},
	}
}

func newItemTypesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ITEM_TYPE",
		Short: "Show item type details",
		Long:  "Show an item type and the asset types it offers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			itemType, err := client.GetItemType(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get item type: %w", err)
			}

			rendered, err := renderStructured(itemType)
			if rendered || err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Property", "Value")
			_ = table.Append("ID", itemType.ID)
			_ = table.Append("Display Name", itemType.DisplayName)
			_ = table.Append("Asset Types", strings.Join(itemType.AssetTypes, ", "))

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func renderItemTypesTable(itemTypes []atlas.ItemType) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Display Name", "Asset Types")

	for _, itemType := range itemTypes {
		_ = table.Append(itemType.ID, itemType.DisplayName, strconv.Itoa(len(itemType.AssetTypes)))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nTotal: %d item types\n", len(itemTypes))

	return nil
}
