package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display API information",
		Long:  "Display information about the targeted Atlas API endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			info, err := client.GetInfo(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get API info: %w", err)
			}

			rendered, err := renderStructured(info)
			if rendered || err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Property", "Value")
			_ = table.Append("Name", info.Name)
			_ = table.Append("Version", info.Version)
			_ = table.Append("Build", info.Build)

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}
