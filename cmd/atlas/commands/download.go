package commands

import (
	"context"
	"fmt"

	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/spf13/cobra"
)

// NewDownloadCommand creates the standalone download command.
func NewDownloadCommand() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download a single asset by URL",
		Long: `Download an asset directly from its delivery URL.

Resumes interrupted transfers from a partial file when the server supports
range requests, and verifies the SHA-256 checksum when the server declares
one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			// Wrap the bare URL in a single-asset order so the transfer goes
			// through the same concurrency and integrity machinery.
			order := &atlas.Order{
				ID:     "adhoc",
				Assets: []atlas.Asset{{Location: args[0]}},
			}

			results, err := client.DownloadAssets(context.Background(), order, dest)
			if err != nil {
				return fmt.Errorf("failed to download: %w", err)
			}

			result := results[0]
			if result.Err != nil {
				return fmt.Errorf("failed to download %s: %w", args[0], result.Err)
			}

			fmt.Printf("Downloaded %s (%s)\n", result.Path, FormatBytes(result.Bytes))

			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "destination directory")

	return cmd
}
