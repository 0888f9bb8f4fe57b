package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// NewAuthCommand creates the auth command group.
func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  "Log in to an Atlas API endpoint and inspect the current session",
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthStatusCommand())
	cmd.AddCommand(newAuthLogoutCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var (
		apiEndpoint string
		apiKey      string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Atlas",
		Long:  "Authenticate with an Atlas API endpoint and store the credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Get API endpoint
			if apiEndpoint == "" {
				apiEndpoint = viper.GetString("api")
			}

			if apiEndpoint == "" {
				reader := bufio.NewReader(os.Stdin)
				fmt.Print("API endpoint: ")
				apiEndpoint, _ = reader.ReadString('\n')
				apiEndpoint = strings.TrimSpace(apiEndpoint)
			}

			if apiEndpoint == "" {
				return ErrAPIEndpointRequired
			}

			// Get API key, prompting without echo if not provided
			if apiKey == "" {
				apiKey = viper.GetString("api_key")
			}

			if apiKey == "" {
				fmt.Print("API key: ")

				byteKey, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}

				apiKey = strings.TrimSpace(string(byteKey))

				fmt.Println()
			}

			viper.Set("api", apiEndpoint)
			viper.Set("api_key", apiKey)

			// Verify the credentials before persisting them
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			info, err := client.GetInfo(context.Background())
			if err != nil {
				return fmt.Errorf("failed to connect to API: %w", err)
			}

			config := loadConfig()
			config.API = apiEndpoint
			config.APIKey = apiKey

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged in to %s\n", apiEndpoint)
			fmt.Printf("API: %s %s\n", info.Name, info.Version)

			return nil
		},
	}

	cmd.Flags().StringVarP(&apiEndpoint, "api", "a", "", "API endpoint URL")
	cmd.Flags().StringVarP(&apiKey, "key", "k", "", "API key")

	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long:  "Display the current API endpoint and verify the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			info, err := client.GetInfo(context.Background())
			if err != nil {
				return fmt.Errorf("not authenticated: %w", err)
			}

			endpoint := viper.GetString("api")
			if endpoint == "" {
				endpoint = loadConfig().API
			}

			fmt.Printf("Logged in to %s\n", endpoint)
			fmt.Printf("API: %s %s\n", info.Name, info.Version)

			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from Atlas",
		Long:  "Clear the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			config.APIKey = ""

			viper.Set("api_key", "")

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Println("Successfully logged out")

			return nil
		},
	}
}
