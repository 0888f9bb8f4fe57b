package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/meridian-eo/atlas/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration persisted at ~/.atlas/config.yml.
type Config struct {
	API    string `json:"api,omitempty"     yaml:"api,omitempty"`
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Output string `json:"output,omitempty"  yaml:"output,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage atlas CLI configuration including the API endpoint and key",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigGetCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			rendered, err := renderStructured(redactConfig(config))
			if rendered || err != nil {
				return err
			}

			return displayConfigTable(config)
		},
	}
}

func newConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Long:  "Print a single configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			value, err := configValue(config, args[0])
			if err != nil {
				return err
			}

			fmt.Println(value)

			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a specific configuration value and persist it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a specific configuration value and persist the change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := setConfigValue(config, args[0], ""); err != nil {
				return err
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Unset %s\n", args[0])

			return nil
		},
	}
}

func configValue(config *Config, key string) (string, error) {
	switch key {
	case "api":
		return config.API, nil
	case "api_key":
		return config.APIKey, nil
	case "output":
		return config.Output, nil
	default:
		return "", fmt.Errorf("%q: %w", key, ErrUnknownConfigKey)
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "api":
		config.API = value
	case "api_key":
		config.APIKey = value
	case "output":
		config.Output = value
	default:
		return fmt.Errorf("%q: %w", key, ErrUnknownConfigKey)
	}

	return nil
}

// loadConfig reads the stored CLI configuration. Missing or unreadable files
// yield an empty config; flags and environment still apply on top.
func loadConfig() *Config {
	return &Config{
		API:    viper.GetString("api"),
		APIKey: viper.GetString("api_key"),
		Output: viper.GetString("output"),
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".atlas")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// redactConfig masks the API key for display.
func redactConfig(config *Config) *Config {
	out := *config
	if out.APIKey != "" {
		out.APIKey = "<redacted>"
	}

	return &out
}

func displayConfigTable(config *Config) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Key", "Value")

	_ = table.Append("api", config.API)

	keyStatus := "(not set)"
	if config.APIKey != "" {
		keyStatus = "<redacted>"
	}

	_ = table.Append("api_key", keyStatus)
	_ = table.Append("output", config.Output)

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
