// Package commands implements the atlas CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-eo/atlas/internal/constants"
	"github.com/meridian-eo/atlas/pkg/atlas"
	"github.com/meridian-eo/atlas/pkg/atlasclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	timestampFormat   = "2006-01-02 15:04:05"
	defaultJSONIndent = "  "
)

// Static errors for the CLI layer.
var (
	ErrAPIEndpointRequired = errors.New("API endpoint is required; run 'atlas auth login' or pass --api")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrOrderNotTerminal    = errors.New("order has not finished; use 'atlas orders wait' first")
	ErrNoItemTypes         = errors.New("at least one --item-type is required")
	ErrNoItemIDs           = errors.New("at least one --item-id is required")
)

// CreateClient builds an atlas client from the effective configuration:
// flags and environment first, then the stored config file.
func CreateClient() (atlas.Client, error) {
	config := loadConfig()

	endpoint := viper.GetString("api")
	if endpoint == "" {
		endpoint = config.API
	}

	if endpoint == "" {
		return nil, ErrAPIEndpointRequired
	}

	apiKey := viper.GetString("api_key")
	if apiKey == "" {
		apiKey = config.APIKey
	}

	client, err := atlasclient.New(&atlas.Config{
		BaseURL: endpoint,
		APIKey:  apiKey,
		Debug:   viper.GetBool("verbose"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// renderJSON writes v to stdout as indented JSON.
func renderJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", defaultJSONIndent)

	return encoder.Encode(v)
}

// renderYAML writes v to stdout as YAML.
func renderYAML(v interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)

	return encoder.Encode(v)
}

// renderStructured handles the non-table output formats. It reports whether
// it rendered anything; the caller draws its table when it returns false.
func renderStructured(v interface{}) (bool, error) {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return true, renderJSON(v)
	case constants.FormatYAML:
		return true, renderYAML(v)
	default:
		return false, nil
	}
}

func renderItemsTable(items []atlas.Item) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Item Type", "Acquired", "Cloud Cover", "Satellite")

	for _, item := range items {
		_ = table.Append(
			item.ID,
			item.ItemType,
			item.Properties.Acquired.Format(timestampFormat),
			strconv.FormatFloat(item.Properties.CloudCover, 'f', 2, 64),
			item.Properties.SatelliteID,
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nTotal: %d items\n", len(items))

	return nil
}

func renderOrderTable(order *atlas.Order) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	_ = table.Append("ID", order.ID)
	_ = table.Append("Name", order.Name)
	_ = table.Append("State", order.State)
	_ = table.Append("Assets", strconv.Itoa(len(order.Assets)))
	_ = table.Append("Created", order.CreatedAt.Format(timestampFormat))
	_ = table.Append("Updated", order.UpdatedAt.Format(timestampFormat))

	if order.Error != nil {
		_ = table.Append("Error", fmt.Sprintf("%s: %s", order.Error.Title, order.Error.Detail))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderOrdersTable(orders []atlas.Order) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "State", "Assets", "Created")

	for _, order := range orders {
		_ = table.Append(
			order.ID,
			order.Name,
			order.State,
			strconv.Itoa(len(order.Assets)),
			order.CreatedAt.Format(timestampFormat),
		)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderAssetsTable(assets map[string]atlas.Asset) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Type", "Status", "Size", "Location")

	for name, asset := range assets {
		_ = table.Append(name, asset.Status, FormatBytes(asset.Length), asset.Location)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// FormatBytes renders a byte count in a human-readable unit.
func FormatBytes(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// BuildSearchFilter assembles the top-level filter from the shared search
// flags. Returns nil when no flags constrain the search.
func BuildSearchFilter(cloudCoverMax float64, acquiredAfter, acquiredBefore string) (*atlas.Filter, error) {
	var filters []*atlas.Filter

	if cloudCoverMax >= 0 {
		filter, err := atlas.RangeFilter("cloud_cover", &atlas.RangeConfig{LTE: cloudCoverMax})
		if err != nil {
			return nil, err
		}

		filters = append(filters, filter)
	}

	if acquiredAfter != "" || acquiredBefore != "" {
		config := &atlas.RangeConfig{}

		if acquiredAfter != "" {
			after, err := parseTimeFlag(acquiredAfter)
			if err != nil {
				return nil, fmt.Errorf("invalid --acquired-after: %w", err)
			}

			config.GTE = after
		}

		if acquiredBefore != "" {
			before, err := parseTimeFlag(acquiredBefore)
			if err != nil {
				return nil, fmt.Errorf("invalid --acquired-before: %w", err)
			}

			config.LT = before
		}

		filter, err := atlas.DateRangeFilter("acquired", config)
		if err != nil {
			return nil, err
		}

		filters = append(filters, filter)
	}

	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return atlas.AndFilter(filters...), nil
	}
}

// parseTimeFlag accepts RFC3339 timestamps and bare dates.
func parseTimeFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q: %w", value, err)
	}

	return t, nil
}

// SplitCommaList splits a repeatable comma-separated flag into clean values.
func SplitCommaList(values []string) []string {
	var out []string

	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
