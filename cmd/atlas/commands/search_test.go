package commands_test

import (
	"testing"

	"github.com/meridian-eo/atlas/cmd/atlas/commands"
	"github.com/stretchr/testify/assert"
)

func TestNewSearchCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewSearchCommand()
	assert.Equal(t, "search", cmd.Use)
	assert.Equal(t, "Search the imagery catalog", cmd.Short)

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, 2)

	commandNames := make([]string, 0, len(subcommands))
	for _, subcmd := range subcommands {
		commandNames = append(commandNames, subcmd.Name())
	}

	assert.Contains(t, commandNames, "quick")
	assert.Contains(t, commandNames, "stats")
}

func TestSearchQuickCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewSearchCommand()
	cmd := findSubcommand(root, "quick")
	assert.Equal(t, "quick", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	// Check flags
	assert.NotNil(t, cmd.Flags().Lookup("item-type"))
	assert.NotNil(t, cmd.Flags().Lookup("cloud-cover"))
	assert.NotNil(t, cmd.Flags().Lookup("acquired-after"))
	assert.NotNil(t, cmd.Flags().Lookup("acquired-before"))
	assert.NotNil(t, cmd.Flags().Lookup("limit"))

	limitFlag := cmd.Flags().Lookup("limit")
	assert.Equal(t, "0", limitFlag.DefValue)
}

func TestSearchStatsCommand(t *testing.T) {
	t.Parallel()

	root := commands.NewSearchCommand()
	cmd := findSubcommand(root, "stats")
	assert.Equal(t, "stats", cmd.Use)
	assert.NotNil(t, cmd.RunE)

	intervalFlag := cmd.Flags().Lookup("interval")
	assert.NotNil(t, intervalFlag)
	assert.Equal(t, "month", intervalFlag.DefValue)
}
