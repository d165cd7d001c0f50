package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/scribe/internal/adapters/driven/config/file"
	"github.com/custodia-labs/scribe/internal/config"
	"github.com/custodia-labs/scribe/internal/core/domain"
	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change configuration",
	Long: `Reads and writes dot-separated keys of the config file, for example
embedding.provider or cache.ttl. Values are validated against the full
configuration before they are saved.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value, or every set key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfigStore() (driven.ConfigStore, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	return file.NewConfigStore(path)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, k := range store.Keys() {
			v, _ := store.Get(k)
			cmd.Printf("%s = %v\n", k, v)
		}
		return nil
	}

	v, ok := store.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s is not set", domain.ErrNotFound, args[0])
	}
	cmd.Printf("%v\n", v)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}

	key, value := args[0], parseValue(args[1])
	prev, had := store.Get(key)
	if err := store.Set(key, value); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	// Reject values the typed loader would refuse, restoring the old file.
	if _, err := config.Load(store.Path()); err != nil {
		if had {
			store.Set(key, prev) //nolint:errcheck
		} else {
			store.Delete(key) //nolint:errcheck
		}
		return err
	}

	cmd.Printf("%s = %v\n", key, value)
	return nil
}

// parseValue turns a command-line string into the TOML type it spells.
func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.Contains(s, ".") {
		return f
	}
	return s
}
