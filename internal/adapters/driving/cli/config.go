package cli

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/kiotviet-integration/kvsync/internal/core/domain"
)

const redacted = "<redacted>"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a value stored in the config file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a value to the config file",
	Long: `Writes one dotted key, e.g. "invoices.page_size", to the config file.
The value is checked against the key's type and the full configuration
is validated before anything is written.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the settable keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	effective := settingsService.Effective()
	if effective == nil {
		return errors.New("no settings loaded")
	}

	out, err := toml.Marshal(redact(*effective))
	if err != nil {
		return fmt.Errorf("failed to render settings: %w", err)
	}
	cmd.Printf("# %s\n", settingsService.Path())
	cmd.Print(string(out))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	val, ok, err := settingsService.Get(args[0])
	if err != nil {
		return err
	}
	if !ok {
		cmd.Printf("%s is not set in %s\n", args[0], settingsService.Path())
		return nil
	}
	cmd.Printf("%v\n", val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s written to %s\n", args[0], args[1], settingsService.Path())
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// redact hides secrets in a copy of the settings.
func redact(s domain.Settings) domain.Settings {
	if s.Upload.AzureConnectionString != "" {
		s.Upload.AzureConnectionString = redacted
	}
	if s.Lock.RedisPassword != "" {
		s.Lock.RedisPassword = redacted
	}
	return s
}
