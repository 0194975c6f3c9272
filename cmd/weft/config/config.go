// Package configcmder provides the config command for managing persistent
// weft configuration stored in the .weft/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent weft configuration.

Configuration is stored as config.toml in the .weft/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  mock.listen, mock.fixtures, mock.no_fallback,
  record.driver, record.sqlite_path,
  log.level, log.format, log.file

Use subcommands to get, set, or list configuration values:
  weft config set <key> <value>    Set a configuration value
  weft config get <key>            Get a configuration value
  weft config list                 List all configuration values

Examples:
  weft config set mock.listen :8080
  weft config set record.driver sqlite
  weft config get mock.fixtures
  weft config list`

const configShortDesc string = "Manage persistent weft configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
