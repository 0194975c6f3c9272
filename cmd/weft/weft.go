// Package weftcmder
package weftcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/weftworks/weft/cmd/weft/config"
	servecmder "github.com/weftworks/weft/cmd/weft/serve"
	"github.com/weftworks/weft/pkg/utils"
)

const weftLongDesc string = `Weft is a schema-driven mock API server for streaming protocols.

Declare your endpoints with their response shapes (JSON, server-sent
events, NDJSON item streams, binary, websocket) and weft serves them with
scripted or generated responses, validating every payload on the way out.

Run the server using:
  weft serve           Run the mock server
  weft config          Manage persistent configuration`

const weftShortDesc string = "Weft - schema-driven streaming API mocks"

func NewWeftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "weft",
		Short:   weftShortDesc,
		Long:    weftLongDesc,
		Version: utils.Version,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .weft/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())

	return cmd
}
