package cmd

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/config"
)

// ConnectionsCommand groups the JSON connection-list exchange used to move
// setups between machines.
var ConnectionsCommand = &cobra.Command{
	Use:   "connections",
	Short: "Import or export the connection list as JSON",
}

var connectionsImportCommand = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the configured connections with a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conns, err := config.ImportConnections(args[0])
		if err != nil {
			return err
		}
		if len(conns) == 0 {
			return fmt.Errorf("%s contains no connections", args[0])
		}

		cfg.Connections = conns
		path := resolveConfigPath()
		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("failed to save config %s: %w", path, err)
		}
		log.Infof("imported %d connection(s) into %s", len(conns), path)
		return nil
	},
}

var connectionsExportCommand = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the configured connections to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Export the effective list so legacy single-endpoint configs
		// produce a usable file.
		conns := cfg.Bundles()
		if err := config.ExportConnections(args[0], conns); err != nil {
			return err
		}
		log.Infof("exported %d connection(s) to %s", len(conns), args[0])
		return nil
	},
}

func init() {
	ConnectionsCommand.AddCommand(connectionsImportCommand)
	ConnectionsCommand.AddCommand(connectionsExportCommand)
}
