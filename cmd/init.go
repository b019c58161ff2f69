package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/config"
	"github.com/lyrisync/lyrisync/pkg/openlp"
)

var (
	// Flags for init command
	initOutputFile string
	initForce      bool
	initVMixURL    string
	initOpenLPHost string
	initOpenLPPort int
	initAPIPort    int
)

// promptForConfirmation prompts the user for confirmation and returns true if they confirm
func promptForConfirmation(message string) bool {
	fmt.Printf("%s (y/N): ", message)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// InitCommand writes a starter config file.
var InitCommand = &cobra.Command{
	Use:   "init",
	Short: "Write a starter " + config.DefaultFileName,
	Long: `Writes a config file preloaded with the built-in defaults: one OpenLP
connection on localhost feeding the SongTitle input, overlay automation on,
and the control API on port 5000.`,
	Example: `  # Starter config in the current directory
  lyrisync init

  # Point the starter config at another machine's vMix
  lyrisync init --vmix-url http://10.0.0.5:8088/api

  # Overwrite an existing config without confirmation
  lyrisync init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := initOutputFile
		if path == "" {
			path = resolveConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			if !promptForConfirmation(fmt.Sprintf("%s already exists. Overwrite?", path)) {
				log.Info("init cancelled")
				return nil
			}
		}

		cfg := config.Default()
		if initVMixURL != "" {
			cfg.Settings.VMixAPIURL = initVMixURL
		}
		if initOpenLPHost != "" {
			cfg.Settings.OpenLPWSURL = fmt.Sprintf("ws://%s:%d", initOpenLPHost, initOpenLPPort)
		}
		if initAPIPort != 0 {
			cfg.Settings.APIPort = initAPIPort
		}

		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("failed to write starter config: %w", err)
		}
		log.Infof("starter config written to %s", path)
		return nil
	},
}

func init() {
	InitCommand.Flags().StringVarP(&initOutputFile, "output", "o", "", "Output path (default: the --config path or "+config.DefaultFileName+")")
	InitCommand.Flags().BoolVar(&initForce, "force", false, "Skip confirmation when overwriting existing files")
	InitCommand.Flags().StringVar(&initVMixURL, "vmix-url", "", "vMix HTTP API URL for the starter config")
	InitCommand.Flags().StringVar(&initOpenLPHost, "openlp-host", "", "OpenLP WebSocket host for the starter config")
	InitCommand.Flags().IntVar(&initOpenLPPort, "openlp-port", openlp.DefaultPort, "OpenLP WebSocket port for the starter config")
	InitCommand.Flags().IntVar(&initAPIPort, "api-port", 0, "Control API port for the starter config")
}
