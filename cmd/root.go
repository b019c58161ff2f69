package cmd

import (
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/config"
)

var (
	// Global flags
	configFile string
	verbose    bool
	quiet      bool
)

// resolveConfigPath determines the config file path to use. A missing file
// is not an error here: commands fall back to built-in defaults.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return config.DefaultFileName
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "lyrisync",
	Short: "OpenLP to vMix lyrics bridge and its packaging toolchain",
	Long: `lyrisync mirrors live OpenLP slides onto vMix title inputs, drives overlay
and recording state, and serves a local control API for stream deck style
remotes.

The same binary carries the packaging pipeline: staging a release payload,
zipping it with checksums, generating NSIS/Inno Setup definitions, and a
native install/uninstall engine for unattended Windows deployments.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetHandler(cli.Default)
		if verbose {
			log.SetLevel(log.DebugLevel)
			log.Debugf("Verbose logging enabled")
		} else if quiet {
			log.SetLevel(log.ErrorLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
		log.Debugf("Config file: %s", resolveConfigPath())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("command execution failed")
	}
}

func init() {
	// Disable automatic command sorting to maintain semantic order
	cobra.EnableCommandSorting = false

	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: "+config.DefaultFileName+")")
	RootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Increase log verbosity")
	RootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress progress output")

	RootCmd.AddGroup(&cobra.Group{
		ID:    "runtime",
		Title: "Runtime Commands:",
	})
	RootCmd.AddGroup(&cobra.Group{
		ID:    "packaging",
		Title: "Packaging Commands:",
	})
	RootCmd.AddGroup(&cobra.Group{
		ID:    "utility",
		Title: "Utility Commands:",
	})

	RootCmd.SetHelpCommandGroupID("utility")
	RootCmd.SetCompletionCommandGroupID("utility")

	ServeCommand.GroupID = "runtime"
	StatusCommand.GroupID = "runtime"
	SendCommand.GroupID = "runtime"
	ClearCommand.GroupID = "runtime"
	OverlayCommand.GroupID = "runtime"
	RecordCommand.GroupID = "runtime"
	PackCommand.GroupID = "packaging"
	GenCommand.GroupID = "packaging"
	InstallCommand.GroupID = "packaging"
	UninstallCommand.GroupID = "packaging"
	InitCommand.GroupID = "utility"
	CheckCommand.GroupID = "utility"
	ConnectionsCommand.GroupID = "utility"
	VersionCommand.GroupID = "utility"

	RootCmd.AddCommand(ServeCommand)       // Run the bridge
	RootCmd.AddCommand(StatusCommand)      // Inspect a running instance
	RootCmd.AddCommand(SendCommand)        // Push lyrics by hand
	RootCmd.AddCommand(ClearCommand)       // Blank the titles
	RootCmd.AddCommand(OverlayCommand)     // Overlay control
	RootCmd.AddCommand(RecordCommand)      // Recording control
	RootCmd.AddCommand(PackCommand)        // Step 1: Stage and archive a release
	RootCmd.AddCommand(GenCommand)         // Step 2: Generate installer definitions
	RootCmd.AddCommand(InstallCommand)     // Native install engine
	RootCmd.AddCommand(UninstallCommand)   // Native uninstall engine
	RootCmd.AddCommand(InitCommand)        // Write a starter config
	RootCmd.AddCommand(CheckCommand)       // Validate the config
	RootCmd.AddCommand(ConnectionsCommand) // Import/export connection lists
	RootCmd.AddCommand(VersionCommand)     // Build information
}
