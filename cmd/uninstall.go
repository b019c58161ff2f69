package cmd

import (
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/installer"
)

var (
	// Flags for uninstall command
	uninstallTarget string
	uninstallPurge  bool
)

// UninstallCommand removes a managed install, mirroring what the generated
// uninstaller scripts do.
var UninstallCommand = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove an installed payload, keeping the user config",
	Long: `Removes exactly the files the install receipt lists, prunes emptied
directories, and deregisters the app from the system. The user's config file
stays behind unless --purge is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p := effectivePackaging(cfg)

		if err := installer.Uninstall(installer.UninstallOptions{
			TargetDir: uninstallTarget,
			AppName:   p.AppName,
			Purge:     uninstallPurge,
		}); err != nil {
			return err
		}
		log.Info("uninstall complete")
		return nil
	},
}

func init() {
	// Flags specific to uninstall command
	UninstallCommand.Flags().StringVar(&uninstallTarget, "target", "", "Target directory (default: the platform application directory)")
	UninstallCommand.Flags().BoolVar(&uninstallPurge, "purge", false, "Also remove the preserved user config")
	addBuildFlags(UninstallCommand)
}
