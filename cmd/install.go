package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/installer"
)

var (
	// Flags for install command
	installZip     string
	installPayload string
	installTarget  string
	installVerify  bool
	installForce   bool
)

// InstallCommand runs the native install engine: what the generated NSIS
// and Inno definitions do, without the external tooling.
var InstallCommand = &cobra.Command{
	Use:   "install",
	Short: "Install a packed payload into the application directory",
	Long: `Installs a payload produced by pack, either from its archive or straight
from the staging directory. An existing user config in the target survives:
the bundled copy lands beside it with a .new suffix. A receipt written into
the target drives uninstall later.`,
	Example: `  # Install the archive produced by pack, after checking its checksums
  lyrisync install --zip dist/LyriSync+_2.0.1_windows_amd64.zip --verify

  # Reinstall straight from the staging directory into a custom location
  lyrisync install --payload dist/payload --target "D:\Apps\LyriSync+"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p := effectivePackaging(cfg)

		payload := installPayload
		if installZip == "" && payload == "" {
			// Fall back to the staging directory pack leaves behind.
			candidate := filepath.Join(p.OutputDir, "payload")
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				log.Infof("using staged payload %s", candidate)
				payload = candidate
			} else {
				return fmt.Errorf("nothing to install: pass --zip or --payload, or run pack first")
			}
		}

		receipt, err := installer.Install(installer.Options{
			ZipPath:    installZip,
			PayloadDir: payload,
			TargetDir:  installTarget,
			Verify:     installVerify,
			Force:      installForce,
			Packaging:  p,
		})
		if err != nil {
			return err
		}
		log.Infof("installed %s %s (%d files)", receipt.App, receipt.Version, len(receipt.Files))
		return nil
	},
}

func init() {
	// Flags specific to install command
	InstallCommand.Flags().StringVar(&installZip, "zip", "", "Release archive to install from")
	InstallCommand.Flags().StringVar(&installPayload, "payload", "", "Staged payload directory to install from")
	InstallCommand.Flags().StringVar(&installTarget, "target", "", "Target directory (default: the platform application directory)")
	InstallCommand.Flags().BoolVar(&installVerify, "verify", false, "Verify the archive against its SHA256SUMS first")
	InstallCommand.Flags().BoolVar(&installForce, "force", false, "Allow replacing a newer installed version")
	addBuildFlags(InstallCommand)
}
