package cmd

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/pack"
)

var packArch string

// PackCommand stages a pre-built application directory into a distributable
// archive with integrity metadata.
var PackCommand = &cobra.Command{
	Use:   "pack",
	Short: "Bundle a pre-built application directory into a release archive",
	Long: `Copies the source directory into a clean payload staging area, writes the
payload manifest, zips the result, and records SHA256 checksums beside the
archive. The staging directory is kept: the install engine and the generated
installer definitions both consume it.`,
	Example: `  # Package dist/LyriSyncPlus as version 2.0.1
  lyrisync pack --source-dir dist/LyriSyncPlus --app-version 2.0.1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p := effectivePackaging(cfg)
		if p.Version == "" {
			return fmt.Errorf("packaging version is required (see --app-version)")
		}
		if p.SourceDir == "" {
			return fmt.Errorf("packaging source_dir is required (see --source-dir)")
		}

		staging := filepath.Join(p.OutputDir, "payload")
		log.Infof("staging %s into %s", p.SourceDir, staging)
		if err := pack.Stage(p.SourceDir, staging); err != nil {
			return err
		}

		manifest, err := pack.BuildManifest(staging, p.AppName, p.Version)
		if err != nil {
			return err
		}
		if err := pack.WriteManifest(staging, manifest); err != nil {
			return err
		}
		log.Infof("manifest covers %d file(s), %d bytes", len(manifest.Files), manifest.TotalSize)

		zipPath := filepath.Join(p.OutputDir, pack.ArchiveName(p.AppName, p.Version, packArch))
		if err := pack.Archive(staging, zipPath); err != nil {
			return err
		}
		log.Infof("archive written to %s", zipPath)

		sumsPath := filepath.Join(p.OutputDir, pack.SumsName)
		if err := pack.WriteSums(sumsPath, zipPath); err != nil {
			return err
		}
		log.Infof("checksums written to %s", sumsPath)
		return nil
	},
}

func init() {
	addBuildFlags(PackCommand)
	PackCommand.Flags().StringVar(&packArch, "arch", runtime.GOARCH, "Architecture label for the archive name")
}
