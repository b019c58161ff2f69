package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/internal/winscript"
	"github.com/lyrisync/lyrisync/pkg/config"
)

var (
	// Flags for gen command
	genFormat     string
	genOutputFile string
)

type scriptFormat struct {
	ext      string
	generate func(*config.Packaging) ([]byte, error)
}

var scriptFormats = map[string]scriptFormat{
	"nsis": {ext: ".nsi", generate: winscript.GenerateNSIS},
	"inno": {ext: ".iss", generate: winscript.GenerateInno},
}

// GenCommand generates the Windows installer definitions from the
// packaging config.
var GenCommand = &cobra.Command{
	Use:   "gen",
	Short: "Generate NSIS and Inno Setup installer definitions",
	Long: `Renders the packaging config into installer-authoring scripts: a .nsi for
makensis and a .iss for the Inno Setup compiler. Every build variable can be
overridden on the command line without touching the config file.`,
	Example: `  # Both definitions into the configured output directory
  lyrisync gen --app-version 2.0.1

  # Only the NSIS script, printed to stdout
  lyrisync gen --format nsis -o -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p := effectivePackaging(cfg)

		names := []string{"nsis", "inno"}
		if genFormat != "all" {
			if _, ok := scriptFormats[genFormat]; !ok {
				return fmt.Errorf("unknown format %q, valid formats are: nsis, inno, all", genFormat)
			}
			names = []string{genFormat}
		}
		if genOutputFile != "" && len(names) > 1 {
			return fmt.Errorf("--output needs a single --format")
		}

		for _, name := range names {
			format := scriptFormats[name]
			script, err := format.generate(&p)
			if err != nil {
				return fmt.Errorf("failed to generate %s definition: %w", name, err)
			}

			if genOutputFile == "-" {
				fmt.Print(string(script))
				continue
			}

			outPath := genOutputFile
			if outPath == "" {
				base := strings.ReplaceAll(p.AppName, " ", "") + format.ext
				outPath = filepath.Join(p.OutputDir, base)
			}
			if dir := filepath.Dir(outPath); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory %s: %w", dir, err)
				}
			}
			if err := os.WriteFile(outPath, script, 0644); err != nil {
				return fmt.Errorf("failed to write %s definition to %s: %w", name, outPath, err)
			}
			log.Infof("%s definition written to %s", name, outPath)
		}
		return nil
	},
}

func init() {
	// Flags specific to gen command
	GenCommand.Flags().StringVar(&genFormat, "format", "all", "Definition format to generate: nsis, inno, or all")
	GenCommand.Flags().StringVarP(&genOutputFile, "output", "o", "", "Output path for a single format (use '-' for stdout)")
	addBuildFlags(GenCommand)
}
