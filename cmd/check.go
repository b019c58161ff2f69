package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/bridge"
	"github.com/lyrisync/lyrisync/pkg/config"
	"github.com/lyrisync/lyrisync/pkg/vmix"
)

var (
	// Flags for check command
	checkProbe        bool
	checkProbeTimeout time.Duration
)

// CheckCommand represents the check command
var CheckCommand = &cobra.Command{
	Use:   "check",
	Short: "Check and validate the config file",
	Long: `Checks the configuration by:
- Applying the same clamps the bridge applies at startup
- Validating connections, deck roles, and the packaging block
- Optionally probing each configured vMix API for reachability

This makes it easy to validate a config before going live without starting
the bridge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("Running check command...")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		displayBundles(cfg)

		problems := validateConfig(cfg)
		for _, p := range problems {
			log.Warnf("%s", p)
		}

		if checkProbe {
			probeVMix(cmd.Context(), cfg)
		}

		if len(problems) > 0 {
			return fmt.Errorf("config has %d problem(s)", len(problems))
		}
		log.Info("✓ Check completed successfully")
		return nil
	},
}

// validateConfig collects every problem instead of stopping at the first,
// so one run shows the full repair list.
func validateConfig(cfg *config.Config) []string {
	var problems []string

	for _, b := range cfg.Bundles() {
		if u, err := url.Parse(b.VMixAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			problems = append(problems, fmt.Sprintf("connection %q: vmix_api_url %q is not an http(s) URL", b.Name, b.VMixAPIURL))
		}
		if len(b.Mappings) == 0 {
			problems = append(problems, fmt.Sprintf("connection %q has no title mappings, its slides go nowhere", b.Name))
		}
		for _, m := range b.Mappings {
			if m.Input == "" || m.Field == "" {
				problems = append(problems, fmt.Sprintf("connection %q has a mapping with an empty input or field", b.Name))
			}
		}
	}

	for _, role := range cfg.Roles {
		if len(role.Decks) == 0 {
			problems = append(problems, fmt.Sprintf("role %q matches no decks", role.Name))
		}
		if len(role.Buttons) == 0 {
			problems = append(problems, fmt.Sprintf("role %q has no button bindings", role.Name))
		}
		for key, action := range role.Buttons {
			if !bridge.KnownAction(action) {
				problems = append(problems, fmt.Sprintf("role %q binds key %q to unknown action %q", role.Name, key, action))
			}
		}
	}

	// Packaging completeness only matters for pack/gen/install, so report
	// it without failing the check.
	for field, value := range map[string]string{
		"app_name": cfg.Packaging.AppName,
		"exe_name": cfg.Packaging.ExeName,
		"version":  cfg.Packaging.Version,
	} {
		if value == "" {
			log.Debugf("packaging.%s is empty, pack/gen will need a flag override", field)
		}
	}

	return problems
}

// displayBundles prints the effective connection table after legacy
// fallbacks and defaults are applied.
func displayBundles(cfg *config.Config) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONNECTION\tOPENLP\tVMIX\tMAPPINGS")
	fmt.Fprintln(w, "----------\t------\t----\t--------")
	for _, b := range cfg.Bundles() {
		fmt.Fprintf(w, "%s\tws://%s:%d\t%s\t%d\n", b.Name, b.OpenLPIP, b.WSPort, b.VMixAPIURL, len(b.Mappings))
	}
	w.Flush()
}

// probeVMix hits every configured vMix API and reports reachability.
func probeVMix(ctx context.Context, cfg *config.Config) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONNECTION\tVMIX\tSTATUS")
	fmt.Fprintln(w, "----------\t----\t------")

	for _, b := range cfg.Bundles() {
		client := vmix.NewClient(b.VMixAPIURL)
		probeCtx, cancel := context.WithTimeout(ctx, checkProbeTimeout)
		status, err := client.Status(probeCtx)
		cancel()
		client.Close()

		if err != nil {
			fmt.Fprintf(w, "%s\t%s\t✗ %v\n", b.Name, b.VMixAPIURL, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t✓ REACHABLE (recording=%t)\n", b.Name, b.VMixAPIURL, status.Recording)
	}
	w.Flush()
}

func init() {
	// Flags specific to check command
	CheckCommand.Flags().BoolVar(&checkProbe, "probe", false, "Probe each configured vMix API for reachability")
	CheckCommand.Flags().DurationVar(&checkProbeTimeout, "probe-timeout", 5*time.Second, "Timeout per vMix probe")
}
