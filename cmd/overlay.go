package cmd

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/httpapi"
)

// OverlayCommand controls the configured overlay channel.
var OverlayCommand = &cobra.Command{
	Use:       "overlay [toggle]",
	Short:     "Toggle the lyrics overlay on the configured channel",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"toggle", "in", "out", "on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		verb := "toggle"
		if len(args) > 0 {
			verb = args[0]
		}
		if verb != "toggle" {
			return fmt.Errorf("overlay %s is not available over the control API, only toggle is", verb)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := httpapi.NewClient(cfg.Settings.APIPort)
		if err := client.ToggleOverlay(cmd.Context()); err != nil {
			return err
		}
		log.Info("overlay toggled")
		return nil
	},
}
