package cmd

import (
	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/httpapi"
)

// ClearCommand blanks the configured vMix titles.
var ClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Clear the lyrics from the configured vMix titles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := httpapi.NewClient(cfg.Settings.APIPort)
		if err := client.Clear(cmd.Context()); err != nil {
			return err
		}
		log.Info("lyrics cleared")
		return nil
	},
}
