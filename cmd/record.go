package cmd

import (
	"fmt"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/httpapi"
)

// RecordCommand starts or stops vMix recording through a running instance.
var RecordCommand = &cobra.Command{
	Use:       "record start|stop",
	Short:     "Control vMix recording",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"start", "stop"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := httpapi.NewClient(cfg.Settings.APIPort)

		switch args[0] {
		case "start":
			if err := client.StartRecording(cmd.Context()); err != nil {
				return err
			}
			log.Info("recording started")
		case "stop":
			if err := client.StopRecording(cmd.Context()); err != nil {
				return err
			}
			log.Info("recording stopped")
		default:
			return fmt.Errorf("unknown recording action %q, use start or stop", args[0])
		}
		return nil
	},
}
