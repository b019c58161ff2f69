package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/httpapi"
)

var statusJSON bool

// StatusCommand queries a running instance over the control API.
var StatusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running lyrisync instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := httpapi.NewClient(cfg.Settings.APIPort)
		state, err := client.Status(cmd.Context())
		if err != nil {
			return err
		}

		if statusJSON {
			out, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode status: %w", err)
			}
			fmt.Println(string(out))
			return nil
		}

		lyrics := state.Lyrics
		if lyrics == "" {
			lyrics = "(blank)"
		}
		fmt.Printf("lyrics:          %s\n", lyrics)
		fmt.Printf("overlay on:      %t\n", state.OverlayOn)
		fmt.Printf("recording:       %t\n", state.Recording)
		fmt.Printf("connections ok:  %d\n", state.ConnectionsOK)
		return nil
	},
}

func init() {
	StatusCommand.Flags().BoolVar(&statusJSON, "json", false, "Print the raw status JSON")
}
