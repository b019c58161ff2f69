package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/httpapi"
)

// SendCommand pushes lyrics to a running instance by hand.
var SendCommand = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send lyrics to the configured vMix titles",
	Long: `Sends the given text through a running lyrisync instance as if it arrived
from OpenLP. With no arguments the text is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		if text == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read text from stdin: %w", err)
			}
			text = strings.TrimSpace(string(data))
		}
		if text == "" {
			return fmt.Errorf("nothing to send")
		}

		client := httpapi.NewClient(cfg.Settings.APIPort)
		if err := client.Send(cmd.Context(), text); err != nil {
			return err
		}
		log.Info("lyrics sent")
		return nil
	},
}
