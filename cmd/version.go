package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/version"
)

// VersionCommand prints build information.
var VersionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get().String())
	},
}
