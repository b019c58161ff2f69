package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lyrisync/lyrisync/pkg/bridge"
	"github.com/lyrisync/lyrisync/pkg/httpapi"
)

// ServeCommand runs the bridge and its control API until interrupted.
var ServeCommand = &cobra.Command{
	Use:   "serve",
	Short: "Run the OpenLP to vMix bridge with its control API",
	Long: `Connects to every configured OpenLP instance, mirrors incoming slides onto
the mapped vMix title inputs, and serves the local control API on the
configured port. Runs until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := newServiceLogger(cfg.Settings.LogLevel)
		br := bridge.New(cfg, logger)
		api := httpapi.New(cfg.Settings.APIPort, br, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Infof("serving control API on port %d", cfg.Settings.APIPort)

		errCh := make(chan error, 2)
		go func() { errCh <- br.Run(ctx) }()
		go func() { errCh <- api.Run(ctx) }()

		var firstErr error
		for i := 0; i < 2; i++ {
			if err := <-errCh; err != nil && firstErr == nil {
				firstErr = err
				stop()
			}
		}
		if firstErr != nil {
			return fmt.Errorf("bridge terminated: %w", firstErr)
		}
		log.Info("shutdown complete")
		return nil
	},
}

// newServiceLogger builds the structured logger the long-running pieces
// share, leveled from settings.log_level.
func newServiceLogger(level string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}
