package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"clipline/internal/execx"
	"clipline/internal/pipeline"
	"clipline/internal/server"
	"clipline/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline daemon and HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
		if err := execx.CheckBinaries(binaryRequirements(cfg)); err != nil {
			return err
		}

		// One daemon per data dir; two would race on the asset tree.
		lock := flock.New(cfg.LockPath())
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("another clipline instance is using %s", cfg.Paths.DataDir)
		}
		defer func() { _ = lock.Unlock() }()

		st, err := store.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		rolledBack, err := st.RollbackInFlight(ctx)
		if err != nil {
			return fmt.Errorf("rollback in-flight videos: %w", err)
		}
		if rolledBack > 0 {
			logger.Infow("reset interrupted videos", "count", rolledBack)
		}

		handlers, err := buildHandlers(ctx, cfg, logger, st)
		if err != nil {
			return err
		}
		manager := pipeline.NewManager(st, cfg, logger, handlers)
		manager.Start(ctx)

		srv := server.New(st, cfg, logger, manager)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Infow("shutting down", "signal", sig.String())
		case err := <-errCh:
			if err != nil {
				logger.Errorw("http server failed", "error", err)
			}
		}

		_ = srv.Shutdown()
		cancel()
		manager.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
