package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"evalpilot/internal/connstore"
	"evalpilot/internal/copilot"
	"evalpilot/internal/logger"
	"evalpilot/internal/server"
	"evalpilot/internal/skills"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch := copilot.NewOrchestrator(registry, copilot.Options{
			MaxIterations:    cfg.Copilot.MaxIterations,
			QualityThreshold: cfg.Copilot.QualityThreshold,
		})
		conns := connstore.New(cfg.Proxy.HandleTTL, cfg.Proxy.MaxHandles)
		srv := server.New(cfg.Server.Addr, registry, orch, conns)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go conns.Run(ctx, time.Minute)

		if cfg.Copilot.WatchSkills {
			go func() {
				if err := skills.Watch(ctx, cfg.Copilot.SkillsDir, registry); err != nil && ctx.Err() == nil {
					logger.Log.Warnf("Skill watcher stopped: %v", err)
				}
			}()
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Log.Infof("Listening on %s", cfg.Server.Addr)
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
