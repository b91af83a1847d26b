package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"prompt_maker_server/api"
	"prompt_maker_server/internal/ai"
	handlers "prompt_maker_server/internal/api"
	"prompt_maker_server/internal/catalog"
	"prompt_maker_server/internal/logger"
	"prompt_maker_server/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Dependency Initialization ---
	refiner, err := ai.NewRefinerFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("refinement client ready", "provider", refiner.Provider(), "timeout", cfg.RefineTimeout)

	tools := catalog.Default()
	sessions := session.NewStore(tools, cfg.SessionTTL, log)
	go sessions.Run(ctx, cfg.SessionSweepInterval)

	apiHandler := handlers.NewAPIHandler(tools, sessions, refiner, log)

	// --- Start API Server ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
		log.Debug("running in gin debug mode")
	}

	router := api.NewRouter(apiHandler,
		handlers.RequestLogger(log),
		handlers.CORS(cfg.CORSAllowedOrigins),
	)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router,
		// Refinement can take up to RefineTimeout, so writes get a margin on top.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RefineTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting API server", "address", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			log.Error("API server listen error", "error", err)
			return err
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("API server forced shutdown", "error", err)
		return err
	}
	log.Info("API server gracefully stopped")
	return nil
}
