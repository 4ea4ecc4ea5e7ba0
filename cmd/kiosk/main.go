package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/api"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/config"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/kiosk"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/logger"
	"github.com/Levintaps/OjtAttendanceApplication-sub000/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", true)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Pretty)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	client := api.New(cfg.API.BaseURL, cfg.API.Timeout, log)
	controller := session.NewController(client, cfg.Kiosk, log)
	defer controller.Close()

	pollCtx, stopPoll := context.WithCancel(context.Background())
	defer stopPoll()
	if cfg.Kiosk.StatusRefresh > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Kiosk.StatusRefresh)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					controller.Refresh(pollCtx)
				case <-pollCtx.Done():
					return
				}
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      kiosk.NewServer(controller, client, cfg, log).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("kiosk surface listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("kiosk surface failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("kiosk stopped")
}
