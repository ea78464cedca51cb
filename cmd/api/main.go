package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"foodway/internal/config"
	"foodway/internal/database"
	"foodway/internal/logger"
	"foodway/internal/middleware"
	"foodway/internal/repository"
	"foodway/internal/server"
	"foodway/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// @title           Restaurant Menu API
// @version         1.0
// @description     Menus, tables, QR codes and orders for restaurants.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	startedAt := time.Now()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").WithError(err).Fatal("Invalid configuration")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("Database connection failed")
	}
	log.Info("Connected to PostgreSQL successfully")

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.WithError(err).Fatal("Database migration failed")
		}
	}
	if err := database.EnsureSuperAdmin(db, log, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.WithError(err).Fatal("Super admin bootstrap failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up WebSocket Hub
	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go limiter.Run(ctx.Done())
	}

	go purgeExpiredTokens(ctx, repository.NewAuthTokenRepository(db), log)

	router := server.NewRouter(server.Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Hub:       hub,
		Limiter:   limiter,
		StartedAt: startedAt,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).WithField("environment", cfg.Env).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("Server stopped")
}

// purgeExpiredTokens deletes refresh and reset tokens past their expiry once an hour.
func purgeExpiredTokens(ctx context.Context, tokens repository.AuthTokenRepository, log logrus.FieldLogger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := tokens.DeleteExpired(ctx, time.Now())
			if err != nil {
				log.WithError(err).Warn("failed to purge expired auth tokens")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Info("Expired auth tokens purged")
			}
		case <-ctx.Done():
			return
		}
	}
}
