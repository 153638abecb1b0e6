package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach-platform/internal/activity"
	"outreach-platform/internal/analytics"
	"outreach-platform/internal/auth"
	"outreach-platform/internal/campaigns"
	"outreach-platform/internal/config"
	"outreach-platform/internal/dialer"
	"outreach-platform/internal/httpapi"
	"outreach-platform/internal/inbox"
	"outreach-platform/internal/phone"
	"outreach-platform/internal/scripts"
	"outreach-platform/internal/telephony"
	"outreach-platform/pkg/logger"
	"outreach-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional env file for local development; real deployments set env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	provider, err := telephony.NewTwilioProvider(telephony.TwilioConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
	})
	if err != nil {
		log.Error("telephony init failed", "err", err)
		os.Exit(1)
	}

	generator, err := scripts.NewGeminiGenerator(rootCtx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Error("script generator init failed", "err", err)
		os.Exit(1)
	}
	defer generator.Close()

	region := phone.Region{CountryCode: cfg.Dialer.DefaultCountryCode}

	disp, err := dialer.New(provider, cfg.Twilio.FromNumber, log,
		dialer.WithPacing(cfg.Dialer.PacingInterval),
		dialer.WithRegion(region),
	)
	if err != nil {
		log.Error("dialer init failed", "err", err)
		os.Exit(1)
	}

	campaignRepo := campaigns.NewPostgresRepo(db)
	messageRepo := inbox.NewPostgresRepo(db)
	events := activity.NewService(activity.NewMemoryRepo())

	launchLock := campaigns.NewRedisLaunchLock(rdb, 0)
	launcher := campaigns.NewLauncher(campaignRepo, disp, launchLock, events, region, log)

	analyticsSvc := analytics.NewService(campaignRepo, messageRepo, provider, log)
	refresher := analytics.NewRefresher(analyticsSvc, campaignRepo, events, log, "")
	if err := refresher.Start(); err != nil {
		log.Error("analytics refresher init failed", "err", err)
		os.Exit(1)
	}
	defer refresher.Stop()

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Auth:      authManager,
		Campaigns: campaignRepo,
		Launcher:  launcher,
		Analytics: analyticsSvc,
		Inbox:     messageRepo,
		Scripts:   generator,
		Activity:  events,
	}
	registerRoutes(r, h, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
