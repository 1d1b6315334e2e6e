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

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	"dialdesk/internal/audit"
	"dialdesk/internal/auth"
	"dialdesk/internal/calls"
	"dialdesk/internal/compliance"
	"dialdesk/internal/config"
	"dialdesk/internal/crm"
	"dialdesk/internal/dialer"
	"dialdesk/internal/httpapi"
	"dialdesk/internal/realtime"
	"dialdesk/internal/telephony"
	"dialdesk/internal/tts"
	"dialdesk/pkg/logger"
	"dialdesk/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Domain services.
	dncRepo := &compliance.PostgresRepo{DB: db}
	gate := compliance.NewGate(dncRepo,
		compliance.WithRestrictedDayBlocking(cfg.Compliance.BlockRestrictedDays))

	hub := realtime.NewHub(log)
	sessions := calls.NewStore(&calls.PostgresRepo{DB: db}, nil, log)

	provider := telephony.NewTwilioProvider(cfg.Twilio)

	dialSvc := dialer.NewService(gate, sessions, provider,
		dialer.NewRedisSlotLimiter(rdb, cfg.Compliance.MaxConcurrentDialsPerAgent),
		dialer.Config{
			FromNumber: cfg.Twilio.PhoneNumber,
			URLs: dialer.WebhookURLs{
				Voice:     cfg.Twilio.WebhookBaseURL + "/webhooks/twilio/voice",
				Status:    cfg.Twilio.WebhookBaseURL + "/webhooks/twilio/status",
				Recording: cfg.Twilio.WebhookBaseURL + "/webhooks/twilio/recording",
			},
			Record:      true,
			MaxParallel: cfg.Compliance.MaxConcurrentDialsPerAgent,
		}, log)

	// Status changes fan out to the agent console and free dial slots.
	sessions.SetNotifier(calls.MultiNotifier{
		realtime.NewCallNotifier(hub),
		dialSvc.SlotReleaser(),
	})

	auditSvc := audit.NewService(&audit.PostgresRepo{DB: db})

	handlers := httpapi.Handlers{
		Auth:                authManager,
		Dialer:              dialSvc,
		Sessions:            sessions,
		Compliance:          compliance.NewService(dncRepo),
		Gate:                gate,
		Provider:            provider,
		Audit:               auditSvc,
		BlockRestrictedDays: cfg.Compliance.BlockRestrictedDays,
	}
	if cfg.HubSpot.APIKey != "" {
		handlers.CRM = crm.NewHubSpotClient(cfg.HubSpot, log)
	}
	if cfg.ElevenLabs.APIKey != "" {
		handlers.TTS = tts.NewElevenLabsClient(cfg.ElevenLabs, log)
	}

	webhookOpts := []telephony.WebhookOption{}
	if cfg.IsProduction() {
		webhookOpts = append(webhookOpts,
			telephony.WithSignatureValidation(cfg.Twilio.AuthToken, cfg.Twilio.WebhookBaseURL))
	}
	webhooks := telephony.NewWebhookHandler(sessions, webhookOpts...)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers, webhooks, hub, authManager)

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
}
