package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/app/presence"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/app/registry"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/app/server"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/config"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/core/services"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/crypto"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/logger"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/metrics"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/platform/telemetry"
	"github.com/TOSEEB/ChattApp-mini-whatsup/internal/plugins/postgres"
	redisPlugin "github.com/TOSEEB/ChattApp-mini-whatsup/internal/plugins/redis"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Logger
	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		if otelShutdown == nil {
			return
		}
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	log.Info("postgres connected")

	// Adapters
	userRepo := postgres.NewUserRepository(pdb)
	convRepo := postgres.NewConversationRepo(pdb)
	roomRepo := postgres.NewRoomRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	memberRepo := postgres.NewMembershipRepo(pdb)

	codec, err := crypto.NewCodec(cfg.Crypto.Secret, cfg.Crypto.Salt)
	if err != nil {
		log.Error("content codec init failed", "err", err)
		return
	}

	// Core
	m := metrics.New(prometheus.DefaultRegisterer)
	hub := registry.NewRegistry(log, m)
	tracker := presence.NewTracker()

	if cfg.Redis.Enabled {
		rdb, err := redisPlugin.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "url", cfg.Redis.URL)
			return
		}
		log.Info("redis connected")
		bridge := redisPlugin.NewRedisEventBridge(log, rdb)
		if err := hub.AttachBridge(ctx, bridge); err != nil {
			log.Error("event bridge attach failed", "err", err)
			return
		}
	}

	tokenSvc := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userSvc := services.NewUserService(log, userRepo, tokenSvc)
	statusSvc := services.NewStatusService(log, msgRepo, hub, m)
	msgSvc := services.NewMessageService(log, msgRepo, hub, codec, m)
	chatSvc := services.NewChatService(log, userRepo, convRepo, roomRepo, msgRepo, memberRepo, tracker, msgSvc, statusSvc)
	sessionSvc := services.NewSessionController(log, hub, tracker, tokenSvc, userRepo, memberRepo, msgSvc, statusSvc)

	// Server
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, userSvc, tokenSvc, chatSvc, sessionSvc)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
	}
}
