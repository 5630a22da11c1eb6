package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/ipl_server/config"
	"github.com/qs3c/ipl_server/internal/api"
	"github.com/qs3c/ipl_server/internal/api/handler"
	"github.com/qs3c/ipl_server/internal/database"
	"github.com/qs3c/ipl_server/internal/pkg/billing"
	"github.com/qs3c/ipl_server/internal/pkg/clock"
	"github.com/qs3c/ipl_server/internal/pkg/cron"
	"github.com/qs3c/ipl_server/internal/pkg/lock"
	"github.com/qs3c/ipl_server/internal/pkg/oss"
	"github.com/qs3c/ipl_server/internal/pkg/pubsub"
	"github.com/qs3c/ipl_server/internal/pkg/queue"
	"github.com/qs3c/ipl_server/internal/pkg/ws"
	"github.com/qs3c/ipl_server/internal/repository"
	"github.com/qs3c/ipl_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.New(cfg.Billing.TimezoneOffsetHours)
	locker := lock.NewRedisLocker(rdb, time.Duration(cfg.Billing.LockTTLSeconds)*time.Second)

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	userService := service.NewUserService(userRepo)
	ledgerService := service.NewLedgerService(auditRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	feeService := service.NewFeeService(repository.NewTxManager(db), feeRepo, locker, clk, cfg)
	feeService.SetNotifier(service.NewQueueNotifier(queue.NewQueue(rdb, cfg.Queue.NotificationQueue)))

	feeHandler := handler.NewFeeHandler(feeService, ledgerService)

	// 初始化 OSS（可选）
	if cfg.OSS.Endpoint != "" && cfg.OSS.AccessKeyID != "" {
		ossClient, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			log.Printf("Warning: Failed to init OSS client: %v", err)
		} else {
			feeService.SetArchiver(ossClient)
			feeHandler.SetSnapshotSigner(ossClient)
			log.Println("OSS snapshot archive enabled")
		}
	}

	// WebSocket Hub，worker 发布的通知经 Redis 转发给在线住户
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(ctx, func(event *pubsub.NotificationEvent) {
			if err := wsHub.SendToUser(event.UserID, &ws.Message{Type: event.Type, Data: event}); err != nil {
				log.Printf("Failed to push notification to %s: %v", event.UserID, err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notification subscriber stopped: %v", err)
		}
	}()

	// 每月自动生成
	if cfg.Billing.AutoGenerate {
		cronService := cron.NewService(feeService, clk, billing.FromInts(cfg.Billing.DefaultRates))
		cronService.Start()
		defer cronService.Stop()
	}

	// 初始化 Handler
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		feeHandler,
		handler.NewNotificationHandler(notificationService),
		handler.NewWebSocketHandler(wsHub, notificationService, cfg.JWT.Secret),
		cfg,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.Setup(),
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
