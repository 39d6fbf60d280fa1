package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-seat-assignment/internal/api/handler"
	"github.com/sanosuguru/go-event-seat-assignment/internal/api/router"
	"github.com/sanosuguru/go-event-seat-assignment/internal/application"
	"github.com/sanosuguru/go-event-seat-assignment/internal/config"
	"github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-event-seat-assignment/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/logger"
	"github.com/sanosuguru/go-event-seat-assignment/internal/pkg/metrics"
	"github.com/sanosuguru/go-event-seat-assignment/internal/worker"
)

// 起動時の Redis 疎通確認のタイムアウト
const redisPingTimeout = 3 * time.Second

func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)
	defer logger.Sync()
	m := metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
			logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
		}
	}

	checks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}

	// Redis（任意）。接続できなければキャッシュと分散ロックなしで動かす
	var (
		cache  redisinfra.ReservationCacheInterface
		locker redisinfra.LockManagerInterface
	)
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	err = redisinfra.Ping(pingCtx, redisClient)
	cancel()
	if err != nil {
		logger.Warn("Redisに接続できないため、キャッシュと分散ロックを無効にします", zap.Error(err))
	} else {
		cache = redisinfra.NewReservationCache(redisClient, cfg.Redis.SnapshotTTL)
		locker = redisinfra.NewLockManager(redisClient, m)
		checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) }
	}

	// RabbitMQ（任意）
	var publisher rabbitmq.PublisherInterface
	if cfg.RabbitMQ.Enabled() {
		p, err := rabbitmq.NewPublisher(&cfg.RabbitMQ)
		if err != nil {
			logger.Warn("RabbitMQに接続できないため、変更通知を無効にします", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	}

	// リポジトリ
	eventRepo := postgres.NewEventRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	blockRepo := postgres.NewSeatBlockRepository(db)
	txManager := postgres.NewTxManager(db)

	// サービス
	eventService := application.NewEventService(eventRepo, cache)
	participantService := application.NewParticipantService(participantRepo, eventRepo)
	seatService := application.NewSeatService(seatRepo)
	reservationService := application.NewReservationService(
		txManager, reservationRepo, eventRepo, participantRepo, seatRepo, blockRepo, cache, publisher, m,
	)
	seatBlockService := application.NewSeatBlockService(blockRepo, eventRepo, seatRepo, publisher, m)
	occupancyService := application.NewOccupancyService(reservationRepo, blockRepo)

	e := router.New(router.Handlers{
		Health:      handler.NewHealthHandler(checks),
		Event:       handler.NewEventHandler(eventService),
		Participant: handler.NewParticipantHandler(participantService),
		Seat:        handler.NewSeatHandler(seatService),
		Reservation: handler.NewReservationHandler(reservationService),
		SeatBlock:   handler.NewSeatBlockHandler(seatBlockService),
	}, router.Options{
		Metrics:     m,
		MetricsAuth: cfg.Metrics,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// バックグラウンドワーカー
	var refresher *worker.OccupancyRefresher
	if cfg.Worker.OccupancyEnabled {
		refresher = worker.NewOccupancyRefresher(occupancyService, locker, m, cfg.Worker.OccupancyInterval)
		go refresher.Start(ctx)
	}

	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("サーバーをシャットダウンしています...")

	if refresher != nil {
		refresher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
		return
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
