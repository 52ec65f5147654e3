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
	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/restaurant-reservations/config"
	"github.com/yeremiapane/restaurant-reservations/controllers"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/floor"
	"github.com/yeremiapane/restaurant-reservations/metrics"
	"github.com/yeremiapane/restaurant-reservations/middlewares"
	"github.com/yeremiapane/restaurant-reservations/queue"
	"github.com/yeremiapane/restaurant-reservations/router"
	"github.com/yeremiapane/restaurant-reservations/services"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	utils.InitJWT(cfg.JWTSecret)

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := controllers.RegisterValidators(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to register validators: %v", err)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	metrics.Register()

	locker, redisClient := newLocker(cfg)

	hub := floor.NewHub()
	notifier := events.Multi{hub}
	var publisher *queue.Publisher
	if cfg.AMQPURL != "" {
		publisher = queue.NewPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		notifier = append(notifier, publisher)
		utils.InfoLogger.Infof("Publishing events to queue %s", cfg.AMQPQueue)
	}

	assignments := services.NewTableAssignmentService(db,
		services.NewTimeWindowResolver(cfg.DefaultSeatingDuration),
		services.WithLocker(locker),
		services.WithNotifier(notifier),
		services.WithLockWait(cfg.LockWait),
	)
	reservations := services.NewReservationService(db, notifier)
	reconciler := services.NewReconciler(db,
		services.WithLocation(cfg.Location),
		services.WithReconcileNotifier(notifier),
	)

	var scheduler *services.ReconcileScheduler
	if cfg.ReconcileEnabled {
		scheduler = services.NewReconcileScheduler(reconciler, cfg.ReconcileCron, time.Minute)
		if err := scheduler.Start(); err != nil {
			utils.ErrorLogger.Fatalf("Failed to start reconcile scheduler: %v", err)
		}
	}

	r := router.SetupRouter(router.Deps{
		DB:          db,
		Assignments: assignments,
		Reservation: reservations,
		Reconciler:  reconciler,
		Notifier:    notifier,
		Hub:         hub,
		RateLimiter: middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigin:  cfg.CORSOrigin,
		JobToken:    cfg.JobToken,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		utils.ErrorLogger.Warnf("Invalid trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Infof("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	utils.InfoLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Errorf("HTTP shutdown: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	if publisher != nil {
		_ = publisher.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLocker returns the configured lock backend. A redis backend that cannot
// be reached is fatal: running unlocked across instances could double-book.
func newLocker(cfg config.Config) (services.TableLocker, *redis.Client) {
	if cfg.LockBackend != config.LockBackendRedis {
		return services.NewMemoryLocker(), nil
	}
	client, err := config.NewRedisClient(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to redis at %s: %v", cfg.RedisAddr, err)
	}
	utils.InfoLogger.Infof("Using redis table locks at %s", cfg.RedisAddr)
	return services.NewRedisLocker(client, cfg.LockTTL), client
}
