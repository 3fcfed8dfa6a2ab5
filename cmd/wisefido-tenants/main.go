package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wisefido-tenants/internal/config"
	"wisefido-tenants/internal/database"
	httpapi "wisefido-tenants/internal/http"
	applog "wisefido-tenants/internal/logger"
	"wisefido-tenants/internal/notify"
	"wisefido-tenants/internal/oplog"
	"wisefido-tenants/internal/pool"
	"wisefido-tenants/internal/repository"
	"wisefido-tenants/internal/schema"
	"wisefido-tenants/internal/service"
	"wisefido-tenants/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := applog.New(cfg.Log.Level, cfg.Log.Format, "wisefido-tenants")
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	// control schema 连接（登记表 + CREATE/DROP SCHEMA）
	controlDB, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect control database", zap.Error(err))
	}
	defer controlDB.Close()

	tenantsRepo := repository.NewPostgresTenantsRepository(controlDB)
	if err := tenantsRepo.EnsureRegistry(context.Background()); err != nil {
		logger.Fatal("failed to ensure tenants registry", zap.Error(err))
	}

	ops := oplog.New(logger)

	// 租户 schema 连接池 + 周期健康检查
	schemaPool := pool.New(pool.Config{
		DSN:        cfg.Database.GetDSN(),
		MaxEntries: cfg.Pool.MaxEntries,
		IdleTTL:    cfg.Pool.IdleTTL,
		EvictBatch: cfg.Pool.EvictBatch,
	}, logger, ops)
	defer schemaPool.CloseAll()

	health := pool.NewHealthChecker(schemaPool, cfg.Pool.HealthInterval, logger, ops)
	health.Start()
	defer health.Stop()

	schemaManager := schema.NewPostgresManager(controlDB, schemaPool, ops)

	// 可选的描述符缓存
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	}

	// 可选的生命周期事件发布（MQTT / webhook）
	var notifiers notify.Multi
	if cfg.MQTT.Enabled {
		mqttNotifier, err := notify.NewMQTTNotifier(notify.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Topic:    cfg.MQTT.Topic,
			QoS:      1,
		}, logger)
		if err != nil {
			logger.Warn("MQTT notifier disabled: broker unreachable", zap.Error(err))
		} else {
			notifiers = append(notifiers, mqttNotifier)
			defer mqttNotifier.Close()
		}
	}
	if cfg.Webhook.URL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.Webhook.URL, logger))
	}
	var notifier notify.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	tenantService := service.NewTenantService(tenantsRepo, schemaManager, cfg.SchemaPrefix, kv, notifier, logger)

	router := httpapi.NewRouter(logger)
	router.RegisterTenantRoutes(httpapi.NewTenantHandler(tenantService, logger))

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		logger.Error("HTTP server exited", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
