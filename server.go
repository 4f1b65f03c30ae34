package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"photoshare/api/handlers"
	"photoshare/api/routes"
	"photoshare/config"
	"photoshare/db"
	"photoshare/logger"
	"photoshare/services"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const serviceName = "photoshare"

func buildHandlers(orm *gorm.DB, conf *config.ConfigSchema, limiter *services.ActionLimiter, publisher services.EventPublisher) *handlers.Handlers {
	store := services.NewGormRelationStore(orm)
	access := services.NewAccessEvaluator(store, services.NewImageCounter(orm), conf.Uploads.PerAlbumQuota)
	relations := services.NewRelationshipMutator(store, publisher)
	users := services.NewUserService(orm)

	return &handlers.Handlers{
		Users: users,
		PasswordReset: services.NewPasswordResetService(orm, users, limiter, publisher,
			conf.PasswordReset.MinDuration, conf.PasswordReset.MaxJitter, conf.PasswordReset.TokenTTL),
		Access:    access,
		Relations: relations,
		Albums:    services.NewAlbumService(orm, access, publisher, conf.Uploads.PerAlbumQuota),
		Reports:   services.NewReportService(orm),
		Timeline:  services.NewTimelineService(orm, relations),
		WS:        services.GlobalWSConnManager,
	}
}

// newRateLimiter - Redis, если доступен, иначе счетчики в памяти процесса
func newRateLimiter(ctx context.Context) services.RateLimiter {
	if err := services.InitRedis(); err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, using in-memory rate limiter")
		memory := services.NewMemoryRateLimiter()
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					memory.Sweep()
				}
			}
		}()
		return memory
	}
	return services.NewRedisRateLimiter(services.RedisClient, services.RATE_LIMIT_KEY_PREFIX)
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig
	logger.InitLogger(conf.Logs.Level)
	logger.Log.Info("Starting server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	limiter := services.NewActionLimiter(newRateLimiter(ctx), conf.Limits)
	defer services.CloseRedis()

	var publisher services.EventPublisher = services.NewLocalPublisher(services.GlobalWSConnManager)
	amqpPublisher, err := services.NewAMQPPublisher(conf.RabbitMQ.URL)
	if err != nil {
		logger.Log.WithError(err).Warn("RabbitMQ unavailable, notifications are delivered in-process and mail jobs are dropped")
	} else {
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		if err := amqpPublisher.StartNotificationConsumer(ctx, services.GlobalWSConnManager); err != nil {
			logger.Log.WithError(err).Warn("failed to start notification consumer")
		}
	}

	h := buildHandlers(db.ORM, conf, limiter, publisher)

	// Подчищаем связи, пережившие блокировку из-за гонки с заявкой в друзья
	if repaired, err := h.Relations.ReconcileBlockCascades(ctx); err != nil {
		logger.Log.WithError(err).Error("block reconciliation failed")
	} else if repaired > 0 {
		logger.Log.WithField("edges", repaired).Warn("block reconciliation repaired relations")
	}

	router := routes.NewRouter(h, limiter, serviceName)

	addr := fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port)
	logger.Log.WithFields(logrus.Fields{"addr": addr}).Info("listening")
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
