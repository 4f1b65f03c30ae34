package main

import (
	"context"
	"flag"
	"time"

	"photoshare/config"
	"photoshare/db"
	"photoshare/logger"
	"photoshare/services"

	"github.com/sirupsen/logrus"
)

// Разовая задача обслуживания: удаляет дружбу и подписки, оставшиеся рядом с блокировками.
// Запускается по расписанию (cron) рядом с основным сервером.
func main() {
	var configPath string
	var timeout time.Duration
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Reconciliation timeout")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logger.InitLogger(config.AppConfig.Logs.Level)

	if err := db.ConnectDB(); err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to the database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	mutator := services.NewRelationshipMutator(services.NewGormRelationStore(db.ORM), services.NopPublisher{})
	repaired, err := mutator.ReconcileBlockCascades(ctx)
	if err != nil {
		logger.Log.WithError(err).Fatal("block reconciliation failed")
	}
	logger.Log.WithFields(logrus.Fields{
		"edges":    repaired,
		"duration": time.Since(start).String(),
	}).Info("block reconciliation finished")
}
